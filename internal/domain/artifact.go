package domain

import (
	"fmt"
	"time"
)

// ArtifactKind is the rendering kind of a generated document.
type ArtifactKind string

const (
	ArtifactKindText  ArtifactKind = "text"
	ArtifactKindCode  ArtifactKind = "code"
	ArtifactKindSheet ArtifactKind = "sheet"
	ArtifactKindImage ArtifactKind = "image"
)

// ArtifactStatus is the streaming status of an artifact.
type ArtifactStatus string

const (
	ArtifactStatusIdle      ArtifactStatus = "idle"
	ArtifactStatusStreaming ArtifactStatus = "streaming"
)

// Artifact is the document being built from a delta stream.
type Artifact struct {
	DocumentID string         `json:"document_id"`
	Kind       ArtifactKind   `json:"kind"`
	Title      string         `json:"title"`
	Content    string         `json:"content"`
	Status     ArtifactStatus `json:"status"`
	IsVisible  bool           `json:"is_visible"`
	Error      string         `json:"error,omitempty"`
}

// Document is a finished artifact saved after a successful synthesis.
type Document struct {
	ID        string
	ScopeID   string
	Kind      ArtifactKind
	Title     string
	Content   string
	CreatedAt time.Time
}

// IsValidArtifactKind checks if an ArtifactKind is valid
func IsValidArtifactKind(k ArtifactKind) bool {
	switch k {
	case ArtifactKindText, ArtifactKindCode, ArtifactKindSheet, ArtifactKindImage:
		return true
	}
	return false
}

// ParseArtifactKind parses s, defaulting to text when s is empty.
func ParseArtifactKind(s string) (ArtifactKind, error) {
	if s == "" {
		return ArtifactKindText, nil
	}
	k := ArtifactKind(s)
	if !IsValidArtifactKind(k) {
		return "", ErrInvalidArtifactKind
	}
	return k, nil
}

// ValidateDocument validates a Document instance
func ValidateDocument(d *Document) error {
	if d == nil {
		return fmt.Errorf("document cannot be nil")
	}
	if d.ID == "" {
		return fmt.Errorf("document ID is required")
	}
	if d.ScopeID == "" {
		return fmt.Errorf("document ScopeID is required")
	}
	if !IsValidArtifactKind(d.Kind) {
		return fmt.Errorf("document Kind is invalid: %s", d.Kind)
	}
	return nil
}
