package domain

import (
	"fmt"
	"strings"
	"time"
)

// SourceKind distinguishes the template a document is modelled on from the
// files that supply its content.
type SourceKind string

const (
	SourceKindTemplate SourceKind = "template"
	SourceKindSource   SourceKind = "source"
)

// MaxUploadBytes is the default upload size cap.
const MaxUploadBytes int64 = 10 * 1024 * 1024

// allowedContentTypes lists the text formats accepted at the upload boundary.
// Binary formats are extracted upstream and arrive as text/plain.
var allowedContentTypes = map[string]bool{
	"text/plain":       true,
	"text/markdown":    true,
	"text/csv":         true,
	"application/json": true,
}

// SourceFile is an uploaded file registered under a scope.
type SourceFile struct {
	ID          string
	ScopeID     string
	Kind        SourceKind
	FileName    string
	ContentType string
	Size        int64
	StorageKey  string // empty when raw bytes are not kept
	Content     string // extracted text
	ChunkCount  int
	CreatedAt   time.Time
}

// SourceCounts is what the workflow gate sees of a scope: registered templates
// and sources with at least one indexed chunk.
type SourceCounts struct {
	Templates int
	Sources   int
}

// NewSourceFile creates a new SourceFile instance
func NewSourceFile(id, scopeID string, kind SourceKind, fileName, contentType string, size int64, createdAt time.Time) *SourceFile {
	return &SourceFile{
		ID:          id,
		ScopeID:     scopeID,
		Kind:        kind,
		FileName:    fileName,
		ContentType: contentType,
		Size:        size,
		CreatedAt:   createdAt,
	}
}

// ParseSourceKind parses s into a SourceKind.
func ParseSourceKind(s string) (SourceKind, error) {
	k := SourceKind(strings.ToLower(strings.TrimSpace(s)))
	if !IsValidSourceKind(k) {
		return "", ErrInvalidSourceKind
	}
	return k, nil
}

// IsValidSourceKind checks if a SourceKind is valid
func IsValidSourceKind(k SourceKind) bool {
	switch k {
	case SourceKindTemplate, SourceKindSource:
		return true
	}
	return false
}

// IsAllowedContentType reports whether uploads of the given media type are accepted.
// Parameters such as charset are ignored.
func IsAllowedContentType(contentType string) bool {
	mediaType, _, _ := strings.Cut(contentType, ";")
	return allowedContentTypes[strings.ToLower(strings.TrimSpace(mediaType))]
}

// AllowedContentTypes returns the accepted media types in a stable order.
func AllowedContentTypes() []string {
	return []string{"text/plain", "text/markdown", "text/csv", "application/json"}
}

// ValidateSourceFile validates a SourceFile instance
func ValidateSourceFile(s *SourceFile) error {
	if s == nil {
		return fmt.Errorf("source file cannot be nil")
	}

	if s.ID == "" {
		return fmt.Errorf("source file ID is required")
	}

	if s.ScopeID == "" {
		return fmt.Errorf("source file ScopeID is required")
	}

	if !IsValidSourceKind(s.Kind) {
		return fmt.Errorf("source file Kind is invalid: %s", s.Kind)
	}

	if s.Size < 0 {
		return fmt.Errorf("source file Size cannot be negative")
	}

	return nil
}
