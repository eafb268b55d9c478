// Package pagination implements keyset cursors for newest-first listings.
package pagination

import (
	"encoding/base64"
	"errors"
	"strings"
	"time"
)

// ErrInvalidCursor is returned for cursors that were not produced by Encode.
var ErrInvalidCursor = errors.New("invalid cursor format")

// Cursor marks the last row of a page ordered by (created_at DESC, id DESC).
type Cursor struct {
	ID        string
	CreatedAt time.Time
}

// PageResult represents a paginated result set
type PageResult[T any] struct {
	Items   []T    `json:"items"`
	Cursor  string `json:"cursor,omitempty"`
	HasMore bool   `json:"has_more"`
}

// After reports whether a row with the given position sorts after c.
func (c *Cursor) After(id string, createdAt time.Time) bool {
	if cmp := createdAt.Compare(c.CreatedAt); cmp != 0 {
		return cmp < 0
	}
	return id < c.ID
}

// Encode returns the opaque, query-string safe form of c.
func (c *Cursor) Encode() string {
	if c == nil || c.ID == "" {
		return ""
	}
	raw := c.CreatedAt.UTC().Format(time.RFC3339Nano) + "|" + c.ID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// EncodeCursor is shorthand for (&Cursor{ID: id, CreatedAt: createdAt}).Encode().
func EncodeCursor(id string, createdAt time.Time) string {
	return (&Cursor{ID: id, CreatedAt: createdAt}).Encode()
}

// DecodeCursor parses a cursor from Encode. An empty string decodes to nil.
func DecodeCursor(cursor string) (*Cursor, error) {
	if cursor == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	ts, id, ok := strings.Cut(string(decoded), "|")
	if !ok || id == "" {
		return nil, ErrInvalidCursor
	}

	createdAt, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	return &Cursor{ID: id, CreatedAt: createdAt}, nil
}
