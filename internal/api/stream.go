package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cloo-solutions/docpilot/internal/domain"
)

// SSEWriter streams protocol deltas as server-sent events, one
// "data: <json>" event per delta, flushed as soon as it is written.
// Headers are sent with the first delta, so a handler can still answer with a
// plain JSON error if nothing was streamed.
type SSEWriter struct {
	w         http.ResponseWriter
	rc        *http.ResponseController
	messageID string
	started   bool
}

// NewSSEWriter creates a new SSEWriter. messageID is stamped on every delta.
func NewSSEWriter(w http.ResponseWriter, messageID string) *SSEWriter {
	return &SSEWriter{
		w:         w,
		rc:        http.NewResponseController(w),
		messageID: messageID,
	}
}

// Send writes d as one event and flushes it.
func (s *SSEWriter) Send(d domain.Delta) error {
	if !s.started {
		h := s.w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no")
		s.w.WriteHeader(http.StatusOK)
		s.started = true
	}

	payload, err := json.Marshal(domain.EncodeDelta(d, s.messageID))
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", payload); err != nil {
		return err
	}
	return s.rc.Flush()
}

// Started reports whether any delta has been written.
func (s *SSEWriter) Started() bool {
	return s.started
}
