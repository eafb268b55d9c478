// Package artifact mirrors a synthesis session on the client side by
// reducing the delta stream into an Artifact.
package artifact

import (
	"sync"

	"github.com/cloo-solutions/docpilot/internal/domain"
)

// Machine applies deltas in receipt order. It is safe for concurrent use, so
// one goroutine may feed deltas while another aborts or reads snapshots.
type Machine struct {
	mu      sync.Mutex
	current domain.Artifact
	aborted bool
}

// New returns a machine with no artifact.
func New() *Machine {
	return &Machine{current: domain.Artifact{Status: domain.ArtifactStatusIdle}}
}

// Apply reduces d into the current artifact and reports whether it changed
// anything. Deltas for another document and deltas received after Abort are
// dropped until the next id delta.
func (m *Machine) Apply(d domain.Delta) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := d.(domain.IDDelta); ok {
		return m.start(id.DocumentID)
	}
	if m.aborted || m.current.DocumentID == "" || !m.owns(d) {
		return false
	}

	a := &m.current
	switch d := d.(type) {
	case domain.TitleDelta:
		a.Title = d.Title
	case domain.KindDelta:
		a.Kind = d.Kind
	case domain.ClearDelta:
		a.Content = ""
	case domain.TextDelta:
		if a.Status != domain.ArtifactStatusStreaming {
			return false
		}
		a.Content += d.Text
	case domain.FinishDelta:
		a.Status = domain.ArtifactStatusIdle
	case domain.ErrorDelta:
		a.Status = domain.ArtifactStatusIdle
		a.Error = d.Message
	default:
		return false
	}
	return true
}

// ApplyWire decodes w and applies it. Unknown types are ignored.
func (m *Machine) ApplyWire(w domain.WireDelta) bool {
	d, ok := domain.DecodeDelta(w)
	if !ok {
		return false
	}
	return m.Apply(d)
}

// Abort stops the current session. Partial content is kept and later deltas
// are ignored until a new id arrives.
func (m *Machine) Abort() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.aborted = true
	m.current.Status = domain.ArtifactStatusIdle
}

// Snapshot returns a copy of the current artifact.
func (m *Machine) Snapshot() domain.Artifact {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *Machine) start(documentID string) bool {
	if documentID == "" {
		return false
	}
	if documentID == m.current.DocumentID {
		return false
	}
	m.aborted = false
	m.current = domain.Artifact{
		DocumentID: documentID,
		Kind:       domain.ArtifactKindText,
		Status:     domain.ArtifactStatusStreaming,
		IsVisible:  true,
	}
	return true
}

// owns reports whether d belongs to the current document. Deltas without a
// document id are attributed to the current one.
func (m *Machine) owns(d domain.Delta) bool {
	id := documentID(d)
	return id == "" || id == m.current.DocumentID
}

func documentID(d domain.Delta) string {
	switch d := d.(type) {
	case domain.IDDelta:
		return d.DocumentID
	case domain.TitleDelta:
		return d.DocumentID
	case domain.KindDelta:
		return d.DocumentID
	case domain.ClearDelta:
		return d.DocumentID
	case domain.TextDelta:
		return d.DocumentID
	case domain.FinishDelta:
		return d.DocumentID
	case domain.ErrorDelta:
		return d.DocumentID
	}
	return ""
}
