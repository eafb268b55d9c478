package artifact

import (
	"sync"
	"testing"

	"github.com/cloo-solutions/docpilot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func session(id string, tokens ...string) []domain.Delta {
	deltas := []domain.Delta{
		domain.IDDelta{DocumentID: id},
		domain.KindDelta{DocumentID: id, Kind: domain.ArtifactKindText},
		domain.TitleDelta{DocumentID: id, Title: "Report"},
		domain.ClearDelta{DocumentID: id},
	}
	for _, tok := range tokens {
		deltas = append(deltas, domain.TextDelta{DocumentID: id, Text: tok})
	}
	return deltas
}

func TestMachine_InitialState(t *testing.T) {
	m := New()

	a := m.Snapshot()
	assert.Empty(t, a.DocumentID)
	assert.Equal(t, domain.ArtifactStatusIdle, a.Status)
	assert.False(t, a.IsVisible)
}

func TestMachine_CompleteSession(t *testing.T) {
	m := New()

	for _, d := range session("doc-1", "Hello", " world") {
		m.Apply(d)
	}
	streaming := m.Snapshot()
	assert.Equal(t, domain.ArtifactStatusStreaming, streaming.Status)

	m.Apply(domain.FinishDelta{DocumentID: "doc-1"})

	a := m.Snapshot()
	assert.Equal(t, "Hello world", a.Content)
	assert.Equal(t, domain.ArtifactStatusIdle, a.Status)
	assert.Equal(t, "doc-1", a.DocumentID)
	assert.Equal(t, "Report", a.Title)
	assert.Equal(t, domain.ArtifactKindText, a.Kind)
	assert.True(t, a.IsVisible)
}

func TestMachine_AbortKeepsPartialContent(t *testing.T) {
	m := New()
	for _, d := range session("doc-1", "Hello") {
		m.Apply(d)
	}

	m.Abort()

	assert.False(t, m.Apply(domain.TextDelta{DocumentID: "doc-1", Text: " world"}))
	assert.False(t, m.Apply(domain.ClearDelta{DocumentID: "doc-1"}))
	assert.False(t, m.Apply(domain.FinishDelta{DocumentID: "doc-1"}))
	assert.False(t, m.Apply(domain.IDDelta{DocumentID: "doc-1"}))

	a := m.Snapshot()
	assert.Equal(t, "Hello", a.Content)
	assert.Equal(t, domain.ArtifactStatusIdle, a.Status)
}

func TestMachine_NewIDAfterAbortStartsOver(t *testing.T) {
	m := New()
	for _, d := range session("doc-1", "Hello") {
		m.Apply(d)
	}
	m.Abort()

	for _, d := range session("doc-2", "Fresh") {
		m.Apply(d)
	}

	a := m.Snapshot()
	assert.Equal(t, "doc-2", a.DocumentID)
	assert.Equal(t, "Fresh", a.Content)
	assert.Equal(t, domain.ArtifactStatusStreaming, a.Status)
}

func TestMachine_NewIDSupersedesStreamingSession(t *testing.T) {
	m := New()
	for _, d := range session("doc-1", "old") {
		m.Apply(d)
	}
	for _, d := range session("doc-2", "new") {
		m.Apply(d)
	}

	assert.False(t, m.Apply(domain.TextDelta{DocumentID: "doc-1", Text: " stale"}))
	assert.False(t, m.Apply(domain.FinishDelta{DocumentID: "doc-1"}))

	a := m.Snapshot()
	assert.Equal(t, "doc-2", a.DocumentID)
	assert.Equal(t, "new", a.Content)
	assert.Equal(t, domain.ArtifactStatusStreaming, a.Status)
}

func TestMachine_RepeatedIDIsNoop(t *testing.T) {
	m := New()
	for _, d := range session("doc-1", "keep") {
		m.Apply(d)
	}

	assert.False(t, m.Apply(domain.IDDelta{DocumentID: "doc-1"}))
	assert.Equal(t, "keep", m.Snapshot().Content)
}

func TestMachine_ErrorEndsSession(t *testing.T) {
	m := New()
	for _, d := range session("doc-1", "partial") {
		m.Apply(d)
	}

	m.Apply(domain.ErrorDelta{DocumentID: "doc-1", Message: "provider failed"})

	a := m.Snapshot()
	assert.Equal(t, domain.ArtifactStatusIdle, a.Status)
	assert.Equal(t, "partial", a.Content)
	assert.Equal(t, "provider failed", a.Error)
	assert.False(t, m.Apply(domain.TextDelta{DocumentID: "doc-1", Text: "late"}))
}

func TestMachine_IgnoresDeltasBeforeID(t *testing.T) {
	m := New()

	assert.False(t, m.Apply(domain.TextDelta{Text: "orphan"}))
	assert.False(t, m.Apply(domain.TitleDelta{Title: "orphan"}))
	assert.Empty(t, m.Snapshot().Content)
}

func TestMachine_UntaggedDeltasApplyToCurrent(t *testing.T) {
	m := New()
	m.Apply(domain.IDDelta{DocumentID: "doc-1"})

	assert.True(t, m.Apply(domain.TextDelta{Text: "a"}))
	assert.True(t, m.Apply(domain.TextDelta{Text: "b"}))
	assert.Equal(t, "ab", m.Snapshot().Content)
}

func TestMachine_ContentGrowsWhileStreaming(t *testing.T) {
	m := New()
	m.Apply(domain.IDDelta{DocumentID: "doc-1"})

	prev := 0
	for _, tok := range []string{"a", "", "bc", "def"} {
		m.Apply(domain.TextDelta{DocumentID: "doc-1", Text: tok})
		n := len(m.Snapshot().Content)
		assert.GreaterOrEqual(t, n, prev)
		prev = n
	}
	assert.Equal(t, "abcdef", m.Snapshot().Content)
}

func TestMachine_ApplyWire(t *testing.T) {
	m := New()

	wire := []domain.WireDelta{
		{Type: domain.DeltaTypeID, Content: "doc-1"},
		{Type: "suggestion", Content: "ignored"},
		{Type: domain.DeltaTypeKind, Content: "hologram", DocumentID: "doc-1"},
		{Type: domain.DeltaTypeText, Content: "Hello", DocumentID: "doc-1"},
		{Type: domain.DeltaTypeFinish, DocumentID: "doc-1"},
	}
	applied := 0
	for _, w := range wire {
		if m.ApplyWire(w) {
			applied++
		}
	}

	assert.Equal(t, 3, applied)
	a := m.Snapshot()
	assert.Equal(t, "Hello", a.Content)
	assert.Equal(t, domain.ArtifactKindText, a.Kind)
	assert.Equal(t, domain.ArtifactStatusIdle, a.Status)
}

func TestMachine_ConcurrentAbort(t *testing.T) {
	m := New()
	m.Apply(domain.IDDelta{DocumentID: "doc-1"})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			m.Apply(domain.TextDelta{DocumentID: "doc-1", Text: "x"})
		}
	}()
	go func() {
		defer wg.Done()
		m.Abort()
	}()
	wg.Wait()

	before := m.Snapshot().Content
	m.Apply(domain.TextDelta{DocumentID: "doc-1", Text: "y"})
	require.Equal(t, before, m.Snapshot().Content)
}
