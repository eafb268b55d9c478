package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDelta_WireShape(t *testing.T) {
	tests := []struct {
		name     string
		delta    Delta
		expected string
	}{
		{"id", IDDelta{DocumentID: "doc1"}, `{"type":"id","content":"doc1","documentId":"doc1"}`},
		{"title", TitleDelta{DocumentID: "doc1", Title: "Report"}, `{"type":"title","content":"Report","documentId":"doc1"}`},
		{"kind", KindDelta{DocumentID: "doc1", Kind: ArtifactKindSheet}, `{"type":"kind","content":"sheet","documentId":"doc1"}`},
		{"clear", ClearDelta{DocumentID: "doc1"}, `{"type":"clear","content":"","documentId":"doc1"}`},
		{"text", TextDelta{DocumentID: "doc1", Text: "Hello"}, `{"type":"text-delta","content":"Hello","documentId":"doc1"}`},
		{"finish", FinishDelta{}, `{"type":"finish","content":""}`},
		{"error", ErrorDelta{Message: "boom"}, `{"type":"error","content":"boom"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(EncodeDelta(tt.delta, ""))
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(data))
		})
	}
}

func TestEncodeDelta_MessageID(t *testing.T) {
	w := EncodeDelta(TextDelta{Text: "x"}, "msg-1")
	assert.Equal(t, "msg-1", w.MessageID)
}

func TestDecodeDelta(t *testing.T) {
	d, ok := DecodeDelta(WireDelta{Type: DeltaTypeText, Content: " world", DocumentID: "doc1"})
	require.True(t, ok)
	assert.Equal(t, TextDelta{DocumentID: "doc1", Text: " world"}, d)

	d, ok = DecodeDelta(WireDelta{Type: DeltaTypeID, Content: "doc2"})
	require.True(t, ok)
	assert.Equal(t, IDDelta{DocumentID: "doc2"}, d)

	d, ok = DecodeDelta(WireDelta{Type: DeltaTypeKind, Content: "code"})
	require.True(t, ok)
	assert.Equal(t, KindDelta{Kind: ArtifactKindCode}, d)
}

func TestDecodeDelta_UnknownIgnored(t *testing.T) {
	_, ok := DecodeDelta(WireDelta{Type: "workflow-step", Content: "Step 1"})
	assert.False(t, ok)

	_, ok = DecodeDelta(WireDelta{Type: DeltaTypeKind, Content: "video"})
	assert.False(t, ok)
}

func TestDecodeDelta_FromJSON(t *testing.T) {
	var w WireDelta
	require.NoError(t, json.Unmarshal([]byte(`{"type":"finish","content":"","messageId":"m1"}`), &w))

	d, ok := DecodeDelta(w)
	require.True(t, ok)
	assert.Equal(t, DeltaTypeFinish, d.Type())
}
