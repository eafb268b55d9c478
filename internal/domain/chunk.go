package domain

import "time"

// DefaultEmbeddingDimensions is the vector length of the default embedding model.
const DefaultEmbeddingDimensions = 1536

// Chunk is a bounded slice of a source's text prepared for embedding.
type Chunk struct {
	Text     string
	SourceID string
	Sequence int
}

// EmbeddingRecord pairs a chunk with its vector. One chunk yields exactly one record.
type EmbeddingRecord struct {
	ID        string
	SourceID  string
	Sequence  int
	ChunkText string
	Vector    []float32
	CreatedAt time.Time
}

// ScoredChunk is a search hit.
type ScoredChunk struct {
	Content    string  `json:"content"`
	SourceID   string  `json:"source_id"`
	Similarity float64 `json:"similarity"`
}

// NewChunks tags split text pieces with their source and sequence number.
func NewChunks(sourceID string, texts []string) []Chunk {
	chunks := make([]Chunk, len(texts))
	for i, t := range texts {
		chunks[i] = Chunk{Text: t, SourceID: sourceID, Sequence: i}
	}
	return chunks
}
