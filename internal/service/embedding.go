package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloo-solutions/docpilot/internal/domain"
	"golang.org/x/text/unicode/norm"
)

// DefaultEmbeddingBatchSize bounds the inputs sent in one provider request.
const DefaultEmbeddingBatchSize = 100

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// Embedder turns text into fixed-dimension vectors through an EmbeddingClient.
type Embedder struct {
	client     EmbeddingClient
	dimensions int
	batchSize  int
}

// NewEmbedder creates a new Embedder instance
func NewEmbedder(client EmbeddingClient, dimensions, batchSize int) *Embedder {
	if dimensions <= 0 {
		dimensions = domain.DefaultEmbeddingDimensions
	}
	if batchSize <= 0 {
		batchSize = DefaultEmbeddingBatchSize
	}
	return &Embedder{
		client:     client,
		dimensions: dimensions,
		batchSize:  batchSize,
	}
}

// Dimensions returns the vector length D.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

// Embed embeds a single text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts, returning one vector per input in input order.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	normalized := make([]string, len(texts))
	for i, t := range texts {
		normalized[i] = NormalizeText(t)
		if normalized[i] == "" {
			return nil, domain.ErrEmptyContent
		}
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(normalized); start += e.batchSize {
		end := min(start+e.batchSize, len(normalized))

		batch, err := e.client.GenerateEmbeddings(ctx, normalized[start:end])
		if err != nil {
			return nil, domain.ErrEmbeddingProvider.Wrap(err)
		}
		if len(batch) != end-start {
			return nil, domain.ErrEmbeddingProvider.Wrap(
				fmt.Errorf("expected %d vectors, got %d", end-start, len(batch)))
		}
		for _, v := range batch {
			if len(v) != e.dimensions {
				return nil, domain.ErrDimensionMismatch.Wrap(
					fmt.Errorf("expected %d, got %d", e.dimensions, len(v)))
			}
		}
		vectors = append(vectors, batch...)
	}

	return vectors, nil
}

// NormalizeText applies NFKC, collapses whitespace runs to one space and trims.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(norm.NFKC.String(text)), " ")
}
