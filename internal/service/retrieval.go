package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloo-solutions/docpilot/internal/domain"
	"github.com/cloo-solutions/docpilot/internal/telemetry"
)

const (
	DefaultRetrievalK    = 10
	DefaultMinSimilarity = 0.3
	// MaxRetrievalK caps caller-supplied k.
	MaxRetrievalK = 100
)

// QueryEmbedder embeds a single query text.
type QueryEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// RetrievalConfig holds the defaults applied when a query leaves k or the
// similarity floor unset.
type RetrievalConfig struct {
	K             int
	MinSimilarity float64
}

// DefaultRetrievalConfig returns k=10 and a 0.3 similarity floor.
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{K: DefaultRetrievalK, MinSimilarity: DefaultMinSimilarity}
}

// SearchInput is a retrieval query. Zero K and nil MinSimilarity take the defaults.
type SearchInput struct {
	ScopeID       string
	Query         string
	K             int
	MinSimilarity *float64
}

// Retriever answers text queries against the vector store of a scope.
type Retriever struct {
	embedder QueryEmbedder
	store    VectorStore
	cfg      RetrievalConfig
}

// NewRetriever creates a new Retriever instance
func NewRetriever(embedder QueryEmbedder, store VectorStore, cfg RetrievalConfig) *Retriever {
	if cfg.K <= 0 {
		cfg.K = DefaultRetrievalK
	}
	return &Retriever{embedder: embedder, store: store, cfg: cfg}
}

// Search returns at most K chunks of the scope ranked by similarity, each
// similarity clamped to [0,1].
func (r *Retriever) Search(ctx context.Context, input SearchInput) ([]domain.ScoredChunk, error) {
	ctx, span := telemetry.StartSpan(ctx, "Retriever.Search", telemetry.SpanAttributes{
		ScopeID:   input.ScopeID,
		Operation: "search",
	})
	defer span.End()

	if input.ScopeID == "" || strings.TrimSpace(input.Query) == "" {
		return nil, domain.ErrMissingRequiredField
	}

	k := input.K
	if k <= 0 {
		k = r.cfg.K
	}
	k = min(k, MaxRetrievalK)

	minSimilarity := r.cfg.MinSimilarity
	if input.MinSimilarity != nil {
		minSimilarity = *input.MinSimilarity
	}

	query, err := r.embedder.Embed(ctx, input.Query)
	if err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := r.store.Search(ctx, input.ScopeID, query, k, minSimilarity)
	if err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	for i := range results {
		results[i].Similarity = clamp01(results[i].Similarity)
	}
	span.SetData("k", k)
	span.SetData("results", len(results))
	return results, nil
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
