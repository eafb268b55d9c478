package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cloo-solutions/docpilot/internal/domain"
	"github.com/cloo-solutions/docpilot/internal/pagination"
	"github.com/cloo-solutions/docpilot/internal/telemetry"
	"github.com/google/uuid"
)

// SourceRepository persists source file metadata and extracted text.
type SourceRepository interface {
	Create(ctx context.Context, s *domain.SourceFile) error
	GetByID(ctx context.Context, id string) (*domain.SourceFile, error)
	ListByScope(ctx context.Context, scopeID string, cursor *pagination.Cursor, limit int) (*SourcePageResult, error)
	CountByKind(ctx context.Context, scopeID string) (domain.SourceCounts, error)
	LatestTemplate(ctx context.Context, scopeID string) (*domain.SourceFile, error)
	// AddChunkCount adds delta to the source's chunk count and returns the new total.
	AddChunkCount(ctx context.Context, id string, delta int) (int, error)
	Delete(ctx context.Context, id string) error
	DeleteByScope(ctx context.Context, scopeID string) error
}

// SourcePageResult is one page of a scope's sources, newest first.
type SourcePageResult struct {
	Items      []*domain.SourceFile
	NextCursor string
	HasMore    bool
}

// VectorStore persists embedding records and answers scoped similarity queries.
type VectorStore interface {
	Index(ctx context.Context, scopeID string, chunks []domain.Chunk, vectors [][]float32) error
	Search(ctx context.Context, scopeID string, query []float32, k int, minSimilarity float64) ([]domain.ScoredChunk, error)
	DeleteBySource(ctx context.Context, sourceID string) error
	DeleteByScope(ctx context.Context, scopeID string) error
}

// BatchEmbedder embeds texts in input order.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.New().String()
}

// IngestionService splits, embeds and indexes source text under a scope.
//
// Ingesting a source id twice adds a second set of records. Callers that want
// to replace a source call DeleteSource first.
type IngestionService struct {
	sources  SourceRepository
	store    VectorStore
	splitter *Splitter
	embedder BatchEmbedder
	now      func() time.Time
}

// NewIngestionService creates a new IngestionService instance
func NewIngestionService(sources SourceRepository, store VectorStore, splitter *Splitter, embedder BatchEmbedder) *IngestionService {
	if splitter == nil {
		splitter = NewSplitter(DefaultChunkConfig())
	}
	return &IngestionService{
		sources:  sources,
		store:    store,
		splitter: splitter,
		embedder: embedder,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Ingest indexes rawText for sourceID under scopeID and returns the number of
// chunks written. An unknown sourceID is registered as a source file.
func (s *IngestionService) Ingest(ctx context.Context, scopeID, sourceID, rawText string) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "IngestionService.Ingest", telemetry.SpanAttributes{
		ScopeID:   scopeID,
		SourceID:  sourceID,
		Operation: "ingest",
	})
	defer span.End()

	if scopeID == "" || sourceID == "" {
		return 0, domain.ErrMissingRequiredField
	}

	text := Sanitize(rawText)
	if strings.TrimSpace(text) == "" {
		return 0, domain.ErrEmptyContent
	}

	source, created, err := s.ensureSource(ctx, scopeID, sourceID, text)
	if err != nil {
		return 0, err
	}

	n, err := s.index(ctx, source, text)
	if err != nil {
		span.SetError(err)
		if created {
			s.discard(ctx, source.ID)
		}
		return 0, err
	}
	span.SetData("chunks", n)
	return n, nil
}

// IngestSource indexes the stored text of an already registered source.
func (s *IngestionService) IngestSource(ctx context.Context, sourceID string) (int, error) {
	source, err := s.sources.GetByID(ctx, sourceID)
	if err != nil {
		return 0, err
	}

	ctx, span := telemetry.StartSpan(ctx, "IngestionService.IngestSource", telemetry.SpanAttributes{
		ScopeID:   source.ScopeID,
		SourceID:  source.ID,
		Operation: "ingest",
	})
	defer span.End()

	text := Sanitize(source.Content)
	if strings.TrimSpace(text) == "" {
		return 0, domain.ErrEmptyContent
	}

	n, err := s.index(ctx, source, text)
	if err != nil {
		span.SetError(err)
		return 0, err
	}
	span.SetData("chunks", n)
	return n, nil
}

func (s *IngestionService) index(ctx context.Context, source *domain.SourceFile, text string) (int, error) {
	pieces := s.splitter.Split(NormalizeText(text))
	if len(pieces) == 0 {
		return 0, domain.ErrEmptyContent
	}

	vectors, err := s.embedder.EmbedBatch(ctx, pieces)
	if err != nil {
		return 0, fmt.Errorf("failed to embed chunks: %w", err)
	}

	chunks := domain.NewChunks(source.ID, pieces)
	if err := s.store.Index(ctx, source.ScopeID, chunks, vectors); err != nil {
		return 0, fmt.Errorf("failed to index chunks: %w", err)
	}

	total, err := s.sources.AddChunkCount(ctx, source.ID, len(chunks))
	if err != nil {
		return 0, fmt.Errorf("failed to update chunk count: %w", err)
	}
	source.ChunkCount = total

	return len(chunks), nil
}

// ensureSource returns the source registered as sourceID, registering it
// under scopeID first when it is unknown. created reports the latter.
func (s *IngestionService) ensureSource(ctx context.Context, scopeID, sourceID, text string) (source *domain.SourceFile, created bool, err error) {
	source, err = s.sources.GetByID(ctx, sourceID)
	switch {
	case err == nil:
		if source.ScopeID != scopeID {
			return nil, false, domain.ErrSourceScopeMismatch
		}
		return source, false, nil
	case !isNotFound(err):
		return nil, false, err
	}

	source = domain.NewSourceFile(sourceID, scopeID, domain.SourceKindSource, sourceID, "text/plain", int64(len(text)), s.now())
	source.Content = text
	if err := s.sources.Create(ctx, source); err != nil {
		return nil, false, fmt.Errorf("failed to register source: %w", err)
	}
	return source, true, nil
}

// discard unregisters a source this service registered for a call that then
// failed, so the gate does not count a source with nothing indexed.
func (s *IngestionService) discard(ctx context.Context, sourceID string) {
	ctx = context.WithoutCancel(ctx)
	if err := s.store.DeleteBySource(ctx, sourceID); err != nil {
		log.Printf("failed to remove records of source %s after ingestion error: %v", sourceID, err)
	}
	if err := s.sources.Delete(ctx, sourceID); err != nil {
		log.Printf("failed to remove source %s after ingestion error: %v", sourceID, err)
	}
}

// DeleteSource removes a source and all of its embedding records.
func (s *IngestionService) DeleteSource(ctx context.Context, scopeID, sourceID string) error {
	ctx, span := telemetry.StartSpan(ctx, "IngestionService.DeleteSource", telemetry.SpanAttributes{
		ScopeID:   scopeID,
		SourceID:  sourceID,
		Operation: "delete",
	})
	defer span.End()

	source, err := s.sources.GetByID(ctx, sourceID)
	if err != nil {
		return err
	}
	if source.ScopeID != scopeID {
		return domain.ErrSourceNotFound
	}

	if err := s.store.DeleteBySource(ctx, sourceID); err != nil {
		return fmt.Errorf("failed to delete embeddings: %w", err)
	}
	return s.sources.Delete(ctx, sourceID)
}

// DeleteScope removes every source registered under scopeID and their records.
func (s *IngestionService) DeleteScope(ctx context.Context, scopeID string) error {
	ctx, span := telemetry.StartSpan(ctx, "IngestionService.DeleteScope", telemetry.SpanAttributes{
		ScopeID:   scopeID,
		Operation: "delete",
	})
	defer span.End()

	if err := s.store.DeleteByScope(ctx, scopeID); err != nil {
		return fmt.Errorf("failed to delete embeddings: %w", err)
	}
	return s.sources.DeleteByScope(ctx, scopeID)
}

// Sanitize strips NUL and control characters other than \n, \r and \t.
func Sanitize(text string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			return r
		case r < 0x20 || r == 0x7f:
			return -1
		}
		return r
	}, text)
}

func isNotFound(err error) bool {
	var de *domain.DomainError
	return errors.As(err, &de) && de.Code == domain.ErrCodeNotFound
}
