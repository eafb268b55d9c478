// Package memstore is an in-process backend for sources, embedding records,
// documents and ingestion jobs. State is lost on restart.
package memstore

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/cloo-solutions/docpilot/internal/domain"
	"github.com/cloo-solutions/docpilot/internal/pagination"
	"github.com/cloo-solutions/docpilot/internal/service"
)

// SourceRepository keeps source files in memory.
type SourceRepository struct {
	mu   sync.RWMutex
	byID map[string]*domain.SourceFile
}

// NewSourceRepository creates a new SourceRepository instance
func NewSourceRepository() *SourceRepository {
	return &SourceRepository{byID: make(map[string]*domain.SourceFile)}
}

func (r *SourceRepository) Create(ctx context.Context, s *domain.SourceFile) error {
	if err := domain.ValidateSourceFile(s); err != nil {
		return domain.NewDomainErrorWithCause(domain.ErrCodeValidation, err.Error(), err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[s.ID]; ok {
		return domain.ErrSourceAlreadyExists
	}
	c := *s
	r.byID[s.ID] = &c
	return nil
}

func (r *SourceRepository) GetByID(ctx context.Context, id string) (*domain.SourceFile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrSourceNotFound
	}
	c := *s
	return &c, nil
}

// ListByScope returns sources newest first, continuing after cursor.
func (r *SourceRepository) ListByScope(ctx context.Context, scopeID string, cursor *pagination.Cursor, limit int) (*service.SourcePageResult, error) {
	if limit <= 0 {
		limit = 20
	}

	r.mu.RLock()
	var items []*domain.SourceFile
	for _, s := range r.byID {
		if s.ScopeID != scopeID {
			continue
		}
		if cursor != nil && !cursor.After(s.ID, s.CreatedAt) {
			continue
		}
		c := *s
		items = append(items, &c)
	}
	r.mu.RUnlock()

	slices.SortFunc(items, newestFirst)

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	var nextCursor string
	if hasMore && len(items) > 0 {
		last := items[len(items)-1]
		nextCursor = pagination.EncodeCursor(last.ID, last.CreatedAt)
	}

	return &service.SourcePageResult{
		Items:      items,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// CountByKind counts the scope's templates and its sources that have at least
// one indexed chunk.
func (r *SourceRepository) CountByKind(ctx context.Context, scopeID string) (domain.SourceCounts, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var counts domain.SourceCounts
	for _, s := range r.byID {
		if s.ScopeID != scopeID {
			continue
		}
		switch s.Kind {
		case domain.SourceKindTemplate:
			counts.Templates++
		case domain.SourceKindSource:
			if s.ChunkCount > 0 {
				counts.Sources++
			}
		}
	}
	return counts, nil
}

func (r *SourceRepository) LatestTemplate(ctx context.Context, scopeID string) (*domain.SourceFile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *domain.SourceFile
	for _, s := range r.byID {
		if s.ScopeID != scopeID || s.Kind != domain.SourceKindTemplate {
			continue
		}
		if latest == nil || newestFirst(s, latest) < 0 {
			latest = s
		}
	}
	if latest == nil {
		return nil, domain.ErrSourceNotFound
	}
	c := *latest
	return &c, nil
}

func (r *SourceRepository) AddChunkCount(ctx context.Context, id string, delta int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[id]
	if !ok {
		return 0, domain.ErrSourceNotFound
	}
	s.ChunkCount += delta
	return s.ChunkCount, nil
}

func (r *SourceRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return domain.ErrSourceNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *SourceRepository) DeleteByScope(ctx context.Context, scopeID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, s := range r.byID {
		if s.ScopeID == scopeID {
			delete(r.byID, id)
		}
	}
	return nil
}

// sourcesIn returns the ids of the sources registered under scopeID.
func (r *SourceRepository) sourcesIn(scopeID string) map[string]struct{} {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make(map[string]struct{})
	for id, s := range r.byID {
		if s.ScopeID == scopeID {
			ids[id] = struct{}{}
		}
	}
	return ids
}

func newestFirst(a, b *domain.SourceFile) int {
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return strings.Compare(b.ID, a.ID)
}
