package memstore

import (
	"context"
	"sync"

	"github.com/cloo-solutions/docpilot/internal/domain"
)

// DocumentRepository keeps finished documents in memory.
type DocumentRepository struct {
	mu   sync.RWMutex
	byID map[string]*domain.Document
}

// NewDocumentRepository creates a new DocumentRepository instance
func NewDocumentRepository() *DocumentRepository {
	return &DocumentRepository{byID: make(map[string]*domain.Document)}
}

func (r *DocumentRepository) Create(ctx context.Context, d *domain.Document) error {
	if err := domain.ValidateDocument(d); err != nil {
		return domain.NewDomainErrorWithCause(domain.ErrCodeValidation, err.Error(), err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[d.ID]; ok {
		return domain.ErrDocumentAlreadyExists
	}
	c := *d
	r.byID[d.ID] = &c
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	c := *d
	return &c, nil
}
