package repository

import (
	"context"
	"errors"

	"github.com/cloo-solutions/docpilot/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DocumentRepository struct {
	db dbtx
}

func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: pool}
}

func (r *DocumentRepository) Create(ctx context.Context, d *domain.Document) error {
	if err := domain.ValidateDocument(d); err != nil {
		return domain.NewDomainErrorWithCause(domain.ErrCodeValidation, err.Error(), err)
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO documents (id, scope_id, kind, title, content, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		d.ID, d.ScopeID, d.Kind, d.Title, d.Content, d.CreatedAt,
	)
	if isUniqueViolation(err) {
		return domain.ErrDocumentAlreadyExists
	}
	return err
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	var d domain.Document
	err := r.db.QueryRow(ctx,
		`SELECT id, scope_id, kind, title, content, created_at FROM documents WHERE id = $1`,
		id,
	).Scan(&d.ID, &d.ScopeID, &d.Kind, &d.Title, &d.Content, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, err
	}
	return &d, nil
}
