package repository

import (
	"context"
	"errors"

	"github.com/cloo-solutions/docpilot/internal/domain"
	"github.com/cloo-solutions/docpilot/internal/pagination"
	"github.com/cloo-solutions/docpilot/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const sourceColumns = `id, scope_id, kind, file_name, content_type, size, storage_key, content, chunk_count, created_at`

type SourceRepository struct {
	db dbtx
}

func NewSourceRepository(pool *pgxpool.Pool) *SourceRepository {
	return &SourceRepository{db: pool}
}

func NewSourceRepositoryWithTx(tx pgx.Tx) *SourceRepository {
	return &SourceRepository{db: tx}
}

func (r *SourceRepository) Create(ctx context.Context, s *domain.SourceFile) error {
	if err := domain.ValidateSourceFile(s); err != nil {
		return domain.NewDomainErrorWithCause(domain.ErrCodeValidation, err.Error(), err)
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO sources (`+sourceColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		s.ID, s.ScopeID, s.Kind, s.FileName, s.ContentType, s.Size,
		nullableString(s.StorageKey), s.Content, s.ChunkCount, s.CreatedAt,
	)
	if isUniqueViolation(err) {
		return domain.ErrSourceAlreadyExists
	}
	return err
}

func (r *SourceRepository) GetByID(ctx context.Context, id string) (*domain.SourceFile, error) {
	s, err := scanSource(r.db.QueryRow(ctx,
		`SELECT `+sourceColumns+` FROM sources WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSourceNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *SourceRepository) ListByScope(ctx context.Context, scopeID string, cursor *pagination.Cursor, limit int) (*service.SourcePageResult, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows pgx.Rows
	var err error

	if cursor != nil {
		rows, err = r.db.Query(ctx,
			`SELECT `+sourceColumns+`
			 FROM sources
			 WHERE scope_id = $1 AND (created_at, id) < ($2, $3)
			 ORDER BY created_at DESC, id DESC
			 LIMIT $4`,
			scopeID, cursor.CreatedAt, cursor.ID, limit+1,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT `+sourceColumns+`
			 FROM sources
			 WHERE scope_id = $1
			 ORDER BY created_at DESC, id DESC
			 LIMIT $2`,
			scopeID, limit+1,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.SourceFile
	for rows.Next() {
		s, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

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
// one indexed chunk. Sources awaiting or failed by async ingestion are left out.
func (r *SourceRepository) CountByKind(ctx context.Context, scopeID string) (domain.SourceCounts, error) {
	var counts domain.SourceCounts
	err := r.db.QueryRow(ctx,
		`SELECT
			 COUNT(*) FILTER (WHERE kind = 'template'),
			 COUNT(*) FILTER (WHERE kind = 'source' AND chunk_count > 0)
		 FROM sources
		 WHERE scope_id = $1`,
		scopeID,
	).Scan(&counts.Templates, &counts.Sources)
	return counts, err
}

func (r *SourceRepository) LatestTemplate(ctx context.Context, scopeID string) (*domain.SourceFile, error) {
	s, err := scanSource(r.db.QueryRow(ctx,
		`SELECT `+sourceColumns+`
		 FROM sources
		 WHERE scope_id = $1 AND kind = $2
		 ORDER BY created_at DESC, id DESC
		 LIMIT 1`,
		scopeID, domain.SourceKindTemplate,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSourceNotFound
		}
		return nil, err
	}
	return s, nil
}

// AddChunkCount increments chunk_count in place so concurrent ingests of the
// same source do not overwrite each other.
func (r *SourceRepository) AddChunkCount(ctx context.Context, id string, delta int) (int, error) {
	var total int
	err := r.db.QueryRow(ctx,
		`UPDATE sources SET chunk_count = chunk_count + $2 WHERE id = $1 RETURNING chunk_count`,
		id, delta,
	).Scan(&total)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrSourceNotFound
	}
	return total, err
}

func (r *SourceRepository) Delete(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM sources WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrSourceNotFound
	}
	return nil
}

func (r *SourceRepository) DeleteByScope(ctx context.Context, scopeID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM sources WHERE scope_id = $1`, scopeID)
	return err
}

func scanSource(row pgx.Row) (*domain.SourceFile, error) {
	var s domain.SourceFile
	var storageKey pgtype.Text
	if err := row.Scan(&s.ID, &s.ScopeID, &s.Kind, &s.FileName, &s.ContentType, &s.Size,
		&storageKey, &s.Content, &s.ChunkCount, &s.CreatedAt); err != nil {
		return nil, err
	}
	if storageKey.Valid {
		s.StorageKey = storageKey.String
	}
	return &s, nil
}
