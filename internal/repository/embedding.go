package repository

import (
	"context"
	"fmt"

	"github.com/cloo-solutions/docpilot/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// EmbeddingRepository stores embedding records in pgvector and answers scoped
// cosine similarity queries.
type EmbeddingRepository struct {
	pool       *pgxpool.Pool
	dimensions int
}

func NewEmbeddingRepository(pool *pgxpool.Pool, dimensions int) *EmbeddingRepository {
	if dimensions <= 0 {
		dimensions = domain.DefaultEmbeddingDimensions
	}
	return &EmbeddingRepository{pool: pool, dimensions: dimensions}
}

// Index writes one record per chunk in a single transaction.
func (r *EmbeddingRepository) Index(ctx context.Context, scopeID string, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return domain.ErrChunkVectorCountMismatch
	}
	for i, v := range vectors {
		if len(v) != r.dimensions {
			return domain.ErrDimensionMismatch.Wrap(
				fmt.Errorf("chunk %d: expected %d, got %d", i, r.dimensions, len(v)))
		}
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for i, c := range chunks {
		batch.Queue(
			`INSERT INTO embeddings (scope_id, source_id, chunk_index, content, embedding)
			 VALUES ($1, $2, $3, $4, $5)`,
			scopeID, c.SourceID, c.Sequence, c.Text, pgvector.NewVector(vectors[i]),
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Search returns up to k records of the scope with similarity strictly above
// minSimilarity, best first. Equal scores keep insertion order.
func (r *EmbeddingRepository) Search(ctx context.Context, scopeID string, query []float32, k int, minSimilarity float64) ([]domain.ScoredChunk, error) {
	if len(query) != r.dimensions {
		return nil, domain.ErrDimensionMismatch.Wrap(
			fmt.Errorf("query: expected %d, got %d", r.dimensions, len(query)))
	}

	var registered bool
	if err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM sources WHERE scope_id = $1)`, scopeID,
	).Scan(&registered); err != nil {
		return nil, err
	}
	if !registered || k <= 0 {
		return []domain.ScoredChunk{}, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT content, source_id, similarity
		 FROM (
			 SELECT e.seq, e.content, e.source_id,
			        CASE WHEN vector_norm(e.embedding) = 0 OR vector_norm($2::vector) = 0 THEN 0
			             ELSE 1 - (e.embedding <=> $2::vector)
			        END AS similarity
			 FROM embeddings e
			 JOIN sources s ON s.id = e.source_id AND s.scope_id = e.scope_id
			 WHERE e.scope_id = $1
		 ) ranked
		 WHERE similarity > $3
		 ORDER BY similarity DESC, seq ASC
		 LIMIT $4`,
		scopeID, pgvector.NewVector(query), minSimilarity, k,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []domain.ScoredChunk{}
	for rows.Next() {
		var c domain.ScoredChunk
		if err := rows.Scan(&c.Content, &c.SourceID, &c.Similarity); err != nil {
			return nil, err
		}
		results = append(results, c)
	}
	return results, rows.Err()
}

func (r *EmbeddingRepository) DeleteBySource(ctx context.Context, sourceID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM embeddings WHERE source_id = $1`, sourceID)
	return err
}

func (r *EmbeddingRepository) DeleteByScope(ctx context.Context, scopeID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM embeddings WHERE scope_id = $1`, scopeID)
	return err
}
