//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/cloo-solutions/docpilot/internal/domain"
	"github.com/cloo-solutions/docpilot/internal/testutil"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

func setupPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	pc := testutil.NewPostgresContainer(ctx, t)
	t.Cleanup(func() { _ = pc.Terminate(context.Background()) })

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	t.Cleanup(pool.Close)
	return pool
}

func createSource(ctx context.Context, t *testing.T, repo *SourceRepository, scopeID string, kind domain.SourceKind, createdAt time.Time) *domain.SourceFile {
	t.Helper()
	s := domain.NewSourceFile(uuid.NewString(), scopeID, kind, "file.txt", "text/plain", 42, createdAt)
	s.Content = "some extracted text"
	require.NoError(t, repo.Create(ctx, s))
	return s
}

// unit returns a 1536-dimensional vector with weight on the given axes.
func unit(axes ...int) []float32 {
	v := make([]float32, domain.DefaultEmbeddingDimensions)
	for _, a := range axes {
		v[a] = 1
	}
	return v
}
