package memstore

import (
	"context"

	"github.com/cloo-solutions/docpilot/internal/domain"
	"github.com/cloo-solutions/docpilot/internal/service"
)

// Backend bundles the in-memory repositories.
type Backend struct {
	Sources   *SourceRepository
	Vectors   *VectorIndex
	Documents *DocumentRepository
	Jobs      *JobQueue
}

// New creates an empty backend for vectors of the given dimension.
func New(dimensions int) *Backend {
	sources := NewSourceRepository()
	return &Backend{
		Sources:   sources,
		Vectors:   NewVectorIndex(dimensions, sources),
		Documents: NewDocumentRepository(),
		Jobs:      NewJobQueue(),
	}
}

// WithTx runs fn and removes the sources and jobs it created if fn fails.
func (b *Backend) WithTx(ctx context.Context, fn func(repos service.TxRepositories) error) error {
	tx := &txRepos{
		sources: &txSources{SourceRepository: b.Sources},
		jobs:    &txJobs{JobQueue: b.Jobs},
	}
	if err := fn(tx); err != nil {
		for _, id := range tx.sources.created {
			_ = b.Sources.Delete(ctx, id)
		}
		for _, id := range tx.jobs.created {
			b.Jobs.delete(id)
		}
		return err
	}
	return nil
}

type txRepos struct {
	sources *txSources
	jobs    *txJobs
}

func (t *txRepos) Sources() service.SourceRepository {
	return t.sources
}

func (t *txRepos) IngestionJobs() service.IngestionJobRepository {
	return t.jobs
}

type txSources struct {
	*SourceRepository
	created []string
}

func (t *txSources) Create(ctx context.Context, s *domain.SourceFile) error {
	if err := t.SourceRepository.Create(ctx, s); err != nil {
		return err
	}
	t.created = append(t.created, s.ID)
	return nil
}

type txJobs struct {
	*JobQueue
	created []string
}

func (t *txJobs) Create(ctx context.Context, job *domain.IngestionJob) error {
	if err := t.JobQueue.Create(ctx, job); err != nil {
		return err
	}
	t.created = append(t.created, job.ID)
	return nil
}
