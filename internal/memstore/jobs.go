package memstore

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/cloo-solutions/docpilot/internal/domain"
)

// DefaultClaimBatch is the number of jobs claimed per poll.
const DefaultClaimBatch = 10

// JobQueue keeps ingestion jobs in memory.
type JobQueue struct {
	mu   sync.Mutex
	byID map[string]*domain.IngestionJob
}

// NewJobQueue creates a new JobQueue instance
func NewJobQueue() *JobQueue {
	return &JobQueue{byID: make(map[string]*domain.IngestionJob)}
}

func (q *JobQueue) Create(ctx context.Context, job *domain.IngestionJob) error {
	if err := domain.ValidateIngestionJob(job); err != nil {
		return domain.NewDomainErrorWithCause(domain.ErrCodeValidation, err.Error(), err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	c := *job
	q.byID[job.ID] = &c
	return nil
}

func (q *JobQueue) GetByID(ctx context.Context, id string) (*domain.IngestionJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.byID[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	c := *job
	return &c, nil
}

// GetPendingJobs claims up to DefaultClaimBatch pending jobs, oldest first,
// and marks them processing.
func (q *JobQueue) GetPendingJobs(ctx context.Context) ([]*domain.IngestionJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var pending []*domain.IngestionJob
	for _, job := range q.byID {
		if job.Status == domain.IngestionJobStatusPending {
			pending = append(pending, job)
		}
	}
	slices.SortFunc(pending, func(a, b *domain.IngestionJob) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if len(pending) > DefaultClaimBatch {
		pending = pending[:DefaultClaimBatch]
	}

	claimed := make([]*domain.IngestionJob, len(pending))
	for i, job := range pending {
		job.Status = domain.IngestionJobStatusProcessing
		c := *job
		claimed[i] = &c
	}
	return claimed, nil
}

func (q *JobQueue) UpdateJobStatus(ctx context.Context, jobID string, status domain.IngestionJobStatus, errMsg string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.byID[jobID]
	if !ok {
		return domain.ErrJobNotFound
	}
	job.Status = status
	job.Error = errMsg
	if status == domain.IngestionJobStatusCompleted || status == domain.IngestionJobStatusFailed {
		now := time.Now().UTC()
		job.ProcessedAt = &now
	}
	return nil
}

func (q *JobQueue) IncrementRetries(ctx context.Context, jobID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.byID[jobID]
	if !ok {
		return domain.ErrJobNotFound
	}
	job.Retries++
	return nil
}

func (q *JobQueue) delete(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.byID, id)
}
