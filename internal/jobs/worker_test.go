package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cloo-solutions/docpilot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockJobProcessor is a mock implementation of JobProcessor
type MockJobProcessor struct {
	mock.Mock
}

func (m *MockJobProcessor) ProcessJobs(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type processorFunc func(ctx context.Context) error

func (f processorFunc) ProcessJobs(ctx context.Context) error { return f(ctx) }

// MockIngestionJobRepository is a mock implementation of IngestionJobRepository
type MockIngestionJobRepository struct {
	mock.Mock
}

func (m *MockIngestionJobRepository) GetPendingJobs(ctx context.Context) ([]*domain.IngestionJob, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.IngestionJob), args.Error(1)
}

func (m *MockIngestionJobRepository) UpdateJobStatus(ctx context.Context, jobID string, status domain.IngestionJobStatus, errMsg string) error {
	args := m.Called(ctx, jobID, status, errMsg)
	return args.Error(0)
}

func (m *MockIngestionJobRepository) IncrementRetries(ctx context.Context, jobID string) error {
	args := m.Called(ctx, jobID)
	return args.Error(0)
}

// MockSourceIngester is a mock implementation of SourceIngester
type MockSourceIngester struct {
	mock.Mock
}

func (m *MockSourceIngester) IngestSource(ctx context.Context, sourceID string) (int, error) {
	args := m.Called(ctx, sourceID)
	return args.Int(0), args.Error(1)
}

func pendingJob(id, sourceID string, retries int32) *domain.IngestionJob {
	return &domain.IngestionJob{
		ID:       id,
		SourceID: sourceID,
		ScopeID:  "chat-1",
		Status:   domain.IngestionJobStatusPending,
		Retries:  retries,
	}
}

func runWorker(ctx context.Context, t *testing.T, w *Worker) *sync.WaitGroup {
	t.Helper()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.Start(ctx)
	}()
	return &wg
}

func TestWorker_RunsImmediatelyAndStops(t *testing.T) {
	var calls atomic.Int32
	worker := NewWorker(processorFunc(func(context.Context) error {
		calls.Add(1)
		return nil
	}), time.Hour)
	wg := runWorker(context.Background(), t, worker)

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 10*time.Millisecond)

	worker.Stop()
	worker.Stop()
	wg.Wait()
}

func TestWorker_PollsOnInterval(t *testing.T) {
	var calls atomic.Int32
	worker := NewWorker(processorFunc(func(context.Context) error {
		calls.Add(1)
		return errors.New("ignored")
	}), 20*time.Millisecond)

	wg := runWorker(context.Background(), t, worker)
	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, 10*time.Millisecond)

	worker.Stop()
	wg.Wait()
}

func TestWorker_NotifyTriggersPass(t *testing.T) {
	passes := make(chan struct{}, 10)
	worker := NewWorker(processorFunc(func(context.Context) error {
		passes <- struct{}{}
		return nil
	}), time.Hour)

	wg := runWorker(context.Background(), t, worker)
	<-passes

	worker.Notify()
	worker.Notify()
	select {
	case <-passes:
	case <-time.After(time.Second):
		t.Fatal("notify did not trigger a pass")
	}

	worker.Stop()
	wg.Wait()
}

func TestWorker_ContextCancellation(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil)

	worker := NewWorker(mockProcessor, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	wg := runWorker(ctx, t, worker)

	cancel()
	wg.Wait()
	worker.Stop()

	mockProcessor.AssertCalled(t, "ProcessJobs", mock.Anything)
}

// TestIngestionWorker_ProcessJobs_NoPendingJobs tests when there are no pending jobs
func TestIngestionWorker_ProcessJobs_NoPendingJobs(t *testing.T) {
	mockRepo := new(MockIngestionJobRepository)
	mockIngester := new(MockSourceIngester)

	mockRepo.On("GetPendingJobs", mock.Anything).Return([]*domain.IngestionJob{}, nil)

	worker := NewIngestionWorker(mockRepo, mockIngester)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockIngester.AssertNotCalled(t, "IngestSource", mock.Anything, mock.Anything)
}

// TestIngestionWorker_ProcessJobs_Success tests successful job processing
func TestIngestionWorker_ProcessJobs_Success(t *testing.T) {
	mockRepo := new(MockIngestionJobRepository)
	mockIngester := new(MockSourceIngester)

	mockRepo.On("GetPendingJobs", mock.Anything).Return([]*domain.IngestionJob{pendingJob("job-1", "src-1", 0)}, nil)
	mockIngester.On("IngestSource", mock.Anything, "src-1").Return(4, nil)
	mockRepo.On("UpdateJobStatus", mock.Anything, "job-1", domain.IngestionJobStatusCompleted, "").Return(nil)

	worker := NewIngestionWorker(mockRepo, mockIngester)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockIngester.AssertExpectations(t)
}

// TestIngestionWorker_ProcessJobs_FailureWithRetry tests job failure with retry
func TestIngestionWorker_ProcessJobs_FailureWithRetry(t *testing.T) {
	mockRepo := new(MockIngestionJobRepository)
	mockIngester := new(MockSourceIngester)

	mockRepo.On("GetPendingJobs", mock.Anything).Return([]*domain.IngestionJob{pendingJob("job-1", "src-1", 0)}, nil)
	mockIngester.On("IngestSource", mock.Anything, "src-1").Return(0, domain.ErrEmbeddingProvider.Wrap(errors.New("rate limited")))
	mockRepo.On("IncrementRetries", mock.Anything, "job-1").Return(nil)
	mockRepo.On("UpdateJobStatus", mock.Anything, "job-1", domain.IngestionJobStatusPending, mock.MatchedBy(func(msg string) bool {
		return msg != ""
	})).Return(nil)

	worker := NewIngestionWorker(mockRepo, mockIngester)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockIngester.AssertExpectations(t)
}

// TestIngestionWorker_ProcessJobs_MaxRetriesExceeded tests job failure after max retries
func TestIngestionWorker_ProcessJobs_MaxRetriesExceeded(t *testing.T) {
	mockRepo := new(MockIngestionJobRepository)
	mockIngester := new(MockSourceIngester)

	mockRepo.On("GetPendingJobs", mock.Anything).Return([]*domain.IngestionJob{pendingJob("job-1", "src-1", 2)}, nil)
	mockIngester.On("IngestSource", mock.Anything, "src-1").Return(0, errors.New("timeout"))
	mockRepo.On("IncrementRetries", mock.Anything, "job-1").Return(nil)
	mockRepo.On("UpdateJobStatus", mock.Anything, "job-1", domain.IngestionJobStatusFailed, mock.MatchedBy(func(msg string) bool {
		return msg != ""
	})).Return(nil)

	worker := NewIngestionWorker(mockRepo, mockIngester)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockIngester.AssertExpectations(t)
}

// TestIngestionWorker_ProcessJobs_NotRetryable tests that permanent errors fail immediately
func TestIngestionWorker_ProcessJobs_NotRetryable(t *testing.T) {
	for _, jobErr := range []error{domain.ErrEmptyContent, domain.ErrDimensionMismatch.Wrap(errors.New("expected 3, got 2"))} {
		mockRepo := new(MockIngestionJobRepository)
		mockIngester := new(MockSourceIngester)

		mockRepo.On("GetPendingJobs", mock.Anything).Return([]*domain.IngestionJob{pendingJob("job-1", "src-1", 0)}, nil)
		mockIngester.On("IngestSource", mock.Anything, "src-1").Return(0, jobErr)
		mockRepo.On("UpdateJobStatus", mock.Anything, "job-1", domain.IngestionJobStatusFailed, mock.Anything).Return(nil)

		worker := NewIngestionWorker(mockRepo, mockIngester)
		err := worker.ProcessJobs(context.Background())

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
		mockRepo.AssertNotCalled(t, "IncrementRetries", mock.Anything, mock.Anything)
	}
}

// TestIngestionWorker_ProcessJobs_MultipleJobs tests processing multiple jobs
func TestIngestionWorker_ProcessJobs_MultipleJobs(t *testing.T) {
	mockRepo := new(MockIngestionJobRepository)
	mockIngester := new(MockSourceIngester)

	jobs := []*domain.IngestionJob{
		pendingJob("job-1", "src-1", 0),
		pendingJob("job-2", "src-2", 0),
	}

	mockRepo.On("GetPendingJobs", mock.Anything).Return(jobs, nil)

	// Job 1 succeeds
	mockIngester.On("IngestSource", mock.Anything, "src-1").Return(2, nil)
	mockRepo.On("UpdateJobStatus", mock.Anything, "job-1", domain.IngestionJobStatusCompleted, "").Return(nil)

	// Job 2 succeeds
	mockIngester.On("IngestSource", mock.Anything, "src-2").Return(1, nil)
	mockRepo.On("UpdateJobStatus", mock.Anything, "job-2", domain.IngestionJobStatusCompleted, "").Return(nil)

	worker := NewIngestionWorker(mockRepo, mockIngester)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockIngester.AssertExpectations(t)
}

// TestIngestionWorker_ProcessJobs_FetchError tests repository failures surface
func TestIngestionWorker_ProcessJobs_FetchError(t *testing.T) {
	mockRepo := new(MockIngestionJobRepository)
	mockRepo.On("GetPendingJobs", mock.Anything).Return(nil, errors.New("db down"))

	worker := NewIngestionWorker(mockRepo, new(MockSourceIngester))
	err := worker.ProcessJobs(context.Background())

	assert.Error(t, err)
}
