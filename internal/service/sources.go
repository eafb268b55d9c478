package service

import (
	"context"
	"fmt"
	"log"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cloo-solutions/docpilot/internal/domain"
	"github.com/cloo-solutions/docpilot/internal/pagination"
	"github.com/cloo-solutions/docpilot/internal/telemetry"
)

const defaultSourcePageSize = 20

// BlobStorage keeps the raw bytes of uploaded files.
type BlobStorage interface {
	PutObject(ctx context.Context, key, contentType string, body []byte) error
	DeleteObject(ctx context.Context, key string) error
}

// IngestionJobRepository persists deferred ingestion runs.
type IngestionJobRepository interface {
	Create(ctx context.Context, job *domain.IngestionJob) error
}

// JobNotifier is told when a new ingestion job was queued.
type JobNotifier interface {
	Notify()
}

// UploadInput is a file received for a scope.
type UploadInput struct {
	ScopeID     string
	Kind        domain.SourceKind
	FileName    string
	ContentType string
	Content     []byte
	Async       bool
}

// UploadResult describes a registered upload. Job is set for deferred ingestion.
type UploadResult struct {
	Source     *domain.SourceFile
	ChunkCount int
	Job        *domain.IngestionJob
}

// SourceService registers uploaded files and hands source files to ingestion.
// Templates are stored but not indexed; the synthesis driver reads them whole.
type SourceService struct {
	sources   SourceRepository
	jobs      IngestionJobRepository
	ingestion *IngestionService
	blobs     BlobStorage
	txRunner  TxRunner
	notifier  JobNotifier
	maxBytes  int64
	uuidGen   UUIDGenerator
	now       func() time.Time
}

// TxRepositories are the repositories bound to one open transaction.
type TxRepositories interface {
	Sources() SourceRepository
	IngestionJobs() IngestionJobRepository
}

// TxRunner commits the writes made through repos when fn returns nil and
// discards them otherwise.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(repos TxRepositories) error) error
}

// SourceServiceOption configures optional SourceService dependencies.
type SourceServiceOption func(*SourceService)

// WithBlobStorage keeps raw uploads in blob storage.
func WithBlobStorage(blobs BlobStorage) SourceServiceOption {
	return func(s *SourceService) { s.blobs = blobs }
}

// WithAsyncIngestion enables deferred ingestion through the job queue.
func WithAsyncIngestion(jobs IngestionJobRepository, txRunner TxRunner) SourceServiceOption {
	return func(s *SourceService) {
		s.jobs = jobs
		s.txRunner = txRunner
	}
}

// WithJobNotifier wakes the ingestion worker after a job is queued.
func WithJobNotifier(n JobNotifier) SourceServiceOption {
	return func(s *SourceService) { s.notifier = n }
}

// WithMaxUploadBytes overrides the upload size cap.
func WithMaxUploadBytes(n int64) SourceServiceOption {
	return func(s *SourceService) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

// WithUUIDGenerator sets the id generator (for testing).
func WithUUIDGenerator(g UUIDGenerator) SourceServiceOption {
	return func(s *SourceService) { s.uuidGen = g }
}

// NewSourceService creates a new SourceService instance
func NewSourceService(sources SourceRepository, ingestion *IngestionService, opts ...SourceServiceOption) *SourceService {
	s := &SourceService{
		sources:   sources,
		ingestion: ingestion,
		maxBytes:  domain.MaxUploadBytes,
		uuidGen:   &DefaultUUIDGenerator{},
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxUploadBytes returns the effective upload size cap.
func (s *SourceService) MaxUploadBytes() int64 {
	return s.maxBytes
}

// Upload validates and registers a file. Source files are ingested inline, or
// queued when input.Async is set and a job queue is configured.
func (s *SourceService) Upload(ctx context.Context, input UploadInput) (*UploadResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "SourceService.Upload", telemetry.SpanAttributes{
		ScopeID:   input.ScopeID,
		Operation: "upload",
	})
	defer span.End()

	if input.ScopeID == "" || input.FileName == "" {
		return nil, domain.ErrMissingRequiredField
	}
	if !domain.IsValidSourceKind(input.Kind) {
		return nil, domain.ErrInvalidSourceKind
	}
	if int64(len(input.Content)) > s.maxBytes {
		return nil, domain.ErrFileTooLarge
	}
	if !domain.IsAllowedContentType(input.ContentType) || !utf8.Valid(input.Content) {
		return nil, domain.ErrUnsupportedContentType
	}

	text := Sanitize(string(input.Content))
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyContent
	}

	id := s.uuidGen.NewString()
	fileName := path.Base(input.FileName)
	source := domain.NewSourceFile(id, input.ScopeID, input.Kind, fileName, input.ContentType, int64(len(input.Content)), s.now())
	source.Content = text
	if err := domain.ValidateSourceFile(source); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, err.Error(), err)
	}

	if s.blobs != nil {
		source.StorageKey = BuildStorageKey(input.ScopeID, id, fileName)
		if err := s.blobs.PutObject(ctx, source.StorageKey, input.ContentType, input.Content); err != nil {
			span.SetError(err)
			return nil, fmt.Errorf("failed to store upload: %w", err)
		}
	}

	result, err := s.register(ctx, source, input.Async)
	if err != nil {
		span.SetError(err)
		s.deleteBlob(ctx, source)
		return nil, err
	}
	return result, nil
}

func (s *SourceService) register(ctx context.Context, source *domain.SourceFile, async bool) (*UploadResult, error) {
	if source.Kind == domain.SourceKindTemplate {
		if err := s.sources.Create(ctx, source); err != nil {
			return nil, fmt.Errorf("failed to create source record: %w", err)
		}
		return &UploadResult{Source: source}, nil
	}

	if async && s.jobs != nil {
		job := domain.NewIngestionJob(s.uuidGen.NewString(), source.ID, source.ScopeID,
			domain.IngestionJobStatusPending, 0, "", source.CreatedAt, nil)

		create := func(sources SourceRepository, jobs IngestionJobRepository) error {
			if err := sources.Create(ctx, source); err != nil {
				return fmt.Errorf("failed to create source record: %w", err)
			}
			if err := jobs.Create(ctx, job); err != nil {
				return fmt.Errorf("failed to create ingestion job: %w", err)
			}
			return nil
		}

		var err error
		if s.txRunner != nil {
			err = s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
				return create(repos.Sources(), repos.IngestionJobs())
			})
		} else {
			err = create(s.sources, s.jobs)
		}
		if err != nil {
			return nil, err
		}
		if s.notifier != nil {
			s.notifier.Notify()
		}
		return &UploadResult{Source: source, Job: job}, nil
	}

	if err := s.sources.Create(ctx, source); err != nil {
		return nil, fmt.Errorf("failed to create source record: %w", err)
	}

	n, err := s.ingestion.IngestSource(ctx, source.ID)
	if err != nil {
		if delErr := s.ingestion.DeleteSource(ctx, source.ScopeID, source.ID); delErr != nil {
			log.Printf("failed to remove source %s after ingestion error: %v", source.ID, delErr)
		}
		return nil, err
	}
	source.ChunkCount = n

	return &UploadResult{Source: source, ChunkCount: n}, nil
}

// Get returns a source registered under scopeID.
func (s *SourceService) Get(ctx context.Context, scopeID, sourceID string) (*domain.SourceFile, error) {
	source, err := s.sources.GetByID(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if source.ScopeID != scopeID {
		return nil, domain.ErrSourceNotFound
	}
	return source, nil
}

// List returns one page of the scope's sources, newest first.
func (s *SourceService) List(ctx context.Context, scopeID, cursor string, limit int) (*SourcePageResult, error) {
	if scopeID == "" {
		return nil, domain.ErrMissingRequiredField
	}
	decoded, err := pagination.DecodeCursor(cursor)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid cursor", err)
	}
	if limit <= 0 {
		limit = defaultSourcePageSize
	}
	return s.sources.ListByScope(ctx, scopeID, decoded, limit)
}

// Delete removes a source, its embedding records and its stored upload.
func (s *SourceService) Delete(ctx context.Context, scopeID, sourceID string) error {
	source, err := s.Get(ctx, scopeID, sourceID)
	if err != nil {
		return err
	}
	if err := s.ingestion.DeleteSource(ctx, scopeID, sourceID); err != nil {
		return err
	}
	s.deleteBlob(ctx, source)
	return nil
}

// DeleteScope removes every source of a scope together with its records.
func (s *SourceService) DeleteScope(ctx context.Context, scopeID string) error {
	if scopeID == "" {
		return domain.ErrMissingRequiredField
	}

	var stored []*domain.SourceFile
	if s.blobs != nil {
		var cursor *pagination.Cursor
		for {
			page, err := s.sources.ListByScope(ctx, scopeID, cursor, 100)
			if err != nil {
				return fmt.Errorf("failed to list sources: %w", err)
			}
			stored = append(stored, page.Items...)
			if !page.HasMore || len(page.Items) == 0 {
				break
			}
			last := page.Items[len(page.Items)-1]
			cursor = &pagination.Cursor{ID: last.ID, CreatedAt: last.CreatedAt}
		}
	}

	if err := s.ingestion.DeleteScope(ctx, scopeID); err != nil {
		return err
	}
	for _, source := range stored {
		s.deleteBlob(ctx, source)
	}
	return nil
}

func (s *SourceService) deleteBlob(ctx context.Context, source *domain.SourceFile) {
	if s.blobs == nil || source.StorageKey == "" {
		return
	}
	if err := s.blobs.DeleteObject(ctx, source.StorageKey); err != nil {
		log.Printf("failed to delete stored upload %s: %v", source.StorageKey, err)
	}
}

// BuildStorageKey returns the object key of an uploaded file.
func BuildStorageKey(scopeID, sourceID, fileName string) string {
	return fmt.Sprintf("scopes/%s/%s/%s", scopeID, sourceID, fileName)
}
