package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/cloo-solutions/docpilot/internal/domain"
	"github.com/cloo-solutions/docpilot/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
)

type MockSourceService struct {
	mock.Mock
}

func (m *MockSourceService) Upload(ctx context.Context, input service.UploadInput) (*service.UploadResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.UploadResult), args.Error(1)
}

func (m *MockSourceService) Get(ctx context.Context, scopeID, sourceID string) (*domain.SourceFile, error) {
	args := m.Called(ctx, scopeID, sourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SourceFile), args.Error(1)
}

func (m *MockSourceService) List(ctx context.Context, scopeID, cursor string, limit int) (*service.SourcePageResult, error) {
	args := m.Called(ctx, scopeID, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SourcePageResult), args.Error(1)
}

func (m *MockSourceService) Delete(ctx context.Context, scopeID, sourceID string) error {
	args := m.Called(ctx, scopeID, sourceID)
	return args.Error(0)
}

func (m *MockSourceService) DeleteScope(ctx context.Context, scopeID string) error {
	args := m.Called(ctx, scopeID)
	return args.Error(0)
}

func (m *MockSourceService) MaxUploadBytes() int64 {
	args := m.Called()
	return args.Get(0).(int64)
}

type MockDownloadURLGenerator struct {
	mock.Mock
}

func (m *MockDownloadURLGenerator) GenerateDownloadURL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

type MockIngester struct {
	mock.Mock
}

func (m *MockIngester) Ingest(ctx context.Context, scopeID, sourceID, rawText string) (int, error) {
	args := m.Called(ctx, scopeID, sourceID, rawText)
	return args.Int(0), args.Error(1)
}

type MockSearcher struct {
	mock.Mock
}

func (m *MockSearcher) Search(ctx context.Context, input service.SearchInput) ([]domain.ScoredChunk, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ScoredChunk), args.Error(1)
}

type MockGate struct {
	mock.Mock
}

func (m *MockGate) Evaluate(ctx context.Context, scopeID string, requireTemplate, requireSources bool) (*domain.WorkflowDecision, error) {
	args := m.Called(ctx, scopeID, requireTemplate, requireSources)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WorkflowDecision), args.Error(1)
}

type MockSynthesizer struct {
	mock.Mock
}

// Generate sends the configured deltas to sink before returning.
func (m *MockSynthesizer) Generate(ctx context.Context, input service.SynthesisInput, sink service.DeltaSink) (*service.SynthesisResult, error) {
	args := m.Called(ctx, input, sink)
	if deltas, ok := args.Get(2).([]domain.Delta); ok {
		for _, d := range deltas {
			_ = sink.Send(d)
		}
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SynthesisResult), args.Error(1)
}

type MockDocumentGetter struct {
	mock.Mock
}

func (m *MockDocumentGetter) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func withURLParams(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func jsonRequest(method, url, body string, params map[string]string) *http.Request {
	req := httptest.NewRequest(method, url, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return withURLParams(req, params)
}
