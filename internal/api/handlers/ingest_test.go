package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloo-solutions/docpilot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestIngestHandler_Ingest(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setup      func(m *MockIngester)
		wantStatus int
		wantBody   string
	}{
		{
			name: "success",
			body: `{"source_id":"src-1","text":"Revenue grew 12% in Q1."}`,
			setup: func(m *MockIngester) {
				m.On("Ingest", mock.Anything, "scope-1", "src-1", "Revenue grew 12% in Q1.").Return(1, nil)
			},
			wantStatus: http.StatusCreated,
			wantBody:   `"chunk_count":1`,
		},
		{
			name:       "invalid body",
			body:       `{`,
			setup:      func(m *MockIngester) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   "invalid request body",
		},
		{
			name:       "missing source id",
			body:       `{"text":"x"}`,
			setup:      func(m *MockIngester) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   "source_id is required",
		},
		{
			name: "empty content",
			body: `{"source_id":"src-1","text":"\u0000"}`,
			setup: func(m *MockIngester) {
				m.On("Ingest", mock.Anything, "scope-1", "src-1", mock.Anything).Return(0, domain.ErrEmptyContent)
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   "content is empty",
		},
		{
			name: "scope mismatch",
			body: `{"source_id":"src-1","text":"x"}`,
			setup: func(m *MockIngester) {
				m.On("Ingest", mock.Anything, "scope-1", "src-1", "x").Return(0, domain.ErrSourceScopeMismatch)
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   "different scope",
		},
		{
			name: "provider failure",
			body: `{"source_id":"src-1","text":"x"}`,
			setup: func(m *MockIngester) {
				m.On("Ingest", mock.Anything, "scope-1", "src-1", "x").Return(0, domain.ErrEmbeddingProvider.Wrap(assert.AnError))
			},
			wantStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(MockIngester)
			tt.setup(m)
			w := httptest.NewRecorder()

			NewIngestHandler(m).Ingest(w, jsonRequest(http.MethodPost, "/", tt.body, map[string]string{"scopeID": "scope-1"}))

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.Contains(t, w.Body.String(), tt.wantBody)
			}
			m.AssertExpectations(t)
		})
	}
}
