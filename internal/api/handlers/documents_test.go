package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cloo-solutions/docpilot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestDocumentHandler_Get(t *testing.T) {
	repo := new(MockDocumentGetter)
	repo.On("GetByID", mock.Anything, "doc-1").Return(&domain.Document{
		ID:        "doc-1",
		ScopeID:   "scope-1",
		Kind:      domain.ArtifactKindText,
		Title:     "Q1 Report",
		Content:   "Hello world",
		CreatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}, nil)
	repo.On("GetByID", mock.Anything, "missing").Return(nil, domain.ErrDocumentNotFound)
	handler := NewDocumentHandler(repo)

	w := httptest.NewRecorder()
	handler.Get(w, jsonRequest(http.MethodGet, "/", "", map[string]string{"id": "doc-1"}))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp DocumentResponse
	decodeData(t, w, &resp)
	assert.Equal(t, "Hello world", resp.Content)
	assert.Equal(t, "text", resp.Kind)

	w = httptest.NewRecorder()
	handler.Get(w, jsonRequest(http.MethodGet, "/", "", map[string]string{"id": "missing"}))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
