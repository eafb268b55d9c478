package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/cloo-solutions/docpilot/internal/api"
	"github.com/cloo-solutions/docpilot/internal/domain"
	"github.com/go-chi/chi/v5"
)

type DocumentGetter interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}

type DocumentHandler struct {
	repo DocumentGetter
}

func NewDocumentHandler(repo DocumentGetter) *DocumentHandler {
	return &DocumentHandler{repo: repo}
}

type DocumentResponse struct {
	ID        string `json:"id"`
	ScopeID   string `json:"scope_id"`
	Kind      string `json:"kind"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	doc, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, DocumentResponse{
		ID:        doc.ID,
		ScopeID:   doc.ScopeID,
		Kind:      string(doc.Kind),
		Title:     doc.Title,
		Content:   doc.Content,
		CreatedAt: doc.CreatedAt.UTC().Format(time.RFC3339),
	})
}
