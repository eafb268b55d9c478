package handlers

import (
	"context"
	"net/http"

	"github.com/cloo-solutions/docpilot/internal/api"
	"github.com/cloo-solutions/docpilot/internal/domain"
	"github.com/cloo-solutions/docpilot/internal/service"
	"github.com/go-chi/chi/v5"
)

type Searcher interface {
	Search(ctx context.Context, input service.SearchInput) ([]domain.ScoredChunk, error)
}

type SearchHandler struct {
	svc Searcher
}

func NewSearchHandler(svc Searcher) *SearchHandler {
	return &SearchHandler{svc: svc}
}

type SearchRequest struct {
	Query         string   `json:"query"`
	K             int      `json:"k"`
	MinSimilarity *float64 `json:"min_similarity"`
}

type SearchResponse struct {
	Results []domain.ScoredChunk `json:"results"`
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	scopeID := chi.URLParam(r, "scopeID")
	if scopeID == "" {
		api.Error(w, http.StatusBadRequest, "scopeID is required")
		return
	}

	var req SearchRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.HandleError(w, err)
		return
	}

	if req.Query == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}
	if req.K < 0 {
		api.Error(w, http.StatusBadRequest, "k must not be negative")
		return
	}
	if req.MinSimilarity != nil && (*req.MinSimilarity < 0 || *req.MinSimilarity > 1) {
		api.Error(w, http.StatusBadRequest, "min_similarity must be between 0 and 1")
		return
	}

	results, err := h.svc.Search(r.Context(), service.SearchInput{
		ScopeID:       scopeID,
		Query:         req.Query,
		K:             req.K,
		MinSimilarity: req.MinSimilarity,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}
	if results == nil {
		results = []domain.ScoredChunk{}
	}

	api.Success(w, http.StatusOK, SearchResponse{Results: results})
}
