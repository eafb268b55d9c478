package handlers

import (
	"context"
	"net/http"

	"github.com/cloo-solutions/docpilot/internal/api"
	"github.com/go-chi/chi/v5"
)

type Ingester interface {
	Ingest(ctx context.Context, scopeID, sourceID, rawText string) (int, error)
}

type IngestHandler struct {
	svc Ingester
}

func NewIngestHandler(svc Ingester) *IngestHandler {
	return &IngestHandler{svc: svc}
}

type IngestRequest struct {
	SourceID string `json:"source_id"`
	Text     string `json:"text"`
}

type IngestResponse struct {
	SourceID   string `json:"source_id"`
	ChunkCount int    `json:"chunk_count"`
}

// Ingest indexes raw text under a source id. Repeating the call for the same
// source adds another set of records.
func (h *IngestHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	scopeID := chi.URLParam(r, "scopeID")
	if scopeID == "" {
		api.Error(w, http.StatusBadRequest, "scopeID is required")
		return
	}

	var req IngestRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.HandleError(w, err)
		return
	}

	if req.SourceID == "" {
		api.Error(w, http.StatusBadRequest, "source_id is required")
		return
	}

	n, err := h.svc.Ingest(r.Context(), scopeID, req.SourceID, req.Text)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, IngestResponse{SourceID: req.SourceID, ChunkCount: n})
}
