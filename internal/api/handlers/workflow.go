package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/cloo-solutions/docpilot/internal/api"
	"github.com/cloo-solutions/docpilot/internal/domain"
	"github.com/go-chi/chi/v5"
)

type Gate interface {
	Evaluate(ctx context.Context, scopeID string, requireTemplate, requireSources bool) (*domain.WorkflowDecision, error)
}

type WorkflowHandler struct {
	gate Gate
}

func NewWorkflowHandler(gate Gate) *WorkflowHandler {
	return &WorkflowHandler{gate: gate}
}

// Requirements name the preconditions to check. Omitted fields default to true.
type Requirements struct {
	RequireTemplate *bool `json:"require_template"`
	RequireSources  *bool `json:"require_sources"`
}

func (q Requirements) template() bool { return q.RequireTemplate == nil || *q.RequireTemplate }
func (q Requirements) sources() bool  { return q.RequireSources == nil || *q.RequireSources }

func (h *WorkflowHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	scopeID := chi.URLParam(r, "scopeID")
	if scopeID == "" {
		api.Error(w, http.StatusBadRequest, "scopeID is required")
		return
	}

	var req Requirements
	if err := api.DecodeJSON(r, &req); err != nil && !errors.Is(err, api.ErrEmptyBody) {
		api.HandleError(w, err)
		return
	}

	decision, err := h.gate.Evaluate(r.Context(), scopeID, req.template(), req.sources())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, decision)
}
