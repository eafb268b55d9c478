package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/cloo-solutions/docpilot/internal/api"
	"github.com/cloo-solutions/docpilot/internal/api/middleware"
	"github.com/cloo-solutions/docpilot/internal/domain"
	"github.com/cloo-solutions/docpilot/internal/service"
	"github.com/cloo-solutions/docpilot/internal/telemetry"
	"github.com/go-chi/chi/v5"
)

type Synthesizer interface {
	Generate(ctx context.Context, input service.SynthesisInput, sink service.DeltaSink) (*service.SynthesisResult, error)
}

type SynthesisHandler struct {
	gate   Gate
	driver Synthesizer
}

func NewSynthesisHandler(gate Gate, driver Synthesizer) *SynthesisHandler {
	return &SynthesisHandler{gate: gate, driver: driver}
}

type SynthesisRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
	Requirements
}

type BlockedResponse struct {
	Error    string                   `json:"error"`
	Decision *domain.WorkflowDecision `json:"decision"`
}

// Synthesize checks the workflow gate, then streams the session's deltas as
// server-sent events. A blocked gate answers 409 with the decision.
func (h *SynthesisHandler) Synthesize(w http.ResponseWriter, r *http.Request) {
	scopeID := chi.URLParam(r, "scopeID")
	if scopeID == "" {
		api.Error(w, http.StatusBadRequest, "scopeID is required")
		return
	}

	var req SynthesisRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.HandleError(w, err)
		return
	}

	if req.Title == "" {
		api.Error(w, http.StatusBadRequest, "title is required")
		return
	}
	kind, err := domain.ParseArtifactKind(req.Kind)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	decision, err := h.gate.Evaluate(r.Context(), scopeID, req.template(), req.sources())
	if err != nil {
		api.HandleError(w, err)
		return
	}
	if !decision.Ready {
		api.JSON(w, http.StatusConflict, BlockedResponse{
			Error:    domain.ErrWorkflowBlocked.Message,
			Decision: decision,
		})
		return
	}

	sse := api.NewSSEWriter(w, middleware.GetRequestID(r.Context()))
	result, err := h.driver.Generate(r.Context(), service.SynthesisInput{
		ScopeID:     scopeID,
		Title:       req.Title,
		Description: req.Description,
		Kind:        kind,
	}, sse)
	if err != nil {
		if !sse.Started() {
			api.HandleError(w, err)
		}
		return
	}

	if result.State == domain.SynthesisStateFailed {
		telemetry.CaptureError(r.Context(), result.Err)
		log.Printf("synthesis %s in scope %s failed: %v", result.DocumentID, scopeID, result.Err)
	}
}
