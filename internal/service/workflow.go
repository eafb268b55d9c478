package service

import (
	"context"
	"fmt"

	"github.com/cloo-solutions/docpilot/internal/domain"
	"github.com/cloo-solutions/docpilot/internal/telemetry"
)

// SourceCounter reports how many files of each kind a scope holds.
type SourceCounter interface {
	CountByKind(ctx context.Context, scopeID string) (domain.SourceCounts, error)
}

// WorkflowGate decides whether synthesis may start for a scope.
type WorkflowGate struct {
	sources SourceCounter
}

// NewWorkflowGate creates a new WorkflowGate instance
func NewWorkflowGate(sources SourceCounter) *WorkflowGate {
	return &WorkflowGate{sources: sources}
}

// Evaluate reads the current file counts of scopeID and reports which of the
// required inputs are missing. It never mutates state.
func (g *WorkflowGate) Evaluate(ctx context.Context, scopeID string, requireTemplate, requireSources bool) (*domain.WorkflowDecision, error) {
	ctx, span := telemetry.StartSpan(ctx, "WorkflowGate.Evaluate", telemetry.SpanAttributes{
		ScopeID:   scopeID,
		Operation: "evaluate",
	})
	defer span.End()

	if scopeID == "" {
		return nil, domain.ErrMissingRequiredField
	}

	counts, err := g.sources.CountByKind(ctx, scopeID)
	if err != nil {
		return nil, fmt.Errorf("failed to count sources: %w", err)
	}

	return domain.NewWorkflowDecision(
		requireTemplate && counts.Templates == 0,
		requireSources && counts.Sources == 0,
	), nil
}
