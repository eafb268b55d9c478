package service

import (
	"context"
	"errors"
	"testing"

	"github.com/cloo-solutions/docpilot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestWorkflowGate_Evaluate(t *testing.T) {
	tests := []struct {
		name            string
		counts          domain.SourceCounts
		requireTemplate bool
		requireSources  bool
		ready           bool
		missing         []domain.Precondition
	}{
		{"nothing ingested", domain.SourceCounts{}, true, true, false,
			[]domain.Precondition{domain.PreconditionTemplate, domain.PreconditionSourceFiles}},
		{"template only", domain.SourceCounts{Templates: 1}, true, true, false,
			[]domain.Precondition{domain.PreconditionSourceFiles}},
		{"sources only", domain.SourceCounts{Sources: 3}, true, true, false,
			[]domain.Precondition{domain.PreconditionTemplate}},
		{"both present", domain.SourceCounts{Templates: 1, Sources: 2}, true, true, true,
			[]domain.Precondition{}},
		{"nothing required", domain.SourceCounts{}, false, false, true,
			[]domain.Precondition{}},
		{"sources not required", domain.SourceCounts{Templates: 1}, true, false, true,
			[]domain.Precondition{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sources := new(MockSourceRepository)
			sources.On("CountByKind", mock.Anything, "chat-2").Return(tt.counts, nil)
			gate := NewWorkflowGate(sources)

			decision, err := gate.Evaluate(context.Background(), "chat-2", tt.requireTemplate, tt.requireSources)

			require.NoError(t, err)
			assert.Equal(t, tt.ready, decision.Ready)
			assert.Equal(t, tt.missing, decision.Missing)
			if tt.ready {
				assert.Empty(t, decision.Guidance)
			} else {
				assert.NotEmpty(t, decision.Guidance)
			}
		})
	}
}

func TestWorkflowGate_Evaluate_Idempotent(t *testing.T) {
	sources := new(MockSourceRepository)
	sources.On("CountByKind", mock.Anything, "chat-2").Return(domain.SourceCounts{Sources: 1}, nil)
	gate := NewWorkflowGate(sources)
	ctx := context.Background()

	first, err := gate.Evaluate(ctx, "chat-2", true, true)
	require.NoError(t, err)
	second, err := gate.Evaluate(ctx, "chat-2", true, true)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	sources.AssertNumberOfCalls(t, "CountByKind", 2)
}

func TestWorkflowGate_Evaluate_GuidanceNamesPrecondition(t *testing.T) {
	sources := new(MockSourceRepository)
	sources.On("CountByKind", mock.Anything, "chat-2").Return(domain.SourceCounts{}, nil)
	gate := NewWorkflowGate(sources)

	decision, err := gate.Evaluate(context.Background(), "chat-2", true, false)

	require.NoError(t, err)
	assert.Equal(t, domain.TemplateGuidance, decision.Guidance)
}

func TestWorkflowGate_Evaluate_Errors(t *testing.T) {
	sources := new(MockSourceRepository)
	sources.On("CountByKind", mock.Anything, "chat-2").Return(domain.SourceCounts{}, errors.New("db down"))
	gate := NewWorkflowGate(sources)

	_, err := gate.Evaluate(context.Background(), "chat-2", true, true)
	assert.Error(t, err)

	_, err = gate.Evaluate(context.Background(), "", true, true)
	assert.ErrorIs(t, err, domain.ErrMissingRequiredField)
}
