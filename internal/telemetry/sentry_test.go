package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSampleRate(t *testing.T) {
	assert.Equal(t, 1.0, DefaultSampleRate(""))
	assert.Equal(t, 1.0, DefaultSampleRate("development"))
	assert.Equal(t, 0.1, DefaultSampleRate("production"))
}

func TestInit_EmptyDSNIsNoop(t *testing.T) {
	shutdown, err := Init(Config{})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	shutdown()
}

func TestTracesSampler(t *testing.T) {
	sampler := tracesSampler(0.25)

	root := &sentry.Span{Name: "POST /scopes/{scopeID}/synthesis"}
	assert.Equal(t, 0.25, sampler(sentry.SamplingContext{Span: root}))

	health := &sentry.Span{Name: "GET /health"}
	assert.Zero(t, sampler(sentry.SamplingContext{Span: health}))

	sampledChild := &sentry.Span{ParentSpanID: sentry.SpanID{1}, Sampled: sentry.SampledTrue}
	assert.Equal(t, 1.0, sampler(sentry.SamplingContext{Span: sampledChild}))

	droppedChild := &sentry.Span{ParentSpanID: sentry.SpanID{1}, Sampled: sentry.SampledFalse}
	assert.Zero(t, sampler(sentry.SamplingContext{Span: droppedChild}))
}

func TestStartSpan_WithoutClient(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "IngestionService.Ingest", SpanAttributes{
		ScopeID:   "chat-1",
		SourceID:  "src-1",
		Operation: "ingest",
	})
	require.NotNil(t, ctx)
	require.NotNil(t, span)

	childCtx, child := StartSpan(ctx, "Embedder.EmbedBatch", SpanAttributes{})
	assert.NotNil(t, sentry.SpanFromContext(childCtx))
	child.SetData("chunks", 3)
	child.End()

	span.SetError(errors.New("boom"))
	span.End()
}

func TestSpan_NilInnerIsSafe(t *testing.T) {
	s := &Span{}
	s.SetData("results", 0)
	s.SetError(errors.New("ignored"))
	s.End()
}
