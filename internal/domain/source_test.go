package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSourceKind(t *testing.T) {
	k, err := ParseSourceKind("Template")
	require.NoError(t, err)
	assert.Equal(t, SourceKindTemplate, k)

	k, err = ParseSourceKind(" source ")
	require.NoError(t, err)
	assert.Equal(t, SourceKindSource, k)

	_, err = ParseSourceKind("image")
	assert.True(t, errors.Is(err, ErrInvalidSourceKind))
}

func TestIsAllowedContentType(t *testing.T) {
	assert.True(t, IsAllowedContentType("text/plain"))
	assert.True(t, IsAllowedContentType("text/plain; charset=utf-8"))
	assert.True(t, IsAllowedContentType("Application/JSON"))
	assert.False(t, IsAllowedContentType("application/pdf"))
	assert.False(t, IsAllowedContentType(""))
}

func TestValidateSourceFile(t *testing.T) {
	s := NewSourceFile("s1", "chat-1", SourceKindSource, "notes.txt", "text/plain", 12, time.Now())
	require.NoError(t, ValidateSourceFile(s))

	s.Kind = "other"
	assert.ErrorContains(t, ValidateSourceFile(s), "Kind")

	s.Kind = SourceKindTemplate
	s.ScopeID = ""
	assert.ErrorContains(t, ValidateSourceFile(s), "ScopeID")

	assert.Error(t, ValidateSourceFile(nil))
}

func TestDomainError_IsMatchesWrappedSentinel(t *testing.T) {
	cause := errors.New("rate limited")
	err := ErrEmbeddingProvider.Wrap(cause)

	assert.True(t, errors.Is(err, ErrEmbeddingProvider))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrDimensionMismatch))
	assert.Equal(t, "[PROVIDER_ERROR] embedding provider error: rate limited", err.Error())
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(ErrEmptyContent))
	assert.False(t, IsRetryable(ErrDimensionMismatch.Wrap(errors.New("got 3"))))
	assert.True(t, IsRetryable(ErrEmbeddingProvider.Wrap(errors.New("timeout"))))
	assert.True(t, IsRetryable(errors.New("connection reset")))
}

func TestSynthesisState_CanTransition(t *testing.T) {
	assert.True(t, SynthesisStatePending.CanTransition(SynthesisStateRetrieving))
	assert.True(t, SynthesisStateRetrieving.CanTransition(SynthesisStateGenerating))
	assert.True(t, SynthesisStateGenerating.CanTransition(SynthesisStateFinished))
	assert.True(t, SynthesisStateRetrieving.CanTransition(SynthesisStateFailed))
	assert.True(t, SynthesisStateGenerating.CanTransition(SynthesisStateCancelled))

	assert.False(t, SynthesisStatePending.CanTransition(SynthesisStateGenerating))
	assert.False(t, SynthesisStateFinished.CanTransition(SynthesisStateFailed))
	assert.False(t, SynthesisStateFailed.CanTransition(SynthesisStateRetrieving))
}
