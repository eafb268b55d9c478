package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError with the same code and message,
// so a sentinel matches the copies wrapped with a cause.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// Wrap returns a copy of the sentinel carrying err as its cause.
func (e *DomainError) Wrap(err error) *DomainError {
	return NewDomainErrorWithCause(e.Code, e.Message, err)
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeAlreadyExists    = "ALREADY_EXISTS"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeConflict         = "CONFLICT"
	ErrCodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
	ErrCodeProvider         = "PROVIDER_ERROR"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeInvalidOperation = "INVALID_OPERATION"
)

// Validation errors
var (
	ErrEmptyContent             = NewDomainError(ErrCodeValidation, "content is empty after sanitization")
	ErrInvalidSourceKind        = NewDomainError(ErrCodeValidation, "invalid source kind")
	ErrInvalidArtifactKind      = NewDomainError(ErrCodeValidation, "invalid artifact kind")
	ErrUnsupportedContentType   = NewDomainError(ErrCodeValidation, "file type not supported")
	ErrMissingRequiredField     = NewDomainError(ErrCodeValidation, "missing required field")
	ErrSourceScopeMismatch      = NewDomainError(ErrCodeValidation, "source is registered under a different scope")
	ErrChunkVectorCountMismatch = NewDomainError(ErrCodeValidation, "chunk and vector counts differ")
)

// Not found errors
var (
	ErrSourceNotFound   = NewDomainError(ErrCodeNotFound, "source file not found")
	ErrDocumentNotFound = NewDomainError(ErrCodeNotFound, "document not found")
	ErrJobNotFound      = NewDomainError(ErrCodeNotFound, "ingestion job not found")
)

// Already exists errors
var (
	ErrSourceAlreadyExists   = NewDomainError(ErrCodeAlreadyExists, "source file already exists")
	ErrDocumentAlreadyExists = NewDomainError(ErrCodeAlreadyExists, "document already exists")
)

// Authorization errors
var (
	ErrInvalidAPIToken = NewDomainError(ErrCodeUnauthorized, "invalid api token")
)

// Size errors
var (
	ErrFileTooLarge = NewDomainError(ErrCodePayloadTooLarge, "file exceeds the upload size limit")
)

// Provider and configuration errors
var (
	ErrEmbeddingProvider  = NewDomainError(ErrCodeProvider, "embedding provider error")
	ErrCompletionProvider = NewDomainError(ErrCodeProvider, "completion provider error")
	ErrDimensionMismatch  = NewDomainError(ErrCodeInternalError, "embedding dimension mismatch")
	ErrProviderDisabled   = NewDomainError(ErrCodeInvalidOperation, "language model provider is not configured")
)

// ErrWorkflowBlocked is returned when synthesis is requested while the
// workflow gate reports missing preconditions.
var ErrWorkflowBlocked = NewDomainError(ErrCodeConflict, "workflow preconditions not met")

// IsRetryable reports whether an operation failing with err may succeed on retry.
func IsRetryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrEmptyContent), errors.Is(err, ErrDimensionMismatch),
		errors.Is(err, ErrSourceNotFound), errors.Is(err, ErrSourceScopeMismatch):
		return false
	}
	return true
}
