// Package api holds the HTTP envelope shared by handlers: JSON bodies,
// domain error mapping and the delta event stream.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/cloo-solutions/docpilot/internal/domain"
)

// ErrEmptyBody is returned by DecodeJSON for a request without a body.
var ErrEmptyBody = domain.NewDomainError(domain.ErrCodeValidation, "request body is required")

var errInvalidBody = domain.NewDomainError(domain.ErrCodeValidation, "invalid request body")

// SuccessResponse wraps successful API responses
type SuccessResponse struct {
	Data any `json:"data"`
}

// ErrorResponse is the body of every failed request. Code is the domain error
// code when one applies.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// JSON writes a JSON response with the given status code
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// Success writes a successful JSON response
func Success(w http.ResponseWriter, status int, data any) {
	JSON(w, status, SuccessResponse{Data: data})
}

// Error writes an error JSON response
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}

// DecodeJSON decodes the request body into v. Malformed bodies yield a
// validation error, bodies cut off by http.MaxBytesReader yield
// domain.ErrFileTooLarge and an empty body yields ErrEmptyBody.
func DecodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return nil
	}
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return domain.ErrFileTooLarge
	case errors.Is(err, io.EOF):
		return ErrEmptyBody
	default:
		return errInvalidBody.Wrap(err)
	}
}

// DomainErrorToHTTP maps domain errors to HTTP status codes. Wrapped domain
// errors are unwrapped first.
func DomainErrorToHTTP(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var domainErr *domain.DomainError
	if !errors.As(err, &domainErr) {
		return http.StatusInternalServerError
	}

	switch domainErr.Code {
	case domain.ErrCodeValidation:
		return http.StatusBadRequest
	case domain.ErrCodeNotFound:
		return http.StatusNotFound
	case domain.ErrCodeAlreadyExists, domain.ErrCodeConflict:
		return http.StatusConflict
	case domain.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case domain.ErrCodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case domain.ErrCodeProvider:
		return http.StatusBadGateway
	case domain.ErrCodeInvalidOperation:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// HandleError answers with the status and message of a domain error. Errors
// outside the domain are logged and reported as a bare internal error.
func HandleError(w http.ResponseWriter, err error) {
	var domainErr *domain.DomainError
	if !errors.As(err, &domainErr) {
		log.Printf("internal error: %v", err)
		JSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: "internal server error",
			Code:  domain.ErrCodeInternalError,
		})
		return
	}
	JSON(w, DomainErrorToHTTP(err), ErrorResponse{Error: domainErr.Message, Code: domainErr.Code})
}
