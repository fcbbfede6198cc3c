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

// Is matches sentinel domain errors by code and message so that wrapped
// copies carrying a cause still satisfy errors.Is.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
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
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeProvider      = "PROVIDER_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodePartialData   = "PARTIAL_DATA"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrEmptyQuery           = NewDomainError(ErrCodeValidation, "query cannot be empty")
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
	ErrInvalidArguments     = NewDomainError(ErrCodeValidation, "invalid tool arguments")
	ErrInvalidImageURL      = NewDomainError(ErrCodeValidation, "image_url must be an absolute http(s) URL")
)

// Not found errors
var (
	ErrToolNotFound         = NewDomainError(ErrCodeNotFound, "tool not found")
	ErrConversationNotFound = NewDomainError(ErrCodeNotFound, "conversation not found")
)

// Provider errors
var (
	ErrSearchProvider        = NewDomainError(ErrCodeProvider, "search provider failed")
	ErrEmbeddingProvider     = NewDomainError(ErrCodeProvider, "embedding provider failed")
	ErrWeatherProvider       = NewDomainError(ErrCodeProvider, "weather provider failed")
	ErrVisionProvider        = NewDomainError(ErrCodeProvider, "vision provider failed")
	ErrImageFetch            = NewDomainError(ErrCodeProvider, "image fetch failed")
	ErrProviderNotConfigured = NewDomainError(ErrCodeProvider, "provider not configured")
	ErrSearchInterrupted     = NewDomainError(ErrCodeProvider, "web search timed out or was cancelled")
)

// Internal errors
var (
	ErrDimensionMismatch = NewDomainError(ErrCodeInternalError, "embedding dimensions differ within one index")
)

// Wrap returns a copy of the sentinel carrying cause.
func Wrap(sentinel *DomainError, cause error) *DomainError {
	return NewDomainErrorWithCause(sentinel.Code, sentinel.Message, cause)
}

// PartialDataError reports fetches that were dropped from a result set. It is
// logged, never returned to callers.
type PartialDataError struct {
	Attempted int
	Failed    map[string]error
}

func (e *PartialDataError) Error() string {
	return fmt.Sprintf("[%s] %d of %d fetches failed", ErrCodePartialData, len(e.Failed), e.Attempted)
}

// CodeOf returns the domain code carried by err, or INTERNAL_ERROR.
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ErrCodeInternalError
}
