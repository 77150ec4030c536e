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

// Is matches DomainErrors by code so wrapped copies compare equal to
// the sentinel values below
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{Code: code, Message: message, Err: err}
}

// Common domain error codes
const (
	ErrCodeInvalidInput         = "INVALID_INPUT"
	ErrCodeProvider             = "PROVIDER_ERROR"
	ErrCodeIndexUnavailable     = "INDEX_UNAVAILABLE"
	ErrCodeRetrievalUnavailable = "RETRIEVAL_UNAVAILABLE"
	ErrCodeTimeout              = "TIMEOUT"
	ErrCodeNotFound             = "NOT_FOUND"
	ErrCodeInternalError        = "INTERNAL_ERROR"
)

// Input errors: rejected before any processing cost is incurred
var (
	ErrEmptyRequest = NewDomainError(ErrCodeInvalidInput, "request text is empty")
	ErrMissingUser  = NewDomainError(ErrCodeInvalidInput, "user id is required")
)

// Provider errors: always absorbed at the stage boundary and converted
// to that stage's fallback
var (
	ErrProvider        = NewDomainError(ErrCodeProvider, "llm provider call failed")
	ErrEmbeddingFailed = NewDomainError(ErrCodeProvider, "embedding provider call failed")
)

// Retrieval errors
var (
	ErrIndexUnavailable     = NewDomainError(ErrCodeIndexUnavailable, "vector index not built")
	ErrRetrievalUnavailable = NewDomainError(ErrCodeRetrievalUnavailable, "all retrieval tiers failed")
)
