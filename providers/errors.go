package providers

import (
	"errors"
	"fmt"
)

// ErrorCode classifies provider and resolution failures.
type ErrorCode string

const (
	// Resolution and registry failures. These abort a run before any
	// paid call is made.
	ErrUnknownProvider       ErrorCode = "UNKNOWN_PROVIDER"
	ErrMissingCredential     ErrorCode = "MISSING_CREDENTIAL"
	ErrProviderModelMismatch ErrorCode = "PROVIDER_MODEL_MISMATCH"

	// Per-job generation failures. The orchestrator records these and
	// keeps going.
	ErrRateLimited       ErrorCode = "RATE_LIMITED"
	ErrContentPolicy     ErrorCode = "CONTENT_POLICY"
	ErrUpstream          ErrorCode = "UPSTREAM_ERROR"
	ErrMalformedResponse ErrorCode = "MALFORMED_RESPONSE"
	ErrInvalidRequest    ErrorCode = "INVALID_REQUEST"
)

// Error is a structured provider error carrying a code for
// classification and the originating provider name.
type Error struct {
	Code     ErrorCode
	Provider string
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Provider != "" {
		msg = fmt.Sprintf("%s: %s", e.Provider, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, msg)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code, provider and message.
func NewError(code ErrorCode, provider, message string) *Error {
	return &Error{Code: code, Provider: provider, Message: message}
}

// WithCause attaches the underlying error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// CodeOf extracts the ErrorCode from err, or ErrUpstream when err is
// not a providers.Error.
func CodeOf(err error) ErrorCode {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ErrUpstream
}

// IsRateLimited reports whether err is a rate-limit failure.
func IsRateLimited(err error) bool {
	return CodeOf(err) == ErrRateLimited
}
