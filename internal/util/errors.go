package util

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Exception kinds a task can fail with
var (
	// ErrBadRequest indicates malformed input
	ErrBadRequest = errors.New("bad request")

	// ErrUnauthorized indicates missing or invalid credentials
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates insufficient permissions
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound indicates a missing resource
	ErrNotFound = errors.New("not found")

	// ErrMethodNotAllowed indicates an unsupported operation
	ErrMethodNotAllowed = errors.New("method not allowed")

	// ErrConflict indicates a conflicting state
	ErrConflict = errors.New("conflict")

	// ErrTooManyRequests indicates the caller is being throttled
	ErrTooManyRequests = errors.New("too many requests")

	// ErrInvalidConfig indicates a configuration error
	ErrInvalidConfig = errors.New("invalid configuration")
)

// exceptionKinds maps kind names to their sentinel and HTTP status
var exceptionKinds = map[string]struct {
	err    error
	status int
}{
	"bad-request":        {ErrBadRequest, http.StatusBadRequest},
	"unauthorized":       {ErrUnauthorized, http.StatusUnauthorized},
	"forbidden":          {ErrForbidden, http.StatusForbidden},
	"not-found":          {ErrNotFound, http.StatusNotFound},
	"method-not-allowed": {ErrMethodNotAllowed, http.StatusMethodNotAllowed},
	"conflict":           {ErrConflict, http.StatusConflict},
	"too-many-requests":  {ErrTooManyRequests, http.StatusTooManyRequests},
}

// ExceptionKinds returns the known kind names
func ExceptionKinds() []string {
	return []string{
		"bad-request", "unauthorized", "forbidden", "not-found",
		"method-not-allowed", "conflict", "too-many-requests",
	}
}

// StatusError is an exception carrying an HTTP status and optional details
type StatusError struct {
	Status  int
	Err     error
	Details any
}

// Error implements the error interface
func (e *StatusError) Error() string {
	if e.Details != nil {
		return fmt.Sprintf("%d %v: %v", e.Status, e.Err, e.Details)
	}
	return fmt.Sprintf("%d %v", e.Status, e.Err)
}

// Unwrap returns the wrapped error for errors.Is/As compatibility
func (e *StatusError) Unwrap() error {
	return e.Err
}

// ExceptionFor builds the exception for kind with the given details
// An empty kind defaults to bad-request
func ExceptionFor(kind string, details any) (*StatusError, error) {
	if kind == "" {
		kind = "bad-request"
	}
	k, ok := exceptionKinds[strings.ToLower(kind)]
	if !ok {
		return nil, NewValidationError("kind", kind, "unknown exception kind, expected one of "+strings.Join(ExceptionKinds(), ", "))
	}
	return &StatusError{Status: k.status, Err: k.err, Details: details}, nil
}

// StatusOf returns the HTTP status of err, or 0 when it carries none
func StatusOf(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}

// MultiError aggregates multiple errors
type MultiError struct {
	Errors []error
}

// Error implements the error interface
func (m *MultiError) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d errors occurred:", len(m.Errors)))
	for i, err := range m.Errors {
		if i < 10 { // Limit to first 10 errors in the message
			sb.WriteString(fmt.Sprintf("\n  %d. %v", i+1, err))
		} else if i == 10 {
			sb.WriteString(fmt.Sprintf("\n  ... and %d more errors", len(m.Errors)-10))
			break
		}
	}
	return sb.String()
}

// Unwrap returns the errors for errors.Is/As compatibility
func (m *MultiError) Unwrap() []error {
	return m.Errors
}

// Add adds an error to the multi-error
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// ErrorOrNil returns nil if no errors were added, otherwise returns the MultiError
func (m *MultiError) ErrorOrNil() error {
	if len(m.Errors) == 0 {
		return nil
	}
	return m
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	if v.Value != nil {
		return fmt.Sprintf("validation failed for field %q (value: %v): %s", v.Field, v.Value, v.Message)
	}
	return fmt.Sprintf("validation failed for field %q: %s", v.Field, v.Message)
}

// Unwrap makes every validation failure match ErrInvalidConfig
func (v *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}

// NewValidationError creates a new validation error
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// WrapErrorf wraps an error with a formatted message
func WrapErrorf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// FriendlyError converts technical errors to user-friendly messages
func FriendlyError(err error) string {
	if err == nil {
		return ""
	}

	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return fmt.Sprintf("Invalid value for %s: %s.", ve.Field, ve.Message)
	case errors.Is(err, ErrInvalidConfig):
		return "Invalid configuration. Please check your config file and command-line flags."
	case errors.Is(err, ErrTooManyRequests):
		return "Too many requests. Lower --rate or --concurrency and try again."
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrForbidden):
		return "Permission denied: " + err.Error()
	default:
		return err.Error()
	}
}
