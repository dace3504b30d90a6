// Package utils holds the error taxonomy shared by the service and HTTP
// layers. Each error type maps to one failure class in the response envelope.
package utils

import "fmt"

// DataQueryError represents a storage or query failure. The original cause
// is retained for error chains; no retry is attempted anywhere.
type DataQueryError struct {
	Op      string
	Message string
	Err     error
}

func (e *DataQueryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *DataQueryError) Unwrap() error { return e.Err }

// NewDataQueryError wraps a backing-store error with the operation that failed.
func NewDataQueryError(op, message string, err error) error {
	return &DataQueryError{Op: op, Message: message, Err: err}
}

// ValidationError represents a malformed request parameter, such as an
// unparseable date or mismatched chart input lengths.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NewValidationError creates a new ValidationError with a specific message.
func NewValidationError(message string) error {
	return &ValidationError{Message: message}
}

// NewValidationErrorf creates a new ValidationError with a formatted message.
func NewValidationErrorf(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ModelUnavailableError means the persisted regression model artifact is
// missing or corrupted. Low-level deserialization errors never escape past it.
type ModelUnavailableError struct {
	Path string
	Err  error
}

func (e *ModelUnavailableError) Error() string {
	return fmt.Sprintf("regression model unavailable (%s): %v", e.Path, e.Err)
}

func (e *ModelUnavailableError) Unwrap() error { return e.Err }

// NewModelUnavailableError wraps an artifact load failure.
func NewModelUnavailableError(path string, err error) error {
	return &ModelUnavailableError{Path: path, Err: err}
}

// CredentialConflictError indicates a duplicate username or email at
// registration or update time.
type CredentialConflictError struct {
	Field string
}

func (e *CredentialConflictError) Error() string {
	return fmt.Sprintf("%s already in use", e.Field)
}

// NewCredentialConflictError reports which credential field collided.
func NewCredentialConflictError(field string) error {
	return &CredentialConflictError{Field: field}
}

// AuthenticationError indicates bad credentials. The message is safe to
// return to clients and never states which part of the credential failed.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string { return e.Message }

// NewAuthenticationError creates a new AuthenticationError.
func NewAuthenticationError(message string) error {
	return &AuthenticationError{Message: message}
}
