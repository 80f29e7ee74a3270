// Package errors provides custom error types for the costmap system.
// These errors enable programmatic error checking with errors.Is/As and
// carry enough context (endpoint, partition, storage key) for debugging
// without string matching.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is reports whether any error in err's chain matches target.
// It's an alias for the standard library errors.Is for convenience.
var Is = errors.Is

// As finds the first error in err's chain that matches target.
// It's an alias for the standard library errors.As for convenience.
var As = errors.As

// Common sentinel errors for the costmap system
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrTokenRequired indicates that an auth token is required but absent
	ErrTokenRequired = errors.New("auth token required")

	// ErrTokenInvalid indicates that the auth token was rejected by the server
	ErrTokenInvalid = errors.New("auth token invalid")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrConnectionClosed indicates that the push channel was closed
	ErrConnectionClosed = errors.New("connection closed")

	// ErrGaveUp indicates that reconnection attempts were exhausted
	ErrGaveUp = errors.New("reconnection attempts exhausted")

	// ErrDraftExpired indicates that a persisted draft exceeded its horizon
	ErrDraftExpired = errors.New("draft expired")

	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")
)

// APIError represents an error response from the estimates service
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
	Err        error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("API error from %s (status %d): %s", e.Endpoint, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error from %s: %s", e.Endpoint, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *APIError) Is(target error) bool {
	switch e.StatusCode {
	case 401, 403:
		return target == ErrTokenInvalid
	case 404:
		return target == ErrNotFound
	}
	return false
}

// NewAPIError creates a new APIError
func NewAPIError(endpoint string, statusCode int, message string) *APIError {
	return &APIError{
		Endpoint:   endpoint,
		StatusCode: statusCode,
		Message:    message,
	}
}

// TransportError represents a failure on the wire, before any server
// response could be interpreted (dial failure, dropped stream, bad frame).
type TransportError struct {
	Operation string // "dial", "read", "decode"
	Endpoint  string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *TransportError) Error() string {
	if e.Endpoint != "" {
		return fmt.Sprintf("transport error during %s of %s: %s", e.Operation, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("transport error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a new TransportError
func NewTransportError(operation, endpoint string, err error) *TransportError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &TransportError{
		Operation: operation,
		Endpoint:  endpoint,
		Message:   message,
		Err:       err,
	}
}

// StorageError represents a failure of the durable draft storage
type StorageError struct {
	Operation string // "put", "get", "delete", "open"
	Key       string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage error during %s of %q: %s", e.Operation, e.Key, e.Message)
	}
	return fmt.Sprintf("storage error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError creates a new StorageError
func NewStorageError(operation, key string, err error) *StorageError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &StorageError{
		Operation: operation,
		Key:       key,
		Message:   message,
		Err:       err,
	}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// ResourceError represents an error during CRUD resource operations
type ResourceError struct {
	Operation string // "create", "update", "delete", "fetch"
	Resource  string // "estimate", "project", "work", "user"
	ID        string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ResourceError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("failed to %s %s %s: %s", e.Operation, e.Resource, e.ID, e.Message)
	}
	return fmt.Sprintf("failed to %s %s: %s", e.Operation, e.Resource, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ResourceError) Unwrap() error {
	return e.Err
}

// NewResourceError creates a new ResourceError
func NewResourceError(operation, resource, id string, err error) *ResourceError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ResourceError{
		Operation: operation,
		Resource:  resource,
		ID:        id,
		Message:   message,
		Err:       err,
	}
}

// WrapResource wraps an error as a ResourceError
func WrapResource(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return NewResourceError(operation, resource, id, err)
}
