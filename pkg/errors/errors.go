// Package errors provides custom error types for the grafsync system.
// These errors enable programmatic error checking, keep the expected
// status-code branches of the two APIs distinguishable from real failures,
// and improve debugging throughout the application.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// As is an alias for the standard library errors.As.
var As = errors.As

// Common sentinel errors for the grafsync system
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates that a resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrIntegrity indicates that a post-condition check on a logically
	// successful API call failed (e.g. a token scoped to the wrong org)
	ErrIntegrity = errors.New("integrity violation")
)

// APIError represents an error returned by the provider or Grafana API.
type APIError struct {
	System     string // "provider" or "grafana"
	StatusCode int
	Endpoint   string
	Message    string
	Err        error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s API error (status %d) on %s: %s", e.System, e.StatusCode, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("%s API error on %s: %s", e.System, e.Endpoint, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support. The expected non-error branches of
// the sync are modeled as status codes: 404 on metric settings, 409 on
// data-source create, 412 on user create.
func (e *APIError) Is(target error) bool {
	switch e.StatusCode {
	case 404:
		return target == ErrNotFound
	case 409, 412:
		return target == ErrAlreadyExists
	}
	return false
}

// NewAPIError creates a new APIError
func NewAPIError(system string, statusCode int, endpoint, message string) *APIError {
	return &APIError{
		System:     system,
		StatusCode: statusCode,
		Endpoint:   endpoint,
		Message:    message,
	}
}

// IntegrityError represents a violated post-condition: an API call
// succeeded but its result is scoped to the wrong organization.
// Always fatal, never retried.
type IntegrityError struct {
	Resource string // "api token", "datasource"
	OrgID    int64  // organization the resource actually landed in
	WantID   int64  // organization the resource was intended for
}

// Error implements the error interface
func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s assigned to wrong organization %d, should be %d", e.Resource, e.OrgID, e.WantID)
}

// Is implements errors.Is support
func (e *IntegrityError) Is(target error) bool {
	return target == ErrIntegrity
}

// NewIntegrityError creates a new IntegrityError
func NewIntegrityError(resource string, orgID, wantID int64) *IntegrityError {
	return &IntegrityError{Resource: resource, OrgID: orgID, WantID: wantID}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Key     string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("configuration error for %s: %s", e.Key, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(key, message string, err error) *ConfigError {
	return &ConfigError{Key: key, Message: message, Err: err}
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "json"
	File    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ParseError) Is(target error) bool {
	return target == ErrInvalidInput
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "open"
	Path      string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	return fmt.Sprintf("IO error during %s of %s: %v", e.Operation, e.Path, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsIntegrity checks if an error is an integrity violation
func IsIntegrity(err error) bool {
	return errors.Is(err, ErrIntegrity)
}

// Helper wrapping functions for common patterns

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Operation: operation, Path: path, Err: err}
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return &ParseError{Format: format, File: file, Message: err.Error(), Err: err}
}
