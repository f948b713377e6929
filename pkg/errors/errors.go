// Package errors provides structured error types for Superviolin.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the pipeline and the web server
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Collection of recoverable numeric problems next to fatal ones
//
// # Error Codes
//
// Error codes fall into two families:
//   - Configuration errors (INVALID_*, MISSING_COLUMN) are fatal and reported
//     before any computation starts.
//   - Numeric errors (INSUFFICIENT_DATA, DENSITY_FIT, DEGENERATE_DOMAIN,
//     NORMALIZATION, STATISTICAL_TEST) are recovered locally by the component
//     that hits them and surface as warnings.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidConfig, "unknown error bar mode: %s", mode)
//	if errors.Is(err, errors.ErrCodeInvalidConfig) {
//	    // Handle configuration error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidInput, origErr, "read %s", path)
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Configuration errors (fatal)
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidConfig  Code = "INVALID_CONFIG"
	ErrCodeInvalidFormat  Code = "INVALID_FORMAT"
	ErrCodeInvalidPath    Code = "INVALID_PATH"
	ErrCodeMissingColumn  Code = "MISSING_COLUMN"
	ErrCodeFileNotFound   Code = "FILE_NOT_FOUND"
	ErrCodeUnsupported    Code = "UNSUPPORTED"
	ErrCodeInputTooLarge  Code = "INPUT_TOO_LARGE"
	ErrCodeNotEnoughColor Code = "NOT_ENOUGH_COLOURS"

	// Numeric errors (recoverable)
	ErrCodeInsufficientData Code = "INSUFFICIENT_DATA"
	ErrCodeDensityFit       Code = "DENSITY_FIT"
	ErrCodeDegenerateDomain Code = "DEGENERATE_DOMAIN"
	ErrCodeNormalization    Code = "NORMALIZATION"
	ErrCodeStatisticalTest  Code = "STATISTICAL_TEST"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	var m *MissingColumnsError
	if errors.As(err, &m) {
		return code == ErrCodeMissingColumn
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var m *MissingColumnsError
	if errors.As(err, &m) {
		return ErrCodeMissingColumn
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var m *MissingColumnsError
	if errors.As(err, &m) {
		return m.Message()
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsRecoverable reports whether err carries one of the numeric codes that
// components recover from locally.
func IsRecoverable(err error) bool {
	switch GetCode(err) {
	case ErrCodeInsufficientData, ErrCodeDensityFit, ErrCodeDegenerateDomain,
		ErrCodeNormalization, ErrCodeStatisticalTest:
		return true
	}
	return false
}

// MissingColumnsError lists every required column absent from a table.
type MissingColumnsError struct {
	Columns []string
}

// Message returns the user-facing text without the code prefix.
func (e *MissingColumnsError) Message() string {
	if len(e.Columns) == 1 {
		return "Variable not found: " + e.Columns[0]
	}
	return "Missing variables: " + strings.Join(e.Columns, ", ")
}

// Error implements the error interface.
func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCodeMissingColumn, e.Message())
}

// Problems is an ordered list of errors collected during a run.
// Duplicate messages are dropped. The zero value is ready to use.
type Problems struct {
	items []error
	seen  map[string]bool
}

// Add appends err unless it is nil or an identical message was already added.
func (p *Problems) Add(err error) {
	if err == nil {
		return
	}
	if p.seen == nil {
		p.seen = make(map[string]bool)
	}
	msg := err.Error()
	if p.seen[msg] {
		return
	}
	p.seen[msg] = true
	p.items = append(p.items, err)
}

// Len returns the number of collected problems.
func (p *Problems) Len() int { return len(p.items) }

// All returns the collected problems in insertion order.
func (p *Problems) All() []error {
	out := make([]error, len(p.items))
	copy(out, p.items)
	return out
}

// Err joins the problems into a single error, or returns nil when empty.
func (p *Problems) Err() error {
	if len(p.items) == 0 {
		return nil
	}
	return errors.Join(p.items...)
}
