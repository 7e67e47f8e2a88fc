// Package errors provides structured error types for ductrouter.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the planner, CLI and API
//   - Machine-readable error codes for programmatic handling
//   - Per-terminal failure reporting without aborting a routing run
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Codes fall into three groups:
//   - Planner outcomes: INVALID_BOUNDS, OUT_OF_BOUNDS, NOT_FOUND, EXHAUSTED, TIMEOUT
//   - Contract violations: EMPTY_QUEUE, INTERNAL_ERROR
//   - Input validation: INVALID_INPUT, INVALID_SCENARIO, INVALID_FORMAT, ...
//
// NOT_FOUND, OUT_OF_BOUNDS and EXHAUSTED are expected outcomes that a caller
// records per terminal. INVALID_BOUNDS and EMPTY_QUEUE are raised at the call
// that triggers them and are never retried internally.
//
// # Usage
//
//	g, err := grid.New(min, max, 0)
//	if errors.Is(err, errors.ErrCodeInvalidBounds) {
//	    // degenerate grid
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeTimeout, ctx.Err(), "search aborted after %d expansions", n)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Planner outcomes
	ErrCodeInvalidBounds Code = "INVALID_BOUNDS"
	ErrCodeOutOfBounds   Code = "OUT_OF_BOUNDS"
	ErrCodeNotFound      Code = "NOT_FOUND"
	ErrCodeExhausted     Code = "EXHAUSTED"
	ErrCodeTimeout       Code = "TIMEOUT"

	// Contract violations
	ErrCodeEmptyQueue Code = "EMPTY_QUEUE"

	// Input validation errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidScenario Code = "INVALID_SCENARIO"
	ErrCodeInvalidFormat   Code = "INVALID_FORMAT"
	ErrCodeInvalidPath     Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeRunNotFound  Code = "RUN_NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
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
// Only the outermost *Error is consulted.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
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
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// Recoverable reports whether err is a per-terminal planner outcome that a
// routing run records and continues past.
func Recoverable(err error) bool {
	switch GetCode(err) {
	case ErrCodeNotFound, ErrCodeOutOfBounds, ErrCodeExhausted:
		return true
	}
	return false
}
