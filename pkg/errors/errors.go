// Package errors provides structured error types for the tracevec pipeline.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and HTTP API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - FORMAT_*: container-level failures detected before any pixel work
//   - DECODE_*: failures inside the compressed or entropy-coded stream
//   - INVALID_*: input and configuration validation failures
//   - INTERNAL_*: unexpected internal errors
//
// The two decode families are deliberately distinct: FORMAT_* errors are
// always fatal, while DECODE_* errors may accompany a partially decoded
// image (JPEG only — see the imaging package).
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidConfig, "threshold must be non-negative, got %d", t)
//	if errors.Is(err, errors.ErrCodeInvalidConfig) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeDecodeCorrupt, origErr, "inflate IDAT stream")
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Container format errors, raised before pixel work begins
	ErrCodeFormatSignature   Code = "FORMAT_SIGNATURE"
	ErrCodeFormatInterlaced  Code = "FORMAT_INTERLACED"
	ErrCodeFormatProgressive Code = "FORMAT_PROGRESSIVE"
	ErrCodeFormatUnsupported Code = "FORMAT_UNSUPPORTED"

	// Compressed / entropy stream errors
	ErrCodeDecodeTruncated Code = "DECODE_TRUNCATED"
	ErrCodeDecodeCorrupt   Code = "DECODE_CORRUPT"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"

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
	return false
}

// IsFormat reports whether err belongs to the FORMAT_* family.
// Format errors are always fatal and never carry partial pixel data.
func IsFormat(err error) bool {
	switch GetCode(err) {
	case ErrCodeFormatSignature, ErrCodeFormatInterlaced, ErrCodeFormatProgressive, ErrCodeFormatUnsupported:
		return true
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
