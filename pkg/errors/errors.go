// Package errors provides structured error types for the magpress application.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow the pipeline's error taxonomy:
//   - INVALID_*: Input validation failures, rejected before any rendering work
//   - RESOURCE_*: Degradable resource failures (image fetch, font load)
//   - PAGE_*: Per-page fatal errors (missing page source)
//   - ASSEMBLY_*: Whole-job fatal errors (encoder, document writer)
//   - PUBLISH_*: Storage upload failures
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "photo slots must be >= 0, got %d", n)
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeResourceFetch, origErr, "fetch image %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidLayout   Code = "INVALID_LAYOUT"
	ErrCodeInvalidKind     Code = "INVALID_KIND"
	ErrCodeInvalidScale    Code = "INVALID_SCALE"
	ErrCodeInvalidPageList Code = "INVALID_PAGE_LIST"

	// Resource errors (degrade to a blank slot, never abort the page)
	ErrCodeResourceFetch  Code = "RESOURCE_FETCH"
	ErrCodeResourceDecode Code = "RESOURCE_DECODE"
	ErrCodeFontLoad       Code = "FONT_LOAD"

	// Page errors (fatal for that page)
	ErrCodePageMissing Code = "PAGE_MISSING"

	// Assembly errors (fatal for the whole job)
	ErrCodeAssembly Code = "ASSEMBLY_FAILED"
	ErrCodeEncoder  Code = "ENCODER_FAILED"

	// Publish errors
	ErrCodePublish   Code = "PUBLISH_FAILED"
	ErrCodeKeyExists Code = "KEY_EXISTS"

	// Resource not found
	ErrCodeNotFound Code = "NOT_FOUND"

	// Network errors
	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

	// Authentication errors
	ErrCodeUnauthorized   Code = "UNAUTHORIZED"
	ErrCodeSessionExpired Code = "SESSION_EXPIRED"

	// Internal errors
	ErrCodeInternal  Code = "INTERNAL_ERROR"
	ErrCodeCancelled Code = "CANCELLED"
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

// IsValidation reports whether err belongs to the validation category,
// meaning the request was rejected before any rendering work began.
func IsValidation(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidLayout, ErrCodeInvalidKind,
		ErrCodeInvalidScale, ErrCodeInvalidPageList:
		return true
	}
	return false
}
