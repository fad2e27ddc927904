// Package errors provides structured errors carrying a numeric ErrorCode.
//
// Code ranges:
//   - 1-99: unknown and general errors
//   - 100-199: validation and configuration errors
//   - 200-299: missing data, settings and instruments
//   - 400-499: strategy construction and runtime errors
//   - 500-599: order placement and trading provider errors
//   - 600-699: live engine lifecycle errors
//   - 700-799: market data download and streaming errors
//   - 800-899: callback failures
//
// Usage:
//
//	err := errors.Newf(errors.ErrCodeInvalidConfiguration, "fast window %d must be below slow window %d", fast, slow)
//	if errors.HasCode(err, errors.ErrCodeInvalidConfiguration) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error is a coded error with an optional cause.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Newf creates a new Error with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap attaches a code and message to an existing error.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return Wrap(code, fmt.Sprintf(format, args...), cause)
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is forwards to the standard library so callers only import this package.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As forwards to the standard library so callers only import this package.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode returns the code of the first *Error in the chain, or ErrCodeUnknown.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrCodeUnknown
}

// HasCode reports whether the first *Error in the chain carries code.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// IsOrderError reports whether err came from a failed order placement.
func IsOrderError(err error) bool {
	return HasCode(err, ErrCodeOrderFailed)
}
