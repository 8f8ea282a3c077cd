package domain

import (
	"errors"
	"fmt"
)

// Code classifies an error for transport mapping and retry policy.
type Code string

const (
	// CodeInvalidArgument: malformed or missing input, never retried.
	CodeInvalidArgument Code = "invalid_argument"
	// CodeUnauthenticated: missing or invalid caller identity.
	CodeUnauthenticated Code = "unauthenticated"
	// CodeNotFound: referenced entity does not exist.
	CodeNotFound Code = "not_found"
	// CodeFailedPrecondition: entity exists but is in the wrong state.
	CodeFailedPrecondition Code = "failed_precondition"
	// CodeResourceExhausted: rate limit exceeded, caller should back off.
	CodeResourceExhausted Code = "resource_exhausted"
	// CodeInternal: unexpected failure; detail stays server-side.
	CodeInternal Code = "internal"
)

// Error is a coded error. The message is safe to return to callers for
// every code except CodeInternal.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// E builds a coded error.
func E(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a coded error.
func Wrap(code Code, cause error, message string) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// CodeOf extracts the code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
