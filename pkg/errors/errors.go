// Package errors defines the error codes and structured error type shared by
// the resolver, the CLI and the HTTP API.
//
// Errors carry a machine-readable [Code] next to the human-readable message,
// so callers branch on codes instead of matching message text:
//
//	err := errors.New(errors.ErrCodeInvalidRequirement, "invalid requirement: %s", raw)
//	if errors.Is(err, errors.ErrCodeInvalidRequirement) {
//	    // report it as unparsed instead of failing the run
//	}
//
// Wrapping keeps the cause chain intact for the standard library's errors.As:
//
//	return errors.Wrap(errors.ErrCodeNetwork, err, "fetch %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code identifies an error category. Codes are stable strings; the API
// serializes them verbatim, so renaming one is a breaking change.
type Code string

const (
	// Input validation
	ErrCodeInvalidInput         Code = "INVALID_INPUT"
	ErrCodeInvalidRequirement   Code = "INVALID_REQUIREMENT"
	ErrCodeInvalidPackage       Code = "INVALID_PACKAGE"
	ErrCodeInvalidPythonVersion Code = "INVALID_PYTHON_VERSION"
	ErrCodeInvalidFormat        Code = "INVALID_FORMAT"
	ErrCodeInvalidManifest      Code = "INVALID_MANIFEST"
	ErrCodeInvalidIndex         Code = "INVALID_INDEX"

	// Missing resources
	ErrCodeNotFound         Code = "NOT_FOUND"
	ErrCodePackageNotFound  Code = "PACKAGE_NOT_FOUND"
	ErrCodeFileNotFound     Code = "FILE_NOT_FOUND"
	ErrCodeDocumentNotFound Code = "DOCUMENT_NOT_FOUND"

	// Index traffic
	ErrCodeNetwork     Code = "NETWORK_ERROR"
	ErrCodeTimeout     Code = "TIMEOUT"
	ErrCodeRateLimited Code = "RATE_LIMITED"

	// Virtualenv and subprocess failures
	ErrCodeEnvironment Code = "ENVIRONMENT_ERROR"
	ErrCodeCommand     Code = "COMMAND_ERROR"

	// Document storage
	ErrCodeStore Code = "STORE_ERROR"

	// Everything else
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error pairs a Code with a message and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return string(e.Code) + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New builds an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error around a cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether somewhere in err's chain there is an *Error carrying
// code.
func Is(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// GetCode returns the code of the first *Error in err's chain, or the empty
// Code when there is none.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the message of err without its code prefix. Plain
// errors come back unchanged.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// RateLimitedError reports an index telling us to slow down, with the
// Retry-After value when the response carried one.
type RateLimitedError struct {
	RetryAfter int // seconds
	Message    string
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited: retry after %d seconds", e.RetryAfter)
	}
	return "rate limited"
}

// Code returns ErrCodeRateLimited.
func (e *RateLimitedError) Code() Code {
	return ErrCodeRateLimited
}
