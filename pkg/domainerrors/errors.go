// Package domainerrors defines the coded error type shared across the
// service. Handlers translate codes to HTTP statuses; services attach codes
// so callers never have to string-match error text.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error for transport mapping and caller branching.
type Code string

const (
	// CodeInvalidInput marks a malformed payload (empty actions, mismatched
	// parallel arrays, out-of-range scores). The offending record is rejected;
	// nothing else is affected.
	CodeInvalidInput Code = "invalid_input"
	// CodeBadRequest marks an unusable request at the HTTP boundary.
	CodeBadRequest Code = "bad_request"
	// CodeNotFound marks a lookup miss.
	CodeNotFound Code = "not_found"
	// CodeConfiguration marks a missing or corrupt external configuration
	// source, such as the activity label file. Callers on the ingest path
	// degrade rather than fail.
	CodeConfiguration Code = "configuration"
	// CodeUnauthorized marks a failed admin-token check.
	CodeUnauthorized Code = "unauthorized"
	// CodeInternal is the fallback for unexpected failures.
	CodeInternal Code = "internal"
)

// Error is a coded error with an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a coded error without a cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, Err: err}
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

// CodeOf extracts the code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the human-readable message from err.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}

// ToHTTPStatus maps an error code to its HTTP response status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput, CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeConfiguration:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
