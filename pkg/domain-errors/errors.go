// Package domainerrors defines the typed error vocabulary shared by services
// and transports. Services attach a Code to every error they return; the HTTP
// layer maps codes to status responses without inspecting error strings.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error for callers and for transport mapping.
type Code string

const (
	// CodeNotFound signals an unknown entity reference.
	CodeNotFound Code = "not_found"
	// CodeInvalidTransition signals an action that is not legal for the
	// entity's current status.
	CodeInvalidTransition Code = "invalid_transition"
	// CodeEmptyReason signals a mutating call without the mandatory
	// justification text.
	CodeEmptyReason Code = "empty_reason"
	// CodeStaleState signals a concurrent modification: the entity changed
	// between read and write. Callers should re-fetch and decide whether to
	// retry; the core never retries on its own.
	CodeStaleState Code = "stale_state"
	// CodeSelfLink signals an attempt to link an entity to itself.
	CodeSelfLink Code = "self_link_rejected"
	// CodeStorageUnavailable signals an entity or audit persistence failure.
	// Never swallowed: audit durability is a correctness requirement.
	CodeStorageUnavailable Code = "storage_unavailable"
	// CodeBadRequest signals malformed or missing input.
	CodeBadRequest Code = "bad_request"
	// CodeConflict signals a uniqueness or lifecycle conflict.
	CodeConflict Code = "conflict"
	// CodeInternal signals an unexpected failure.
	CodeInternal Code = "internal"
)

// Error carries a code, a human-readable message, and an optional cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a domain error with the given code and message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf builds a domain error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error, preserving the
// cause for errors.Is / errors.As.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a domain error code to the HTTP status the transport
// layer should respond with.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidTransition, CodeConflict, CodeStaleState:
		return http.StatusConflict
	case CodeEmptyReason, CodeSelfLink, CodeBadRequest:
		return http.StatusBadRequest
	case CodeStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
