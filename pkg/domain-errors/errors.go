// Package errors provides coded domain errors shared across services.
//
// Services return these so transports can translate them into consistent
// responses without inspecting error strings. Stores return infrastructure
// sentinels (pkg/platform/sentinel) instead; services translate at the
// boundary.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error for transport mapping and retry decisions.
type Code string

const (
	// CodeValidation covers malformed or inconsistent input. Rejected before
	// any write occurs; never retryable without changing the request.
	CodeValidation Code = "validation"

	// CodeInvalidInput is a narrower validation code used by domain
	// primitives at parse boundaries (IDs, codes, levels).
	CodeInvalidInput Code = "invalid_input"

	// CodeBadRequest covers requests the transport layer could not interpret.
	CodeBadRequest Code = "bad_request"

	// CodeNotFound signals the referenced entity does not exist.
	CodeNotFound Code = "not_found"

	// CodeConflict signals the operation lost to concurrent or prior state
	// (duplicate issuance, lost assignment race). Aborts cleanly, no partial
	// state.
	CodeConflict Code = "conflict"

	// CodeCapacity signals a constrained resource had no eligible slot
	// (no evaluator with free capacity). Reported, never auto-retried.
	CodeCapacity Code = "capacity"

	// CodeInvariantViolation is a contract error: the caller requested a
	// transition or mutation the entity's state does not permit. These are
	// programming errors, fatal to the operation, never coerced.
	CodeInvariantViolation Code = "invariant_violation"

	// CodeForbidden signals the actor lacks the capability for the operation.
	CodeForbidden Code = "forbidden"

	// CodeTimeout signals a transaction or operation exceeded its deadline.
	CodeTimeout Code = "timeout"

	// CodeInternal is the catch-all for unexpected infrastructure failures.
	CodeInternal Code = "internal"
)

// Error is a coded domain error. It optionally wraps an underlying cause.
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

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error without an underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error. A nil err returns
// nil so call sites can wrap unconditionally.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is an alias of HasCode kept for readability at assertion sites.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf extracts the code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to its HTTP response status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeInvalidInput, CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeInvariantViolation:
		return http.StatusConflict
	case CodeCapacity:
		return http.StatusUnprocessableEntity
	case CodeForbidden:
		return http.StatusForbidden
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
