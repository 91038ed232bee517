// Package domainerrors carries typed error codes from services to transports.
//
// Stores and infrastructure return pkg/platform/sentinel errors; services
// translate those facts into coded domain errors, and the HTTP layer maps
// codes onto status codes without inspecting error strings.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error for callers and transports.
type Code string

const (
	// CodeInvalidInput marks malformed input the caller can correct.
	CodeInvalidInput Code = "invalid_input"
	// CodeNotFound marks a missing entity.
	CodeNotFound Code = "not_found"
	// CodeConflict marks a uniqueness or concurrency conflict.
	CodeConflict Code = "conflict"
	// CodeInvalidState marks an operation attempted in the wrong lifecycle state.
	CodeInvalidState Code = "invalid_state"
	// CodeInsufficientEvidence marks a fusion attempt with zero backend responses.
	CodeInsufficientEvidence Code = "insufficient_evidence"
	// CodeAlreadyCertified marks a second certificate issuance for a claim.
	CodeAlreadyCertified Code = "already_certified"
	// CodeAlreadySettled marks a second settlement for a claim.
	CodeAlreadySettled Code = "already_settled"
	// CodeUnsettledClaim marks a settlement whose preconditions are unmet.
	CodeUnsettledClaim Code = "unsettled_claim"
	// CodeInvariantViolation marks a broken domain invariant.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeUnauthorized marks missing or invalid credentials.
	CodeUnauthorized Code = "unauthorized"
	// CodeInternal marks unexpected failures.
	CodeInternal Code = "internal"
)

// Error is a coded domain error. It may wrap an underlying cause.
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

// New constructs a coded error.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf constructs a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error. A nil cause
// yields nil so call sites can wrap unconditionally.
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

// CodeOf returns the code carried by err, or CodeInternal when err carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf returns the caller-safe message carried by err. Uncoded errors
// collapse to a generic message so internals never leak through transports.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}

// ToHTTPStatus maps a code onto an HTTP status for the shared error writer.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput, CodeInvariantViolation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeAlreadyCertified, CodeAlreadySettled, CodeInvalidState, CodeUnsettledClaim:
		return http.StatusConflict
	case CodeInsufficientEvidence:
		return http.StatusUnprocessableEntity
	case CodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
