package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a domain error for the HTTP boundary
type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindGone
	KindConflict
	KindUpstream
)

// Error is the single error currency crossing domain layers.
// Upstream errors carry the third-party code untouched.
type Error struct {
	Kind    Kind
	Message string
	Code    string // platform error code for Upstream errors
	Err     error
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (code: %s)", e.Message, e.Code)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// BadRequest creates a validation / precondition error
func BadRequest(msg string) *Error { return &Error{Kind: KindBadRequest, Message: msg} }

// Unauthorized creates a missing/invalid credential error
func Unauthorized(msg string) *Error { return &Error{Kind: KindUnauthorized, Message: msg} }

// Forbidden creates a permission error
func Forbidden(msg string) *Error { return &Error{Kind: KindForbidden, Message: msg} }

// NotFound creates an absent-or-invisible entity error
func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, Message: msg} }

// Gone creates a revoked/expired share link error
func Gone(msg string) *Error { return &Error{Kind: KindGone, Message: msg} }

// Conflict creates a uniqueness violation error
func Conflict(msg string) *Error { return &Error{Kind: KindConflict, Message: msg} }

// Upstream creates an error preserving the platform's code and message
func Upstream(code, msg string) *Error {
	return &Error{Kind: KindUpstream, Message: msg, Code: code}
}

// Internal wraps an unexpected error
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal server error", Err: err}
}

// From extracts an *Error from err, normalizing unknown errors to internal
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal(err)
}

// HTTPStatus maps an error kind to its HTTP status code
func (k Kind) HTTPStatus() int {
	switch k {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindGone:
		return http.StatusGone
	case KindConflict:
		return http.StatusConflict
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Label returns the taxonomy name used in response bodies
func (k Kind) Label() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindGone:
		return "gone"
	case KindConflict:
		return "conflict"
	case KindUpstream:
		return "upstream_error"
	default:
		return "internal"
	}
}
