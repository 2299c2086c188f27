// Package apperror defines the closed set of error kinds services return
// and that the HTTP layer maps to status codes.
package apperror

import (
	"context"
	"errors"
	"net/http"
)

type Kind string

const (
	KindValidation  Kind = "VALIDATION_ERROR"
	KindAuth        Kind = "AUTH_ERROR"
	KindForbidden   Kind = "FORBIDDEN"
	KindNotFound    Kind = "NOT_FOUND"
	KindConflict    Kind = "CONFLICT"
	KindUnavailable Kind = "UNAVAILABLE"
	KindInternal    Kind = "INTERNAL_ERROR"
)

// Error carries a kind, a client-safe message and optionally the cause.
type Error struct {
	Kind      Kind
	Message   string
	Retryable bool
	Err       error

	origin *Error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether e was produced by target.Wrap.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.origin != nil && e.origin == t
}

// Wrap returns a copy of e with cause attached. errors.Is(result, e) holds.
func (e *Error) Wrap(cause error) error {
	return &Error{Kind: e.Kind, Message: e.Message, Retryable: e.Retryable, Err: cause, origin: e}
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Validation(message string) *Error { return New(KindValidation, message) }
func Auth(message string) *Error       { return New(KindAuth, message) }
func Forbidden(message string) *Error  { return New(KindForbidden, message) }
func NotFound(message string) *Error   { return New(KindNotFound, message) }
func Conflict(message string) *Error   { return New(KindConflict, message) }

func Unavailable(message string, cause error) *Error {
	return &Error{Kind: KindUnavailable, Message: message, Retryable: true, Err: cause}
}

func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Message: "Internal server error", Err: cause}
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf classifies err. Deadline expiry is Unavailable; anything
// unclassified is Internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	if e, ok := As(err); ok {
		return e.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindUnavailable
	}
	return KindInternal
}

func IsRetryable(err error) bool {
	if e, ok := As(err); ok {
		return e.Retryable
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func StatusCode(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the text a client may see for err.
func PublicMessage(err error) string {
	switch kind := KindOf(err); kind {
	case KindInternal:
		return "Internal server error"
	default:
		if e, ok := As(err); ok {
			return e.Message
		}
		return "Service temporarily unavailable"
	}
}
