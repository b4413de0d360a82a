// Package apperr defines the error taxonomy surfaced by the admission
// pipeline and the HTTP layer.
//
// Every error that leaves the pipeline is an *Error carrying a Kind. The
// HTTP layer maps the Kind to a status code; nothing else inspects messages.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Kind classifies an error by how the caller should react to it.
type Kind string

const (
	KindAuthorizationDenied Kind = "AUTHORIZATION_DENIED"
	KindRateLimited         Kind = "RATE_LIMITED"
	KindNotFound            Kind = "NOT_FOUND"
	KindValidationFailed    Kind = "VALIDATION_FAILED"
	KindUpstreamFailure     Kind = "UPSTREAM_FAILURE"
	KindMethodNotAllowed    Kind = "METHOD_NOT_ALLOWED"
	KindInternal            Kind = "INTERNAL"
)

// Sentinels for errors.Is. An *Error matches the sentinel of its Kind.
var (
	ErrAuthorizationDenied = &Error{Kind: KindAuthorizationDenied}
	ErrRateLimited         = &Error{Kind: KindRateLimited}
	ErrNotFound            = &Error{Kind: KindNotFound}
	ErrValidationFailed    = &Error{Kind: KindValidationFailed}
	ErrUpstreamFailure     = &Error{Kind: KindUpstreamFailure}
)

// Error is a classified application error.
type Error struct {
	Kind       Kind
	Message    string
	Reason     string        // machine-readable detail, e.g. "blackout_window"
	RetryAfter time.Duration // only meaningful for KindRateLimited
	Fields     map[string]string
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Status returns the HTTP status code for the error kind.
func (e *Error) Status() int {
	return StatusFromKind(e.Kind)
}

// StatusFromKind resolves the HTTP status code for a kind.
func StatusFromKind(kind Kind) int {
	switch kind {
	case KindAuthorizationDenied:
		return http.StatusForbidden
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindNotFound:
		return http.StatusNotFound
	case KindValidationFailed:
		return http.StatusBadRequest
	case KindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case KindUpstreamFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func Denied(message string) *Error {
	return &Error{Kind: KindAuthorizationDenied, Message: message}
}

func RateLimited(reason string, retryAfter time.Duration) *Error {
	return &Error{
		Kind:       KindRateLimited,
		Message:    "request was throttled",
		Reason:     reason,
		RetryAfter: retryAfter,
	}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Validation(message string) *Error {
	return &Error{Kind: KindValidationFailed, Message: message}
}

// ValidationField returns a validation error for a single input field.
func ValidationField(field, problem string) *Error {
	return &Error{
		Kind:    KindValidationFailed,
		Message: "invalid input",
		Fields:  map[string]string{field: problem},
	}
}

func Upstream(err error, message string) *Error {
	return &Error{Kind: KindUpstreamFailure, Message: message, Err: err}
}

func MethodNotAllowed(message string) *Error {
	return &Error{Kind: KindMethodNotAllowed, Message: message}
}

func Internal(err error, message string) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// From normalizes any error into an *Error. Unclassified errors become
// KindInternal so their text never reaches the client as a known kind.
func From(err error) *Error {
	if err == nil {
		return Internal(nil, "unexpected nil error")
	}
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e
	}
	return Internal(err, "unexpected error")
}
