// Package apperr classifies errors into the categories the HTTP boundary
// translates into status codes. Services return these; handlers never
// inspect error strings.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the error category.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuth
	KindNotFound
	KindConflict
	KindRateLimited
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindRateLimited:
		return "rate_limited"
	case KindUpstream:
		return "upstream"
	default:
		return "internal"
	}
}

// Error is a categorized error. Msg is safe to show to API clients.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Msg == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Validation reports bad input: missing fields, malformed values, illegal transitions.
func Validation(format string, args ...any) error { return newf(KindValidation, format, args...) }

// Unauthorized reports a failed authentication. The message stays generic.
func Unauthorized(msg string) error { return &Error{Kind: KindAuth, Msg: msg} }

// NotFound reports an unknown entity.
func NotFound(format string, args ...any) error { return newf(KindNotFound, format, args...) }

// Conflict reports a lost optimistic-concurrency race.
func Conflict(format string, args ...any) error { return newf(KindConflict, format, args...) }

// RateLimited reports a locked-out client.
func RateLimited(msg string) error { return &Error{Kind: KindRateLimited, Msg: msg} }

// Upstream wraps a third-party provider failure, keeping the provider message.
func Upstream(provider string, err error) error {
	return &Error{Kind: KindUpstream, Msg: provider, Err: err}
}

// Internal wraps an infrastructure failure.
func Internal(msg string, err error) error {
	return &Error{Kind: KindInternal, Msg: msg, Err: err}
}

// KindOf returns the category of err. Unclassified errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err belongs to kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps an error to its response status.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
