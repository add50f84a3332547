// internal/apperrors/errors.go
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the HTTP boundary.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindInvalidState
	KindForbidden
	KindUnauthorized
	KindUpstream
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInvalidState:
		return "invalid_state"
	case KindForbidden:
		return "forbidden"
	case KindUnauthorized:
		return "unauthorized"
	case KindUpstream:
		return "upstream"
	case KindFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Error is the typed error returned by services. Key is an i18n message key,
// Message is a developer-facing description. Details, when set, is returned
// to the client alongside the error.
type Error struct {
	Kind    Kind
	Key     string
	Message string
	Details map[string]interface{}
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WithDetail attaches a client-visible detail and returns e.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func newError(kind Kind, key, message string, err error) *Error {
	return &Error{Kind: kind, Key: key, Message: message, Err: err}
}

func Validation(key, message string) *Error {
	return newError(KindValidation, key, message, nil)
}

func NotFound(key, message string) *Error {
	return newError(KindNotFound, key, message, nil)
}

func Conflict(key, message string) *Error {
	return newError(KindConflict, key, message, nil)
}

func InvalidState(key, message string) *Error {
	return newError(KindInvalidState, key, message, nil)
}

func Forbidden(key, message string) *Error {
	return newError(KindForbidden, key, message, nil)
}

func Unauthorized(key, message string) *Error {
	return newError(KindUnauthorized, key, message, nil)
}

func Upstream(key, message string, err error) *Error {
	return newError(KindUpstream, key, message, err)
}

func Fatal(message string, err error) *Error {
	return newError(KindFatal, "", message, err)
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
