package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the category of a failure as seen by the storefront and dashboard.
type Kind string

const (
	KindNotFound         Kind = "not_found"
	KindUnavailable      Kind = "unavailable"
	KindForbidden        Kind = "forbidden"
	KindValidationFailed Kind = "validation_failed"
	KindInternal         Kind = "internal"
)

// Sentinels usable with errors.Is against any *Error of the same kind.
var (
	ErrNotFound         = errors.New("not found")
	ErrUnavailable      = errors.New("unavailable")
	ErrForbidden        = errors.New("forbidden")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternal         = errors.New("internal error")
)

// Error is a classified error carrying the operation that produced it and a
// message safe to show to the end user.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements errors.Is matching against the kind sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrUnavailable:
		return e.Kind == KindUnavailable
	case ErrForbidden:
		return e.Kind == KindForbidden
	case ErrValidationFailed:
		return e.Kind == KindValidationFailed
	case ErrInternal:
		return e.Kind == KindInternal
	}
	return false
}

// Retryable reports whether the caller may offer a retry. Nothing in this
// module retries on its own.
func (e *Error) Retryable() bool {
	return e.Kind == KindUnavailable
}

// New creates an error of the given kind.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap classifies err under kind.
func Wrap(kind Kind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

func NotFound(op, message string) *Error {
	return New(KindNotFound, op, message)
}

func Unavailable(op string, err error) *Error {
	return Wrap(KindUnavailable, op, "temporarily unavailable, please retry", err)
}

func Forbidden(op, message string) *Error {
	return New(KindForbidden, op, message)
}

func Validation(op, message string) *Error {
	return New(KindValidationFailed, op, message)
}

// KindOf extracts the kind of err. Unclassified errors are internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// UserMessage returns the message that may be shown inline to the user.
func UserMessage(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return "something went wrong"
}

// HTTPStatus maps an error to the status code used by the HTTP surface.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case "":
		return http.StatusOK
	case KindNotFound:
		return http.StatusNotFound
	case KindUnavailable:
		return http.StatusServiceUnavailable
	case KindForbidden:
		return http.StatusForbidden
	case KindValidationFailed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
