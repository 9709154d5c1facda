// Package apperr holds the error kinds shared by the progress, exam and
// certificate engines. Callers match kinds with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation           = errors.New("validation error")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrForbidden            = errors.New("forbidden")
	ErrNotFound             = errors.New("not found")
	ErrAttemptLimitExceeded = errors.New("attempt limit exceeded")
	ErrExamUnscoreable      = errors.New("exam unscoreable")
	ErrNotEligible          = errors.New("not eligible")
	ErrStorageUnavailable   = errors.New("storage unavailable")
)

// Error carries an operation name and a kind alongside an optional cause.
type Error struct {
	Op      string // e.g. "exam.Submit"
	Kind    error  // one of the Err* kinds above
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Kind != nil {
		msg = e.Kind.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *Error) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

func (e *Error) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	return e.Err != nil && errors.Is(e.Err, target)
}

func New(op string, kind error, message string) *Error {
	return &Error{Op: op, Kind: kind, Message: message}
}

func Wrap(op string, kind error, message string, err error) *Error {
	return &Error{Op: op, Kind: kind, Message: message, Err: err}
}

// Validation is shorthand for a 400-class input error.
func Validation(op, format string, args ...any) *Error {
	return New(op, ErrValidation, fmt.Sprintf(format, args...))
}

// NotFound is shorthand for an unknown course/exam/lesson.
func NotFound(op, format string, args ...any) *Error {
	return New(op, ErrNotFound, fmt.Sprintf(format, args...))
}

// Storage wraps a driver error as transient. nil stays nil.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return Wrap(op, ErrStorageUnavailable, "storage unavailable", err)
}

// IsTransient reports whether the caller may safely retry.
func IsTransient(err error) bool {
	return errors.Is(err, ErrStorageUnavailable)
}

// IsPermanent reports the outcomes that will not change on retry.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrAttemptLimitExceeded) ||
		errors.Is(err, ErrExamUnscoreable) ||
		errors.Is(err, ErrNotEligible)
}
