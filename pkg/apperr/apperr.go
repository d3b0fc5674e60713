package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies failures so callers can decide between retry, surface or recover.
type Kind string

const (
	KindValidation            Kind = "validation"
	KindNotFound              Kind = "not_found"
	KindStorage               Kind = "storage"
	KindGenerationUnavailable Kind = "generation_unavailable"
	KindStateInvariant        Kind = "state_invariant"
	KindConflict              Kind = "conflict"
	KindBusy                  Kind = "busy"
)

// Error is the structured error returned across package boundaries.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

// Sentinels for errors.Is checks. Matching is by Kind only.
var (
	ErrValidation            = &Error{Kind: KindValidation}
	ErrNotFound              = &Error{Kind: KindNotFound}
	ErrStorage               = &Error{Kind: KindStorage}
	ErrGenerationUnavailable = &Error{Kind: KindGenerationUnavailable}
	ErrStateInvariant        = &Error{Kind: KindStateInvariant}
	ErrConflict              = &Error{Kind: KindConflict}
	ErrBusy                  = &Error{Kind: KindBusy}
)

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Message == "" && t.Err == nil
}

func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func Validation(op, format string, args ...interface{}) *Error {
	return New(KindValidation, op, fmt.Sprintf(format, args...))
}

func NotFound(op, format string, args ...interface{}) *Error {
	return New(KindNotFound, op, fmt.Sprintf(format, args...))
}

func Conflict(op, format string, args ...interface{}) *Error {
	return New(KindConflict, op, fmt.Sprintf(format, args...))
}

func Storage(op string, err error) *Error {
	return Wrap(KindStorage, op, err)
}

func StateInvariant(op string, err error) *Error {
	return Wrap(KindStateInvariant, op, err)
}

func GenerationUnavailable(op string, err error) *Error {
	return Wrap(KindGenerationUnavailable, op, err)
}

func Busy(op, format string, args ...interface{}) *Error {
	return New(KindBusy, op, fmt.Sprintf(format, args...))
}

// KindOf returns the Kind of the first *Error in the chain, or "" when none is present.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
