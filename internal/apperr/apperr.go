package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so the transport can pick a status code and
// decide how much detail to surface.
type Kind string

const (
	KindValidation Kind = "validation"
	KindPolicy     Kind = "policy_violation"
	KindConflict   Kind = "state_conflict"
	KindForbidden  Kind = "forbidden"
	KindNotFound   Kind = "not_found"
	KindStorage    Kind = "storage"
)

// Error is the single failure type returned by the service layer.
type Error struct {
	Kind    Kind
	Message string
	// Reasons carries the screener output for KindPolicy.
	Reasons []string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind so callers can write errors.Is(err, apperr.ErrConflict).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

// Kind sentinels for errors.Is.
var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrPolicy     = &Error{Kind: KindPolicy}
	ErrConflict   = &Error{Kind: KindConflict}
	ErrForbidden  = &Error{Kind: KindForbidden}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrStorage    = &Error{Kind: KindStorage}
)

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Policy(reasons []string) *Error {
	return &Error{Kind: KindPolicy, Message: "content violates community guidelines", Reasons: reasons}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Forbidden never carries detail past the service boundary.
func Forbidden() *Error {
	return &Error{Kind: KindForbidden, Message: "forbidden"}
}

func NotFound(what string) *Error {
	return &Error{Kind: KindNotFound, Message: what + " not found"}
}

// Storage wraps a datastore failure. Wrapping an *Error returns it unchanged.
func Storage(err error, op string) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: KindStorage, Message: op, Err: err}
}

// KindOf reports the Kind of err, defaulting to KindStorage for untyped errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindStorage
}
