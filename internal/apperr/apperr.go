// Package apperr defines the error taxonomy shared by the mutation pipeline
// and the HTTP layer.
//
// Every expected outcome carries a Kind. Callers match kinds with errors.Is
// against the package sentinels and extract details with errors.As:
//
//	if errors.Is(err, apperr.ErrConflict) { ... }
//
//	var conflict *apperr.ConflictError
//	if errors.As(err, &conflict) {
//		latest := conflict.Current
//	}
//
// Internal errors keep their cause for logging but present an opaque message.
package apperr

import (
	"errors"
	"fmt"

	"taskboard/internal/model"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindNoEligibleUsers
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindNoEligibleUsers:
		return "no_eligible_users"
	default:
		return "internal"
	}
}

// Sentinels for errors.Is matching by kind.
var (
	ErrInternal        = &Error{Kind: KindInternal, Message: "internal error"}
	ErrValidation      = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrNotFound        = &Error{Kind: KindNotFound, Message: "not found"}
	ErrConflict        = &Error{Kind: KindConflict, Message: "conflict detected"}
	ErrNoEligibleUsers = &Error{Kind: KindNoEligibleUsers, Message: "no eligible users to assign"}
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error returns the caller-facing message. The cause is reachable through
// Unwrap but never printed.
func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so the sentinels act as kind checks.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Kind == e.Kind
	}
	return false
}

func Validation(msg string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(msg, args...)}
}

func NotFound(resource, id string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s '%s' not found", resource, id)}
}

func NoEligibleUsers() *Error {
	return &Error{Kind: KindNoEligibleUsers, Message: ErrNoEligibleUsers.Message}
}

// Internal wraps a persistence or transport failure.
func Internal(op string, err error) *Error {
	return &Error{Kind: KindInternal, Message: op + " failed", Err: err}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// ConflictError is returned when a non-forced mutation's baseline no longer
// matches the stored version. Current is the authoritative record.
type ConflictError struct {
	Baseline int64
	Current  model.Task
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict detected: baseline version %d, current version %d", e.Baseline, e.Current.Version)
}

func (e *ConflictError) Is(target error) bool {
	var t *Error
	return errors.As(target, &t) && t.Kind == KindConflict
}

// KindOf classifies err; anything unrecognised is internal.
func KindOf(err error) Kind {
	var conflict *ConflictError
	if errors.As(err, &conflict) {
		return KindConflict
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
