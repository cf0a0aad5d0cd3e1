package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

type Kind string

const (
	KindPermission        Kind = "permission_denied"
	KindPrecondition      Kind = "precondition_failed"
	KindConflict          Kind = "conflict"
	KindInvalidTransition Kind = "invalid_transition"
	KindTerminalState     Kind = "terminal_state"
	KindNotFound          Kind = "not_found"
)

// Error is a business rule violation. Anything else returned by a service is an
// infrastructure failure.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// Is matches any *Error of the same kind, so callers can write
// errors.Is(err, services.ErrConflict).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrPermission        = &Error{Kind: KindPermission}
	ErrPrecondition      = &Error{Kind: KindPrecondition}
	ErrConflict          = &Error{Kind: KindConflict}
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition}
	ErrTerminalState     = &Error{Kind: KindTerminalState}
	ErrNotFound          = &Error{Kind: KindNotFound}
)

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func permissionError(format string, args ...any) error {
	return newError(KindPermission, format, args...)
}

func preconditionError(format string, args ...any) error {
	return newError(KindPrecondition, format, args...)
}

func conflictError(format string, args ...any) error {
	return newError(KindConflict, format, args...)
}

func invalidTransitionError(format string, args ...any) error {
	return newError(KindInvalidTransition, format, args...)
}

func terminalStateError(format string, args ...any) error {
	return newError(KindTerminalState, format, args...)
}

func notFoundError(format string, args ...any) error {
	return newError(KindNotFound, format, args...)
}

// KindOf reports the business kind of err, if it has one.
func KindOf(err error) (Kind, bool) {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind, true
	}
	return "", false
}

// isUniqueViolation recognises duplicate-key failures from both the translated
// gorm error and the raw driver messages.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

// lookup maps a missing row to a not-found error naming what was missing.
func lookup(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFoundError("%s not found", what)
	}
	return fmt.Errorf("load %s: %w", strings.ToLower(what), err)
}
