package services

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want *Error
	}{
		{"permission", permissionError("no"), ErrPermission},
		{"precondition", preconditionError("not yet"), ErrPrecondition},
		{"conflict", conflictError("taken"), ErrConflict},
		{"invalid transition", invalidTransitionError("bad"), ErrInvalidTransition},
		{"terminal", terminalStateError("done"), ErrTerminalState},
		{"not found", notFoundError("gone"), ErrNotFound},
		{"wrapped", fmt.Errorf("outer: %w", conflictError("taken")), ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.want) {
				t.Fatalf("errors.Is(%v, %s) = false", tt.err, tt.want.Kind)
			}
			kind, ok := KindOf(tt.err)
			if !ok || kind != tt.want.Kind {
				t.Fatalf("KindOf = %q, %v; want %q", kind, ok, tt.want.Kind)
			}
		})
	}
}

func TestErrorKindsDoNotCrossMatch(t *testing.T) {
	if errors.Is(permissionError("no"), ErrConflict) {
		t.Fatal("permission error matched conflict")
	}
	if _, ok := KindOf(errors.New("connection refused")); ok {
		t.Fatal("plain error reported a business kind")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("constraint failed: UNIQUE constraint failed: rescue_teams.name (2067)"), true},
		{errors.New(`ERROR: duplicate key value violates unique constraint "idx_team_user" (SQLSTATE 23505)`), true},
		{errors.New("FOREIGN KEY constraint failed"), false},
	}

	for _, tt := range tests {
		if got := isUniqueViolation(tt.err); got != tt.want {
			t.Fatalf("isUniqueViolation(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
