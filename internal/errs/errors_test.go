package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestCode(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not found", NewNotFoundError("user not found"), CodeNotFound},
		{"duplicate", NewDuplicateIdentityError("dup", cause), CodeDuplicateIdentity},
		{"validation", NewValidationError("bad", nil), CodeValidation},
		{"config", NewConfigError("missing", cause), CodeConfig},
		{"conflict", NewConflictError("busy", nil), CodeConflict},
		{"database", NewDatabaseError("db", cause), CodeDatabase},
		{"wrapped", fmt.Errorf("create user: %w", NewValidationError("bad", nil)), CodeValidation},
		{"plain", cause, CodeUnknown},
		{"nil", nil, CodeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Code(tt.err); got != tt.want {
				t.Errorf("Code() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("unique constraint failed")
	err := NewDuplicateIdentityError("user already exists", cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be reachable with errors.Is")
	}
	if err.Error() != "user already exists: unique constraint failed" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestPublicMessage(t *testing.T) {
	if got := PublicMessage(NewDatabaseError("insert failed", errors.New("disk I/O"))); got != "internal error" {
		t.Errorf("database error leaked: %q", got)
	}
	if got := PublicMessage(NewNotFoundError("user not found")); got != "user not found" {
		t.Errorf("got %q", got)
	}
	dup := NewDuplicateIdentityError("user already exists", errors.New("UNIQUE constraint failed: users.external_id"))
	if got := PublicMessage(dup); got != "user already exists" {
		t.Errorf("constraint text leaked: %q", got)
	}
	if got := PublicMessage(errors.New("raw")); got != "internal error" {
		t.Errorf("raw error leaked: %q", got)
	}
}

func TestKindHelpers(t *testing.T) {
	if !IsNotFound(NewNotFoundError("x")) || IsNotFound(NewValidationError("x", nil)) {
		t.Error("IsNotFound mismatch")
	}
	if !IsDuplicateIdentity(fmt.Errorf("wrap: %w", NewDuplicateIdentityError("x", nil))) {
		t.Error("IsDuplicateIdentity should see through wrapping")
	}
	if !IsConfig(NewConfigError("x", nil)) || !IsConflict(NewConflictError("x", nil)) {
		t.Error("config/conflict helpers mismatch")
	}
}
