package application

import (
	"errors"
	"fmt"
	"testing"

	"github.com/example/tutor-marketplace/internal/lifecycle"
	"github.com/example/tutor-marketplace/internal/persistence"
)

func TestValidationError_Error(t *testing.T) {
	t.Parallel()

	var err *ValidationError
	if err.Error() != "" {
		t.Fatalf("expected empty string for nil error, got %q", err.Error())
	}

	empty := &ValidationError{}
	if got := empty.Error(); got != "validation failed" {
		t.Fatalf("expected generic message for empty error, got %q", got)
	}

	withFields := &ValidationError{FieldErrors: map[string]string{"start_time": "invalid", "date": "required"}}
	if got := withFields.Error(); got != "validation failed: date, start_time" {
		t.Fatalf("expected sorted field names, got %q", got)
	}
}

func TestValidationError_HasErrors(t *testing.T) {
	t.Parallel()

	if (&ValidationError{}).HasErrors() {
		t.Fatalf("expected HasErrors to report false for empty error")
	}
	var nilErr *ValidationError
	if nilErr.HasErrors() {
		t.Fatalf("expected HasErrors to report false for nil error")
	}
	if !(&ValidationError{FieldErrors: map[string]string{"field": "bad"}}).HasErrors() {
		t.Fatalf("expected HasErrors to report true when fields are present")
	}
}

func TestValidationError_AddKeepsFirstMessage(t *testing.T) {
	t.Parallel()

	base := &ValidationError{}
	base.add("first", "value")
	base.add("first", "ignored")
	if got := base.FieldErrors["first"]; got != "value" {
		t.Fatalf("expected the first message to win, got %q", got)
	}

	single := newValidationError("second", "another")
	if got := single.FieldErrors["second"]; got != "another" || len(single.FieldErrors) != 1 {
		t.Fatalf("unexpected field errors: %#v", single.FieldErrors)
	}
}

func TestMapRepoError(t *testing.T) {
	t.Parallel()

	if mapRepoError("op", nil) != nil {
		t.Fatalf("nil must stay nil")
	}

	domain := fmt.Errorf("%w: inactive", ErrMentorInactive)
	if got := mapRepoError("book", domain); got != domain {
		t.Fatalf("domain errors must pass through, got %v", got)
	}

	transition := &lifecycle.TransitionError{From: lifecycle.Pending, To: lifecycle.Completed}
	if got := mapRepoError("transition", transition); !errors.Is(got, ErrInvalidTransition) {
		t.Fatalf("transition errors must pass through, got %v", got)
	}

	vErr := newValidationError("rating", "out of range")
	if got := mapRepoError("review", vErr); got != error(vErr) {
		t.Fatalf("validation errors must pass through, got %v", got)
	}

	if got := mapRepoError("get session", fmt.Errorf("wrap: %w", persistence.ErrNotFound)); !errors.Is(got, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", got)
	}
	if got := mapRepoError("book", persistence.ErrOverlap); !errors.Is(got, ErrSessionConflict) {
		t.Fatalf("expected ErrSessionConflict, got %v", got)
	}

	cause := errors.New("disk full")
	got := mapRepoError("replace availability", cause)
	var internal *InternalError
	if !errors.As(got, &internal) || internal.Op != "replace availability" {
		t.Fatalf("expected InternalError, got %#v", got)
	}
	if !errors.Is(got, ErrInternal) || !errors.Is(got, cause) {
		t.Fatalf("internal errors must match ErrInternal and unwrap to the cause")
	}
	if got.Error() != "application: internal error: replace availability: disk full" {
		t.Fatalf("unexpected message %q", got.Error())
	}
}
