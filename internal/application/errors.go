package application

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/example/tutor-marketplace/internal/lifecycle"
	"github.com/example/tutor-marketplace/internal/persistence"
)

var (
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrForbidden is returned when the acting principal lacks rights over the entity.
	ErrForbidden = errors.New("application: forbidden")
	// ErrMentorInactive is returned when booking against a deactivated mentor.
	ErrMentorInactive = errors.New("application: mentor inactive")
	// ErrMentorNotAvailable is returned when no availability window contains the request.
	ErrMentorNotAvailable = errors.New("application: mentor not available")
	// ErrSessionConflict is returned when the request overlaps an active session.
	ErrSessionConflict = errors.New("application: session conflict")
	// ErrReviewExists is returned when the session already carries a review.
	ErrReviewExists = errors.New("application: review exists")
	// ErrInvalidTransition is returned for status changes outside the lifecycle table.
	ErrInvalidTransition = lifecycle.ErrInvalidTransition
	// ErrInternal marks persistence or infrastructure failures.
	ErrInternal = errors.New("application: internal error")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	if len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error. The first message per field wins.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	if _, exists := v.FieldErrors[field]; exists {
		return
	}
	v.FieldErrors[field] = message
}

func newValidationError(field, message string) *ValidationError {
	v := &ValidationError{}
	v.add(field, message)
	return v
}

// InternalError wraps a failure that is not attributable to caller input.
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("application: internal error: %v", e.Err)
	}
	return fmt.Sprintf("application: internal error: %s: %v", e.Op, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }

// Is reports ErrInternal so callers can match the kind without errors.As.
func (e *InternalError) Is(target error) bool { return target == ErrInternal }

// domainErrors are returned unchanged by mapRepoError.
var domainErrors = []error{
	ErrNotFound,
	ErrForbidden,
	ErrMentorInactive,
	ErrMentorNotAvailable,
	ErrSessionConflict,
	ErrReviewExists,
	ErrInvalidTransition,
	ErrInternal,
}

// mapRepoError translates persistence failures into application errors. Domain
// errors raised inside a transaction body pass through untouched.
func mapRepoError(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, known := range domainErrors {
		if errors.Is(err, known) {
			return err
		}
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return err
	}
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, op)
	case errors.Is(err, persistence.ErrOverlap):
		return fmt.Errorf("%w: %s", ErrSessionConflict, op)
	}
	return &InternalError{Op: op, Err: err}
}
