package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a uniqueness constraint rejects a write.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrOverlap is returned when the store rejects overlapping active sessions.
	ErrOverlap = errors.New("persistence: overlapping session")
	// ErrConstraintViolation is returned for check and foreign key failures.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
)
