package persistence

import (
	"context"
	"time"

	"github.com/example/tutor-marketplace/internal/lifecycle"
)

// MentorRepository exposes mentor reads and counter updates.
type MentorRepository interface {
	CreateMentor(ctx context.Context, mentor Mentor) error
	GetMentor(ctx context.Context, id string) (Mentor, error)
	ListMentors(ctx context.Context, filter MentorFilter) ([]Mentor, error)
	UpdateMentorStatus(ctx context.Context, id string, status AccountStatus, updatedAt time.Time) error
	UpdateMentorCounters(ctx context.Context, id string, counters MentorCounters, updatedAt time.Time) error
	IncrementMentorSessions(ctx context.Context, id string, updatedAt time.Time) error
}

// StudentRepository exposes student reads and counter updates.
type StudentRepository interface {
	CreateStudent(ctx context.Context, student Student) error
	GetStudent(ctx context.Context, id string) (Student, error)
	ListStudents(ctx context.Context) ([]Student, error)
	SetStudentSessions(ctx context.Context, id string, total int, updatedAt time.Time) error
	IncrementStudentSessions(ctx context.Context, id string, updatedAt time.Time) error
}

// AvailabilityRepository stores weekly availability slots.
type AvailabilityRepository interface {
	// ListAvailability returns slots ordered by day of week, then start time.
	// A positive day restricts the result to that ISO weekday.
	ListAvailability(ctx context.Context, mentorID string, day int) ([]AvailabilitySlot, error)
	DeleteAvailability(ctx context.Context, mentorID string) error
	InsertAvailability(ctx context.Context, slot AvailabilitySlot) error
}

// SessionRepository stores booked sessions.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) error
	GetSession(ctx context.Context, id string) (Session, error)
	UpdateSession(ctx context.Context, session Session) error
	// ListSessions returns matches ordered by date, then start time, newest first.
	ListSessions(ctx context.Context, filter SessionFilter) ([]Session, error)
	CountSessions(ctx context.Context, filter SessionFilter) (int, error)
}

// ReviewRepository stores session reviews.
type ReviewRepository interface {
	CreateReview(ctx context.Context, review Review) error
	GetReviewBySession(ctx context.Context, sessionID string) (Review, error)
	// ListReviews returns reviews newest first. An empty mentorID lists all reviews.
	ListReviews(ctx context.Context, mentorID string) ([]Review, error)
	SummarizeRatings(ctx context.Context, mentorID string) (RatingSummary, error)
}

// Tx groups every repository bound to one transaction.
type Tx interface {
	MentorRepository
	StudentRepository
	AvailabilityRepository
	SessionRepository
	ReviewRepository
}

// TxFunc is executed inside a transaction. Returning an error rolls it back.
type TxFunc func(ctx context.Context, tx Tx) error

// Store is the transactional boundary of the relational store.
type Store interface {
	// WithinTransaction runs fn in a serializable read-write transaction.
	WithinTransaction(ctx context.Context, fn TxFunc) error
	// WithinReadOnly runs fn in a read-only transaction.
	WithinReadOnly(ctx context.Context, fn TxFunc) error
	Close() error
}

// HoldingFilter selects the sessions that block a mentor's calendar.
func HoldingFilter(mentorID string) SessionFilter {
	return SessionFilter{MentorID: mentorID, Statuses: lifecycle.HoldingStatuses()}
}
