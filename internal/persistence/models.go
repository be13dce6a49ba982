package persistence

import (
	"time"

	"github.com/example/tutor-marketplace/internal/lifecycle"
	"github.com/example/tutor-marketplace/internal/scheduler"
)

// AccountStatus is the activation state of a mentor or student account.
type AccountStatus string

const (
	AccountActive   AccountStatus = "active"
	AccountInactive AccountStatus = "inactive"
)

// Valid reports whether s is a defined account status.
func (s AccountStatus) Valid() bool {
	return s == AccountActive || s == AccountInactive
}

// Mentor is a tutor profile with its denormalized counters.
type Mentor struct {
	ID             string
	Name           string
	Email          string
	EnglishLevel   string
	HourlyRate     float64
	Bio            *string
	Contact        *string
	Address        *string
	Latitude       *float64
	Longitude      *float64
	OffersInPerson bool
	Status         AccountStatus
	TotalSessions  int
	AverageRating  float64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Student is a learner profile.
type Student struct {
	ID            string
	Name          string
	Email         string
	EnglishLevel  string
	LearningGoals *string
	Status        AccountStatus
	TotalSessions int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// AvailabilitySlot is one weekly window of a mentor.
type AvailabilitySlot struct {
	ID        string
	MentorID  string
	DayOfWeek int
	StartTime scheduler.TimeOfDay
	EndTime   scheduler.TimeOfDay
	CreatedAt time.Time
}

// Session is a booked appointment between a student and a mentor.
type Session struct {
	ID                 string
	StudentID          string
	MentorID           string
	SessionDate        scheduler.Date
	StartTime          scheduler.TimeOfDay
	EndTime            scheduler.TimeOfDay
	DurationMinutes    int
	Status             lifecycle.Status
	Notes              *string
	MentorFeedback     *string
	StudentFeedback    *string
	CancellationReason *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Review is a student's rating of a completed session.
type Review struct {
	ID        string
	SessionID string
	StudentID string
	MentorID  string
	Rating    int
	Comment   *string
	CreatedAt time.Time
}

// RatingSummary aggregates the reviews of one mentor.
type RatingSummary struct {
	Count   int
	Average float64
}

// MentorCounters carries recomputed denormalized values for a mentor.
type MentorCounters struct {
	TotalSessions int
	AverageRating float64
}

// MentorFilter narrows mentor queries. Zero values do not filter.
type MentorFilter struct {
	Status         AccountStatus
	EnglishLevel   string
	OffersInPerson bool
	HasCoordinates bool
}

// SessionFilter narrows session queries. Zero values do not filter.
type SessionFilter struct {
	MentorID  string
	StudentID string
	Date      scheduler.Date
	From      scheduler.Date
	To        scheduler.Date
	Statuses  []lifecycle.Status
}
