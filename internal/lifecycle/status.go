// Package lifecycle defines the closed session status enum and its transition table.
package lifecycle

import "fmt"

// Status is the state of a tutoring session.
type Status string

const (
	Pending   Status = "pending"
	Confirmed Status = "confirmed"
	Completed Status = "completed"
	Cancelled Status = "cancelled"
	NoShow    Status = "no_show"
)

var allStatuses = []Status{Pending, Confirmed, Completed, Cancelled, NoShow}

// Statuses returns every defined status in lifecycle order.
func Statuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ParseStatus converts a stored or user supplied value into a Status.
func ParseStatus(value string) (Status, error) {
	s := Status(value)
	if !s.Valid() {
		return "", fmt.Errorf("lifecycle: unknown session status %q", value)
	}
	return s, nil
}

// Valid reports whether s is one of the defined statuses.
func (s Status) Valid() bool {
	switch s {
	case Pending, Confirmed, Completed, Cancelled, NoShow:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	switch s {
	case Completed, Cancelled, NoShow:
		return true
	}
	return false
}

// Holding reports whether a session in s occupies the mentor's calendar.
func (s Status) Holding() bool {
	return s == Pending || s == Confirmed
}

// HoldingStatuses returns the statuses that block overlapping bookings.
func HoldingStatuses() []Status {
	return []Status{Pending, Confirmed}
}

func (s Status) String() string { return string(s) }
