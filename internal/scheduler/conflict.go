package scheduler

import (
	"errors"
	"sort"
)

// ErrEmptyInterval indicates an interval whose start is not before its end.
var ErrEmptyInterval = errors.New("scheduler: start must be before end")

// Interval is a half-open wall-clock range [Start, End).
type Interval struct {
	Start TimeOfDay
	End   TimeOfDay
}

// NewInterval validates and builds an Interval.
func NewInterval(start, end TimeOfDay) (Interval, error) {
	if start >= end {
		return Interval{}, ErrEmptyInterval
	}
	return Interval{Start: start, End: end}, nil
}

// Empty reports whether the interval covers no instant.
func (i Interval) Empty() bool { return i.Start >= i.End }

// Minutes returns the interval length in whole minutes.
func (i Interval) Minutes() int {
	if i.Empty() {
		return 0
	}
	return int(i.End-i.Start) / 60
}

// Overlaps reports whether the two ranges share at least one instant.
// Touching ranges and empty ranges never overlap.
func (i Interval) Overlaps(other Interval) bool {
	if i.Empty() || other.Empty() {
		return false
	}
	return i.Start < other.End && other.Start < i.End
}

// Contains reports whether other lies entirely inside i.
func (i Interval) Contains(other Interval) bool {
	return i.Start <= other.Start && i.End >= other.End
}

// Window is a weekly recurring availability range.
type Window struct {
	ID        string
	DayOfWeek int
	Interval  Interval
}

// Booking is an occupied range on a specific date.
type Booking struct {
	ID       string
	Date     Date
	Interval Interval
}

// FindWindow returns the first window on the ISO weekday of date that fully
// contains the requested range. Adjacent windows are not merged.
func FindWindow(windows []Window, date Date, requested Interval) (Window, bool) {
	day := date.ISOWeekday()
	for _, w := range windows {
		if w.DayOfWeek != day {
			continue
		}
		if w.Interval.Contains(requested) {
			return w, true
		}
	}
	return Window{}, false
}

// DetectConflicts returns the existing bookings that overlap the candidate on
// the same date. A booking sharing the candidate's ID is ignored so that a
// booking can be moved without colliding with itself.
func DetectConflicts(existing []Booking, candidate Booking) []Booking {
	conflicts := make([]Booking, 0)
	for _, b := range existing {
		if candidate.ID != "" && b.ID == candidate.ID {
			continue
		}
		if b.Date != candidate.Date {
			continue
		}
		if b.Interval.Overlaps(candidate.Interval) {
			conflicts = append(conflicts, b)
		}
	}
	sort.Slice(conflicts, func(i, j int) bool {
		if conflicts[i].Interval.Start != conflicts[j].Interval.Start {
			return conflicts[i].Interval.Start < conflicts[j].Interval.Start
		}
		return conflicts[i].ID < conflicts[j].ID
	})
	return conflicts
}

// SortWindows orders windows by day of week, then start time.
func SortWindows(windows []Window) {
	sort.SliceStable(windows, func(i, j int) bool {
		if windows[i].DayOfWeek != windows[j].DayOfWeek {
			return windows[i].DayOfWeek < windows[j].DayOfWeek
		}
		return windows[i].Interval.Start < windows[j].Interval.Start
	})
}
