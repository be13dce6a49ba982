// Package recurrence expands weekly availability windows into dated openings.
package recurrence

import (
	"errors"
	"sort"

	"github.com/example/tutor-marketplace/internal/scheduler"
)

// MaxRangeDays bounds a single expansion.
const MaxRangeDays = 92

var (
	// ErrInvalidWindow indicates the generation range ends before it starts.
	ErrInvalidWindow = errors.New("recurrence: range end precedes range start")
	// ErrRangeTooLong indicates the generation range exceeds MaxRangeDays.
	ErrRangeTooLong = errors.New("recurrence: range exceeds the maximum length")
)

// Occurrence is a dated instance of a weekly window.
type Occurrence struct {
	WindowID string
	Date     scheduler.Date
	Interval scheduler.Interval
}

// Expand produces one occurrence per window per matching date in the inclusive
// range [from, to], ordered chronologically.
func Expand(windows []scheduler.Window, from, to scheduler.Date) ([]Occurrence, error) {
	if to.Before(from) {
		return nil, ErrInvalidWindow
	}
	if int(to.Time().Sub(from.Time()).Hours()/24) >= MaxRangeDays {
		return nil, ErrRangeTooLong
	}

	byDay := make(map[int][]scheduler.Window, 7)
	for _, w := range windows {
		if w.Interval.Empty() {
			continue
		}
		byDay[w.DayOfWeek] = append(byDay[w.DayOfWeek], w)
	}
	for day := range byDay {
		scheduler.SortWindows(byDay[day])
	}

	occurrences := make([]Occurrence, 0)
	for current := from; !current.After(to); current = current.AddDays(1) {
		for _, w := range byDay[current.ISOWeekday()] {
			occurrences = append(occurrences, Occurrence{
				WindowID: w.ID,
				Date:     current,
				Interval: w.Interval,
			})
		}
	}
	return occurrences, nil
}

// Subtract removes booked ranges from occurrences and returns what remains
// free, in the same order. An occurrence may split into several pieces.
func Subtract(occurrences []Occurrence, bookings []scheduler.Booking) []Occurrence {
	byDate := make(map[scheduler.Date][]scheduler.Interval)
	for _, b := range bookings {
		if b.Interval.Empty() {
			continue
		}
		byDate[b.Date] = append(byDate[b.Date], b.Interval)
	}
	for date := range byDate {
		busy := byDate[date]
		sort.Slice(busy, func(i, j int) bool { return busy[i].Start < busy[j].Start })
	}

	free := make([]Occurrence, 0, len(occurrences))
	for _, occ := range occurrences {
		cursor := occ.Interval.Start
		for _, busy := range byDate[occ.Date] {
			if !busy.Overlaps(occ.Interval) {
				continue
			}
			if busy.Start > cursor {
				free = append(free, Occurrence{
					WindowID: occ.WindowID,
					Date:     occ.Date,
					Interval: scheduler.Interval{Start: cursor, End: busy.Start},
				})
			}
			if busy.End > cursor {
				cursor = busy.End
			}
		}
		if cursor < occ.Interval.End {
			free = append(free, Occurrence{
				WindowID: occ.WindowID,
				Date:     occ.Date,
				Interval: scheduler.Interval{Start: cursor, End: occ.Interval.End},
			})
		}
	}
	return free
}
