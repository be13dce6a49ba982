package application

import (
	"strings"

	"github.com/example/tutor-marketplace/internal/persistence"
	"github.com/example/tutor-marketplace/internal/scheduler"
)

const maxFeedbackLength = 2000

func parseDateField(field, value string, vErr *ValidationError) scheduler.Date {
	value = strings.TrimSpace(value)
	if value == "" {
		vErr.add(field, "is required")
		return scheduler.Date{}
	}
	date, err := scheduler.ParseDate(value)
	if err != nil {
		vErr.add(field, "must be a date formatted as YYYY-MM-DD")
		return scheduler.Date{}
	}
	return date
}

// parseOptionalDate returns the zero Date for an empty value.
func parseOptionalDate(field, value string, vErr *ValidationError) scheduler.Date {
	if strings.TrimSpace(value) == "" {
		return scheduler.Date{}
	}
	return parseDateField(field, value, vErr)
}

func parseTimeField(field, value string, vErr *ValidationError) (scheduler.TimeOfDay, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		vErr.add(field, "is required")
		return 0, false
	}
	t, err := scheduler.ParseTimeOfDay(value)
	if err != nil {
		vErr.add(field, "must be a time formatted as HH:MM or HH:MM:SS")
		return 0, false
	}
	return t, true
}

// parseIntervalFields validates a start/end pair under prefix, e.g. "slots[2]".
func parseIntervalFields(prefix, start, end string, vErr *ValidationError) scheduler.Interval {
	startField, endField := "start_time", "end_time"
	if prefix != "" {
		startField = prefix + ".start_time"
		endField = prefix + ".end_time"
	}
	s, okStart := parseTimeField(startField, start, vErr)
	e, okEnd := parseTimeField(endField, end, vErr)
	if !okStart || !okEnd {
		return scheduler.Interval{}
	}
	interval, err := scheduler.NewInterval(s, e)
	if err != nil {
		vErr.add(endField, "must be after start_time")
		return scheduler.Interval{}
	}
	return interval
}

// parseSessionRange is parseIntervalFields for sessions, which are stored in
// whole minutes.
func parseSessionRange(start, end string, vErr *ValidationError) scheduler.Interval {
	interval := parseIntervalFields("", start, end, vErr)
	if interval.End > interval.Start && interval.Minutes() == 0 {
		vErr.add("end_time", "session must last at least one minute")
	}
	return interval
}

func requireID(field, value string, vErr *ValidationError) {
	if strings.TrimSpace(value) == "" {
		vErr.add(field, "is required")
	}
}

func normalizeOptionalString(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func slotWindows(slots []persistence.AvailabilitySlot) []scheduler.Window {
	windows := make([]scheduler.Window, 0, len(slots))
	for _, slot := range slots {
		windows = append(windows, scheduler.Window{
			ID:        slot.ID,
			DayOfWeek: slot.DayOfWeek,
			Interval:  scheduler.Interval{Start: slot.StartTime, End: slot.EndTime},
		})
	}
	return windows
}

func sessionBookings(sessions []persistence.Session) []scheduler.Booking {
	bookings := make([]scheduler.Booking, 0, len(sessions))
	for _, s := range sessions {
		bookings = append(bookings, sessionBooking(s))
	}
	return bookings
}

func sessionBooking(s persistence.Session) scheduler.Booking {
	return scheduler.Booking{
		ID:       s.ID,
		Date:     s.SessionDate,
		Interval: scheduler.Interval{Start: s.StartTime, End: s.EndTime},
	}
}
