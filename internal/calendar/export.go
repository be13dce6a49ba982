// Package calendar renders sessions as an iCalendar feed.
package calendar

import (
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/example/tutor-marketplace/internal/lifecycle"
	"github.com/example/tutor-marketplace/internal/persistence"
	"github.com/example/tutor-marketplace/internal/scheduler"
)

const (
	productID = "-//tutor-marketplace//sessions//EN"
	// session dates and times carry no zone, so events use floating local time
	floatingLayout = "20060102T150405"
)

// Options tune the exported feed.
type Options struct {
	Name string
	// Stamp is written as DTSTAMP on every event; zero means time.Now.
	Stamp time.Time
}

// StatusOf maps a session status onto the iCalendar STATUS value.
func StatusOf(status lifecycle.Status) ics.ObjectStatus {
	switch status {
	case lifecycle.Pending:
		return ics.ObjectStatusTentative
	case lifecycle.Confirmed, lifecycle.Completed:
		return ics.ObjectStatusConfirmed
	default:
		return ics.ObjectStatusCancelled
	}
}

// Build assembles a calendar with one VEVENT per session, keyed by session id.
func Build(sessions []persistence.Session, opts Options) *ics.Calendar {
	stamp := opts.Stamp
	if stamp.IsZero() {
		stamp = time.Now()
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	if opts.Name != "" {
		cal.SetName(opts.Name)
	}

	for _, s := range sessions {
		event := cal.AddEvent(s.ID)
		event.SetDtStampTime(stamp.UTC())
		if !s.CreatedAt.IsZero() {
			event.SetCreatedTime(s.CreatedAt.UTC())
		}
		if !s.UpdatedAt.IsZero() {
			event.SetModifiedAt(s.UpdatedAt.UTC())
		}
		event.SetProperty(ics.ComponentPropertyDtStart, floating(s.SessionDate, s.StartTime))
		event.SetProperty(ics.ComponentPropertyDtEnd, floating(s.SessionDate, s.EndTime))
		event.SetSummary(fmt.Sprintf("Tutoring session (%s)", s.Status))
		event.SetDescription(describe(s))
		event.SetStatus(StatusOf(s.Status))
	}
	return cal
}

// Export writes the feed for sessions to w.
func Export(w io.Writer, sessions []persistence.Session, opts Options) error {
	if _, err := io.WriteString(w, Build(sessions, opts).Serialize()); err != nil {
		return fmt.Errorf("calendar: write feed: %w", err)
	}
	return nil
}

func floating(d scheduler.Date, t scheduler.TimeOfDay) string {
	return d.At(t).Format(floatingLayout)
}

func describe(s persistence.Session) string {
	lines := []string{
		"Mentor: " + s.MentorID,
		"Student: " + s.StudentID,
		fmt.Sprintf("Duration: %d minutes", s.DurationMinutes),
	}
	if s.Notes != nil && *s.Notes != "" {
		lines = append(lines, "Notes: "+*s.Notes)
	}
	if s.CancellationReason != nil && *s.CancellationReason != "" {
		lines = append(lines, "Cancelled: "+*s.CancellationReason)
	}
	return strings.Join(lines, "\n")
}
