package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/tutor-marketplace/internal/lifecycle"
	"github.com/example/tutor-marketplace/internal/persistence"
	"github.com/example/tutor-marketplace/internal/scheduler"
)

// BookingService books and reschedules sessions against mentor availability.
type BookingService struct {
	deps Dependencies
}

// NewBookingService wires dependencies for booking operations.
func NewBookingService(deps Dependencies) *BookingService {
	return &BookingService{deps: deps.withDefaults()}
}

func (s *BookingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.deps.Logger, "BookingService", operation, attrs...)
}

// BookSession creates a pending session when the mentor is active, one of the
// mentor's windows contains the requested range and no active session overlaps it.
func (s *BookingService) BookSession(ctx context.Context, params BookSessionParams) (session persistence.Session, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}

	studentID := params.StudentID
	if studentID == "" {
		studentID = params.Principal.UserID
	}

	started := time.Now()
	logger := s.loggerWith(ctx, "BookSession",
		"principal_id", params.Principal.UserID,
		"student_id", studentID,
		"mentor_id", params.MentorID,
	)
	defer func() {
		s.deps.Metrics.ObserveOperation("booking", "book", outcome(err), time.Since(started))
		if err != nil {
			logger.ErrorContext(ctx, "failed to book session", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("session_id", session.ID).InfoContext(ctx, "session booked")
	}()

	if params.Principal.Role != RoleStudent || params.Principal.UserID != studentID {
		err = ErrForbidden
		return
	}

	vErr := &ValidationError{}
	requireID("student_id", studentID, vErr)
	requireID("mentor_id", params.MentorID, vErr)
	date := parseDateField("session_date", params.Date, vErr)
	interval := parseSessionRange(params.StartTime, params.EndTime, vErr)
	if params.DurationMinutes < 0 {
		vErr.add("duration_minutes", "must not be negative")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	duration := params.DurationMinutes
	if duration == 0 {
		duration = interval.Minutes()
	}
	now := s.deps.Now()
	candidate := persistence.Session{
		ID:              s.deps.IDGenerator(),
		StudentID:       studentID,
		MentorID:        params.MentorID,
		SessionDate:     date,
		StartTime:       interval.Start,
		EndTime:         interval.End,
		DurationMinutes: duration,
		Status:          lifecycle.Pending,
		Notes:           normalizeOptionalString(params.Notes),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = s.deps.Store.WithinTransaction(ctx, func(ctx context.Context, tx persistence.Tx) error {
		if err := checkBookable(ctx, tx, candidate); err != nil {
			return err
		}
		if _, err := tx.GetStudent(ctx, studentID); err != nil {
			return fmt.Errorf("student %s: %w", studentID, err)
		}
		return tx.CreateSession(ctx, candidate)
	})
	if err != nil {
		err = mapRepoError("book session", err)
		return
	}

	session = candidate
	return
}

// RescheduleSession moves a pending or confirmed session to a new date and
// range. The session returns to pending so the mentor confirms again.
func (s *BookingService) RescheduleSession(ctx context.Context, params RescheduleSessionParams) (session persistence.Session, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}

	started := time.Now()
	logger := s.loggerWith(ctx, "RescheduleSession",
		"principal_id", params.Principal.UserID,
		"session_id", params.SessionID,
	)
	defer func() {
		s.deps.Metrics.ObserveOperation("booking", "reschedule", outcome(err), time.Since(started))
		if err != nil {
			logger.ErrorContext(ctx, "failed to reschedule session", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "session rescheduled",
			"session_date", session.SessionDate.String(),
			"start_time", session.StartTime.String(),
		)
	}()

	vErr := &ValidationError{}
	requireID("session_id", params.SessionID, vErr)
	date := parseDateField("session_date", params.Date, vErr)
	interval := parseSessionRange(params.StartTime, params.EndTime, vErr)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	err = s.deps.Store.WithinTransaction(ctx, func(ctx context.Context, tx persistence.Tx) error {
		existing, err := tx.GetSession(ctx, params.SessionID)
		if err != nil {
			return err
		}
		if params.Principal.partyOf(existing) == lifecycle.PartyNone {
			return ErrForbidden
		}
		if !existing.Status.Holding() {
			return &lifecycle.TransitionError{From: existing.Status, To: lifecycle.Pending}
		}

		moved := existing
		moved.SessionDate = date
		moved.StartTime = interval.Start
		moved.EndTime = interval.End
		moved.DurationMinutes = interval.Minutes()
		moved.Status = lifecycle.Pending
		moved.UpdatedAt = s.deps.Now()

		if err := checkBookable(ctx, tx, moved); err != nil {
			return err
		}
		if err := tx.UpdateSession(ctx, moved); err != nil {
			return err
		}
		session = moved
		return nil
	})
	if err != nil {
		session = persistence.Session{}
		err = mapRepoError("reschedule session", err)
	}
	return
}

// checkBookable runs the mentor, availability and overlap checks for
// candidate inside tx. The candidate's own ID never conflicts with itself.
func checkBookable(ctx context.Context, tx persistence.Tx, candidate persistence.Session) error {
	mentor, err := tx.GetMentor(ctx, candidate.MentorID)
	if err != nil {
		return fmt.Errorf("mentor %s: %w", candidate.MentorID, err)
	}
	if mentor.Status != persistence.AccountActive {
		return ErrMentorInactive
	}

	booking := sessionBooking(candidate)
	slots, err := tx.ListAvailability(ctx, candidate.MentorID, candidate.SessionDate.ISOWeekday())
	if err != nil {
		return err
	}
	if _, ok := scheduler.FindWindow(slotWindows(slots), candidate.SessionDate, booking.Interval); !ok {
		return ErrMentorNotAvailable
	}

	filter := persistence.HoldingFilter(candidate.MentorID)
	filter.Date = candidate.SessionDate
	active, err := tx.ListSessions(ctx, filter)
	if err != nil {
		return err
	}
	if conflicts := scheduler.DetectConflicts(sessionBookings(active), booking); len(conflicts) > 0 {
		return fmt.Errorf("%w: overlaps session %s", ErrSessionConflict, conflicts[0].ID)
	}
	return nil
}
