package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/tutor-marketplace/internal/lifecycle"
	"github.com/example/tutor-marketplace/internal/persistence"
	"github.com/example/tutor-marketplace/internal/recurrence"
)

// AvailabilityService manages the weekly availability of mentors.
type AvailabilityService struct {
	deps Dependencies
}

// NewAvailabilityService wires dependencies for availability operations.
func NewAvailabilityService(deps Dependencies) *AvailabilityService {
	return &AvailabilityService{deps: deps.withDefaults()}
}

func (s *AvailabilityService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.deps.Logger, "AvailabilityService", operation, attrs...)
}

// ReplaceAvailability validates every slot and swaps the mentor's whole
// availability set in one transaction.
func (s *AvailabilityService) ReplaceAvailability(ctx context.Context, params ReplaceAvailabilityParams) (slots []persistence.AvailabilitySlot, err error) {
	if s == nil {
		err = fmt.Errorf("AvailabilityService is nil")
		return
	}

	started := time.Now()
	logger := s.loggerWith(ctx, "ReplaceAvailability",
		"principal_id", params.Principal.UserID,
		"mentor_id", params.MentorID,
	)
	defer func() {
		s.deps.Metrics.ObserveOperation("availability", "replace", outcome(err), time.Since(started))
		if err != nil {
			logger.ErrorContext(ctx, "failed to replace availability", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "availability replaced", "slot_count", len(slots))
	}()

	if !params.Principal.IsAdmin() && (params.Principal.Role != RoleMentor || params.Principal.UserID != params.MentorID) {
		err = ErrForbidden
		return
	}

	vErr := &ValidationError{}
	requireID("mentor_id", params.MentorID, vErr)
	createdAt := s.deps.Now()
	pending := make([]persistence.AvailabilitySlot, 0, len(params.Slots))
	for i, input := range params.Slots {
		prefix := fmt.Sprintf("slots[%d]", i)
		if input.DayOfWeek < 1 || input.DayOfWeek > 7 {
			vErr.add(prefix+".day_of_week", "must be between 1 and 7")
		}
		interval := parseIntervalFields(prefix, input.StartTime, input.EndTime, vErr)
		pending = append(pending, persistence.AvailabilitySlot{
			MentorID:  params.MentorID,
			DayOfWeek: input.DayOfWeek,
			StartTime: interval.Start,
			EndTime:   interval.End,
			CreatedAt: createdAt,
		})
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}
	for i := range pending {
		pending[i].ID = s.deps.IDGenerator()
	}

	err = s.deps.Store.WithinTransaction(ctx, func(ctx context.Context, tx persistence.Tx) error {
		if _, err := tx.GetMentor(ctx, params.MentorID); err != nil {
			return err
		}
		if err := tx.DeleteAvailability(ctx, params.MentorID); err != nil {
			return err
		}
		for _, slot := range pending {
			if err := tx.InsertAvailability(ctx, slot); err != nil {
				return err
			}
		}
		var err error
		slots, err = tx.ListAvailability(ctx, params.MentorID, 0)
		return err
	})
	if err != nil {
		slots = nil
		err = mapRepoError("replace availability", err)
	}
	return
}

// GetAvailability returns the mentor's slots ordered by day, then start time.
func (s *AvailabilityService) GetAvailability(ctx context.Context, mentorID string) (slots []persistence.AvailabilitySlot, err error) {
	if s == nil {
		err = fmt.Errorf("AvailabilityService is nil")
		return
	}

	started := time.Now()
	defer func() {
		s.deps.Metrics.ObserveOperation("availability", "get", outcome(err), time.Since(started))
		if err != nil {
			s.loggerWith(ctx, "GetAvailability", "mentor_id", mentorID).
				ErrorContext(ctx, "failed to load availability", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if mentorID == "" {
		err = newValidationError("mentor_id", "is required")
		return
	}

	err = s.deps.Store.WithinReadOnly(ctx, func(ctx context.Context, tx persistence.Tx) error {
		if _, err := tx.GetMentor(ctx, mentorID); err != nil {
			return err
		}
		var err error
		slots, err = tx.ListAvailability(ctx, mentorID, 0)
		return err
	})
	if err != nil {
		slots = nil
		err = mapRepoError("get availability", err)
	}
	return
}

// OpenWindows expands the mentor's weekly slots over an inclusive date range
// and removes the ranges already held by pending or confirmed sessions.
func (s *AvailabilityService) OpenWindows(ctx context.Context, params OpenWindowsParams) (open []recurrence.Occurrence, err error) {
	if s == nil {
		err = fmt.Errorf("AvailabilityService is nil")
		return
	}

	started := time.Now()
	logger := s.loggerWith(ctx, "OpenWindows", "mentor_id", params.MentorID)
	defer func() {
		s.deps.Metrics.ObserveOperation("availability", "open_windows", outcome(err), time.Since(started))
		if err != nil {
			logger.ErrorContext(ctx, "failed to compute open windows", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	vErr := &ValidationError{}
	requireID("mentor_id", params.MentorID, vErr)
	from := parseDateField("from", params.From, vErr)
	to := parseDateField("to", params.To, vErr)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var (
		slots    []persistence.AvailabilitySlot
		sessions []persistence.Session
	)
	err = s.deps.Store.WithinReadOnly(ctx, func(ctx context.Context, tx persistence.Tx) error {
		if _, err := tx.GetMentor(ctx, params.MentorID); err != nil {
			return err
		}
		var err error
		if slots, err = tx.ListAvailability(ctx, params.MentorID, 0); err != nil {
			return err
		}
		sessions, err = tx.ListSessions(ctx, persistence.SessionFilter{
			MentorID: params.MentorID,
			From:     from,
			To:       to,
			Statuses: lifecycle.HoldingStatuses(),
		})
		return err
	})
	if err != nil {
		err = mapRepoError("open windows", err)
		return
	}

	occurrences, expandErr := recurrence.Expand(slotWindows(slots), from, to)
	switch {
	case errors.Is(expandErr, recurrence.ErrInvalidWindow):
		err = newValidationError("to", "must not be before from")
		return
	case errors.Is(expandErr, recurrence.ErrRangeTooLong):
		err = newValidationError("to", fmt.Sprintf("range must be shorter than %d days", recurrence.MaxRangeDays))
		return
	case expandErr != nil:
		err = &InternalError{Op: "open windows", Err: expandErr}
		return
	}

	open = recurrence.Subtract(occurrences, sessionBookings(sessions))
	return
}
