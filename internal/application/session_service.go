package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/tutor-marketplace/internal/lifecycle"
	"github.com/example/tutor-marketplace/internal/persistence"
)

// SessionService drives the session status lifecycle and session reads.
type SessionService struct {
	deps Dependencies
}

// NewSessionService wires dependencies for lifecycle operations.
func NewSessionService(deps Dependencies) *SessionService {
	return &SessionService{deps: deps.withDefaults()}
}

func (s *SessionService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.deps.Logger, "SessionService", operation, attrs...)
}

// Transition applies a status change allowed by the lifecycle table together
// with its side effect. Completion increments both parties' session counters
// in the same transaction.
func (s *SessionService) Transition(ctx context.Context, params TransitionParams) (session persistence.Session, err error) {
	if s == nil {
		err = fmt.Errorf("SessionService is nil")
		return
	}

	started := time.Now()
	logger := s.loggerWith(ctx, "Transition",
		"principal_id", params.Principal.UserID,
		"session_id", params.SessionID,
		"target_status", params.Status,
	)
	var from lifecycle.Status
	defer func() {
		s.deps.Metrics.ObserveOperation("lifecycle", "transition", outcome(err), time.Since(started))
		if err != nil {
			logger.ErrorContext(ctx, "failed to transition session", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "session transitioned", "from_status", from.String())
	}()

	vErr := &ValidationError{}
	requireID("session_id", params.SessionID, vErr)
	target, parseErr := lifecycle.ParseStatus(params.Status)
	if parseErr != nil {
		vErr.add("status", "must be one of pending, confirmed, completed, cancelled, no_show")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	err = s.deps.Store.WithinTransaction(ctx, func(ctx context.Context, tx persistence.Tx) error {
		current, err := tx.GetSession(ctx, params.SessionID)
		if err != nil {
			return err
		}
		from = current.Status

		effect, err := lifecycle.Evaluate(current.Status, target, params.Principal.partyOf(current))
		switch {
		case errors.Is(err, lifecycle.ErrNotParty), errors.Is(err, lifecycle.ErrPartyNotAllowed):
			return fmt.Errorf("%w: %v", ErrForbidden, err)
		case err != nil:
			return err
		}

		now := s.deps.Now()
		current.Status = target
		current.UpdatedAt = now
		switch effect {
		case lifecycle.EffectRecordCancellation:
			if reason := normalizeOptionalString(params.CancellationReason); reason != nil {
				current.CancellationReason = reason
			}
		case lifecycle.EffectCountCompletion:
			if err := tx.IncrementMentorSessions(ctx, current.MentorID, now); err != nil {
				return err
			}
			if err := tx.IncrementStudentSessions(ctx, current.StudentID, now); err != nil {
				return err
			}
		}
		if err := tx.UpdateSession(ctx, current); err != nil {
			return err
		}
		session = current
		return nil
	})
	if err != nil {
		session = persistence.Session{}
		err = mapRepoError("transition session", err)
	}
	return
}

// AttachFeedback stores the principal's feedback on the session. Mentors write
// mentor_feedback and students student_feedback, at any status.
func (s *SessionService) AttachFeedback(ctx context.Context, params FeedbackParams) (session persistence.Session, err error) {
	if s == nil {
		err = fmt.Errorf("SessionService is nil")
		return
	}

	started := time.Now()
	logger := s.loggerWith(ctx, "AttachFeedback",
		"principal_id", params.Principal.UserID,
		"session_id", params.SessionID,
	)
	defer func() {
		s.deps.Metrics.ObserveOperation("lifecycle", "feedback", outcome(err), time.Since(started))
		if err != nil {
			logger.ErrorContext(ctx, "failed to attach feedback", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "feedback attached")
	}()

	feedback := strings.TrimSpace(params.Feedback)
	vErr := &ValidationError{}
	requireID("session_id", params.SessionID, vErr)
	switch {
	case feedback == "":
		vErr.add("feedback", "is required")
	case len(feedback) > maxFeedbackLength:
		vErr.add("feedback", fmt.Sprintf("must be at most %d characters", maxFeedbackLength))
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	err = s.deps.Store.WithinTransaction(ctx, func(ctx context.Context, tx persistence.Tx) error {
		current, err := tx.GetSession(ctx, params.SessionID)
		if err != nil {
			return err
		}
		switch params.Principal.partyOf(current) {
		case lifecycle.PartyMentor:
			current.MentorFeedback = &feedback
		case lifecycle.PartyStudent:
			current.StudentFeedback = &feedback
		default:
			return ErrForbidden
		}
		current.UpdatedAt = s.deps.Now()
		if err := tx.UpdateSession(ctx, current); err != nil {
			return err
		}
		session = current
		return nil
	})
	if err != nil {
		session = persistence.Session{}
		err = mapRepoError("attach feedback", err)
	}
	return
}

// GetSession returns one session visible to the principal.
func (s *SessionService) GetSession(ctx context.Context, principal Principal, sessionID string) (session persistence.Session, err error) {
	if s == nil {
		err = fmt.Errorf("SessionService is nil")
		return
	}

	started := time.Now()
	defer func() {
		s.deps.Metrics.ObserveOperation("lifecycle", "get", outcome(err), time.Since(started))
	}()

	err = s.deps.Store.WithinReadOnly(ctx, func(ctx context.Context, tx persistence.Tx) error {
		var err error
		session, err = tx.GetSession(ctx, sessionID)
		return err
	})
	if err != nil {
		session = persistence.Session{}
		err = mapRepoError("get session", err)
		return
	}
	if !principal.CanViewAll() && principal.partyOf(session) == lifecycle.PartyNone {
		session = persistence.Session{}
		err = ErrForbidden
	}
	return
}

// ListSessions returns the sessions visible to the principal, newest first.
// Students and mentors see their own sessions; admins and counselors see all.
func (s *SessionService) ListSessions(ctx context.Context, params ListSessionsParams) (sessions []persistence.Session, err error) {
	if s == nil {
		err = fmt.Errorf("SessionService is nil")
		return
	}

	started := time.Now()
	logger := s.loggerWith(ctx, "ListSessions", "principal_id", params.Principal.UserID)
	defer func() {
		s.deps.Metrics.ObserveOperation("lifecycle", "list", outcome(err), time.Since(started))
		if err != nil {
			logger.ErrorContext(ctx, "failed to list sessions", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	var filter persistence.SessionFilter
	switch {
	case params.Principal.CanViewAll():
	case params.Principal.Role == RoleStudent && params.Principal.UserID != "":
		filter.StudentID = params.Principal.UserID
	case params.Principal.Role == RoleMentor && params.Principal.UserID != "":
		filter.MentorID = params.Principal.UserID
	default:
		err = ErrForbidden
		return
	}

	vErr := &ValidationError{}
	if strings.TrimSpace(params.Status) != "" {
		status, parseErr := lifecycle.ParseStatus(params.Status)
		if parseErr != nil {
			vErr.add("status", "is not a known session status")
		} else {
			filter.Statuses = []lifecycle.Status{status}
		}
	}
	filter.From = parseOptionalDate("from", params.From, vErr)
	filter.To = parseOptionalDate("to", params.To, vErr)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	err = s.deps.Store.WithinReadOnly(ctx, func(ctx context.Context, tx persistence.Tx) error {
		var err error
		sessions, err = tx.ListSessions(ctx, filter)
		return err
	})
	if err != nil {
		sessions = nil
		err = mapRepoError("list sessions", err)
	}
	return
}
