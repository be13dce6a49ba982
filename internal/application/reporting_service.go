package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/tutor-marketplace/internal/persistence"
	"github.com/example/tutor-marketplace/internal/reporting"
)

// ReportingService produces the administrative reports.
type ReportingService struct {
	deps        Dependencies
	sessionRate float64
}

// NewReportingService wires dependencies for reports. A non-positive rate
// selects reporting.DefaultSessionRate.
func NewReportingService(deps Dependencies, sessionRate float64) *ReportingService {
	if sessionRate <= 0 {
		sessionRate = reporting.DefaultSessionRate
	}
	return &ReportingService{deps: deps.withDefaults(), sessionRate: sessionRate}
}

func (s *ReportingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.deps.Logger, "ReportingService", operation, attrs...)
}

// Analytics returns the platform overview as of the service clock's date.
func (s *ReportingService) Analytics(ctx context.Context, principal Principal) (report reporting.Analytics, err error) {
	if s == nil {
		err = fmt.Errorf("ReportingService is nil")
		return
	}

	started := time.Now()
	logger := s.loggerWith(ctx, "Analytics", "principal_id", principal.UserID)
	defer func() {
		s.deps.Metrics.ObserveOperation("reporting", "analytics", outcome(err), time.Since(started))
		if err != nil {
			logger.ErrorContext(ctx, "failed to build analytics", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "analytics built", "sessions", report.Sessions.Total)
	}()

	if !principal.IsAdmin() {
		err = ErrForbidden
		return
	}

	var data reporting.Dataset
	if data, err = s.load(ctx); err != nil {
		return
	}
	report = reporting.BuildAnalytics(data, reporting.Today(s.deps.Now()))
	return
}

// Financial returns revenue rollups over an optional session date range.
func (s *ReportingService) Financial(ctx context.Context, params FinancialParams) (report reporting.Financial, err error) {
	if s == nil {
		err = fmt.Errorf("ReportingService is nil")
		return
	}

	started := time.Now()
	logger := s.loggerWith(ctx, "Financial", "principal_id", params.Principal.UserID)
	defer func() {
		s.deps.Metrics.ObserveOperation("reporting", "financial", outcome(err), time.Since(started))
		if err != nil {
			logger.ErrorContext(ctx, "failed to build financial report", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "financial report built", "revenue", report.Summary.TotalRevenue)
	}()

	if !params.Principal.IsAdmin() {
		err = ErrForbidden
		return
	}

	vErr := &ValidationError{}
	window := reporting.Range{
		From: parseOptionalDate("from", params.From, vErr),
		To:   parseOptionalDate("to", params.To, vErr),
	}
	if !window.From.IsZero() && !window.To.IsZero() && window.To.Before(window.From) {
		vErr.add("to", "must not be before from")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var data reporting.Dataset
	if data, err = s.load(ctx); err != nil {
		return
	}
	report = reporting.BuildFinancial(data, s.sessionRate, window)
	return
}

// StudentProgress reports one student's learning history. Students see their
// own report; admins and counselors may name any student.
func (s *ReportingService) StudentProgress(ctx context.Context, params StudentProgressParams) (progress reporting.Progress, err error) {
	if s == nil {
		err = fmt.Errorf("ReportingService is nil")
		return
	}

	studentID := params.StudentID
	if studentID == "" {
		studentID = params.Principal.UserID
	}

	started := time.Now()
	logger := s.loggerWith(ctx, "StudentProgress",
		"principal_id", params.Principal.UserID,
		"student_id", studentID,
	)
	defer func() {
		s.deps.Metrics.ObserveOperation("reporting", "student_progress", outcome(err), time.Since(started))
		if err != nil {
			logger.ErrorContext(ctx, "failed to build student progress", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "student progress built", "sessions", progress.Stats.TotalSessions)
	}()

	switch {
	case params.Principal.CanViewAll():
	case params.Principal.Role == RoleStudent && params.Principal.UserID == studentID:
	default:
		err = ErrForbidden
		return
	}
	if studentID == "" {
		err = newValidationError("student_id", "is required")
		return
	}

	in := reporting.ProgressInput{MentorNames: make(map[string]string)}
	err = s.deps.Store.WithinReadOnly(ctx, func(ctx context.Context, tx persistence.Tx) error {
		var err error
		if in.Student, err = tx.GetStudent(ctx, studentID); err != nil {
			return err
		}
		if in.Sessions, err = tx.ListSessions(ctx, persistence.SessionFilter{StudentID: studentID}); err != nil {
			return err
		}
		all, err := tx.ListReviews(ctx, "")
		if err != nil {
			return err
		}
		for _, r := range all {
			if r.StudentID == studentID {
				in.Reviews = append(in.Reviews, r)
			}
		}
		for _, session := range in.Sessions {
			if _, seen := in.MentorNames[session.MentorID]; seen {
				continue
			}
			mentor, err := tx.GetMentor(ctx, session.MentorID)
			if err != nil {
				return err
			}
			in.MentorNames[session.MentorID] = mentor.Name
		}
		return nil
	})
	if err != nil {
		err = mapRepoError("student progress", err)
		return
	}
	progress = reporting.BuildProgress(in)
	return
}

func (s *ReportingService) load(ctx context.Context) (reporting.Dataset, error) {
	var data reporting.Dataset
	err := s.deps.Store.WithinReadOnly(ctx, func(ctx context.Context, tx persistence.Tx) error {
		var err error
		if data.Mentors, err = tx.ListMentors(ctx, persistence.MentorFilter{}); err != nil {
			return err
		}
		if data.Students, err = tx.ListStudents(ctx); err != nil {
			return err
		}
		if data.Sessions, err = tx.ListSessions(ctx, persistence.SessionFilter{}); err != nil {
			return err
		}
		data.Reviews, err = tx.ListReviews(ctx, "")
		return err
	})
	if err != nil {
		return reporting.Dataset{}, mapRepoError("load report data", err)
	}
	return data, nil
}
