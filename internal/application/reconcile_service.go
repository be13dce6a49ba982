package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/tutor-marketplace/internal/lifecycle"
	"github.com/example/tutor-marketplace/internal/persistence"
)

// ReconcileService rebuilds the denormalized counters from source rows.
// Only completed sessions count toward total_sessions.
type ReconcileService struct {
	deps Dependencies
}

// NewReconcileService wires dependencies for counter reconciliation.
func NewReconcileService(deps Dependencies) *ReconcileService {
	return &ReconcileService{deps: deps.withDefaults()}
}

func (s *ReconcileService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.deps.Logger, "ReconcileService", operation, attrs...)
}

// Reconcile recomputes every mentor's total_sessions and average_rating and
// every student's total_sessions in one transaction, writing only rows that drifted.
func (s *ReconcileService) Reconcile(ctx context.Context, principal Principal) (report ReconcileReport, err error) {
	if s == nil {
		err = fmt.Errorf("ReconcileService is nil")
		return
	}

	started := time.Now()
	logger := s.loggerWith(ctx, "Reconcile", "principal_id", principal.UserID)
	defer func() {
		s.deps.Metrics.ObserveOperation("reconcile", "run", outcome(err), time.Since(started))
		if err != nil {
			logger.ErrorContext(ctx, "failed to reconcile counters", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "counters reconciled",
			"mentors_checked", report.MentorsChecked,
			"mentors_corrected", report.MentorsCorrected,
			"students_checked", report.StudentsChecked,
			"students_corrected", report.StudentsCorrected,
		)
	}()

	if !principal.IsAdmin() {
		err = ErrForbidden
		return
	}

	completed := []lifecycle.Status{lifecycle.Completed}
	err = s.deps.Store.WithinTransaction(ctx, func(ctx context.Context, tx persistence.Tx) error {
		report = ReconcileReport{}
		now := s.deps.Now()

		mentors, err := tx.ListMentors(ctx, persistence.MentorFilter{})
		if err != nil {
			return err
		}
		for _, mentor := range mentors {
			total, err := tx.CountSessions(ctx, persistence.SessionFilter{MentorID: mentor.ID, Statuses: completed})
			if err != nil {
				return err
			}
			summary, err := tx.SummarizeRatings(ctx, mentor.ID)
			if err != nil {
				return err
			}
			report.MentorsChecked++
			if total == mentor.TotalSessions && summary.Average == mentor.AverageRating {
				continue
			}
			counters := persistence.MentorCounters{TotalSessions: total, AverageRating: summary.Average}
			if err := tx.UpdateMentorCounters(ctx, mentor.ID, counters, now); err != nil {
				return err
			}
			report.MentorsCorrected++
		}

		students, err := tx.ListStudents(ctx)
		if err != nil {
			return err
		}
		for _, student := range students {
			total, err := tx.CountSessions(ctx, persistence.SessionFilter{StudentID: student.ID, Statuses: completed})
			if err != nil {
				return err
			}
			report.StudentsChecked++
			if total == student.TotalSessions {
				continue
			}
			if err := tx.SetStudentSessions(ctx, student.ID, total, now); err != nil {
				return err
			}
			report.StudentsCorrected++
		}
		return nil
	})
	if err != nil {
		report = ReconcileReport{}
		err = mapRepoError("reconcile", err)
	}
	return
}
