package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/example/tutor-marketplace/internal/lifecycle"
	"github.com/example/tutor-marketplace/internal/persistence"
)

const (
	minRating        = 1
	maxRating        = 5
	maxCommentLength = 2000
)

// ReviewService records reviews of completed sessions and keeps the mentor's
// average rating in step with them.
type ReviewService struct {
	deps Dependencies
}

// NewReviewService wires dependencies for review operations.
func NewReviewService(deps Dependencies) *ReviewService {
	return &ReviewService{deps: deps.withDefaults()}
}

func (s *ReviewService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.deps.Logger, "ReviewService", operation, attrs...)
}

// SubmitReview stores the principal's review of a completed session, then
// recomputes the mentor's average rating in a second transaction. A failed
// recomputation leaves the review committed and marks the receipt stale.
func (s *ReviewService) SubmitReview(ctx context.Context, params SubmitReviewParams) (receipt ReviewReceipt, err error) {
	if s == nil {
		err = fmt.Errorf("ReviewService is nil")
		return
	}

	started := time.Now()
	logger := s.loggerWith(ctx, "SubmitReview",
		"principal_id", params.Principal.UserID,
		"session_id", params.SessionID,
	)
	defer func() {
		s.deps.Metrics.ObserveOperation("review", "submit", outcome(err), time.Since(started))
		if err != nil {
			logger.ErrorContext(ctx, "failed to submit review", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("review_id", receipt.Review.ID).InfoContext(ctx, "review submitted",
			"rating", receipt.Review.Rating,
			"aggregate_stale", receipt.AggregateStale,
		)
	}()

	if params.SessionID == "" {
		err = newValidationError("session_id", "is required")
		return
	}

	review := persistence.Review{
		ID:        s.deps.IDGenerator(),
		SessionID: params.SessionID,
		StudentID: params.Principal.UserID,
		Rating:    params.Rating,
		Comment:   normalizeOptionalString(params.Comment),
		CreatedAt: s.deps.Now(),
	}

	err = s.deps.Store.WithinTransaction(ctx, func(ctx context.Context, tx persistence.Tx) error {
		session, err := tx.GetSession(ctx, params.SessionID)
		if err != nil {
			return err
		}
		if params.Principal.partyOf(session) != lifecycle.PartyStudent {
			return ErrForbidden
		}

		vErr := &ValidationError{}
		if session.Status != lifecycle.Completed {
			vErr.add("session_id", "session must be completed before it can be reviewed")
		}
		if params.Rating < minRating || params.Rating > maxRating {
			vErr.add("rating", fmt.Sprintf("must be between %d and %d", minRating, maxRating))
		}
		if review.Comment != nil && len(*review.Comment) > maxCommentLength {
			vErr.add("comment", fmt.Sprintf("must be at most %d characters", maxCommentLength))
		}
		if vErr.HasErrors() {
			return vErr
		}

		if _, err := tx.GetReviewBySession(ctx, params.SessionID); err == nil {
			return ErrReviewExists
		} else if !errors.Is(err, persistence.ErrNotFound) {
			return err
		}

		review.MentorID = session.MentorID
		if err := tx.CreateReview(ctx, review); err != nil {
			if errors.Is(err, persistence.ErrDuplicate) {
				return fmt.Errorf("%w: %v", ErrReviewExists, err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		err = mapRepoError("submit review", err)
		return
	}

	receipt.Review = review
	average, recomputeErr := s.recompute(ctx, review.MentorID)
	if recomputeErr != nil {
		logger.WarnContext(ctx, "review committed but mentor rating is stale",
			"mentor_id", review.MentorID,
			"error", recomputeErr,
		)
		receipt.AggregateStale = true
		return
	}
	receipt.AverageRating = average
	return
}

// RecomputeMentorRating rebuilds one mentor's average rating from its reviews.
func (s *ReviewService) RecomputeMentorRating(ctx context.Context, principal Principal, mentorID string) (average float64, err error) {
	if s == nil {
		err = fmt.Errorf("ReviewService is nil")
		return
	}

	started := time.Now()
	logger := s.loggerWith(ctx, "RecomputeMentorRating",
		"principal_id", principal.UserID,
		"mentor_id", mentorID,
	)
	defer func() {
		s.deps.Metrics.ObserveOperation("review", "recompute", outcome(err), time.Since(started))
		if err != nil {
			logger.ErrorContext(ctx, "failed to recompute mentor rating", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "mentor rating recomputed", "average_rating", average)
	}()

	if !principal.IsAdmin() {
		err = ErrForbidden
		return
	}
	if mentorID == "" {
		err = newValidationError("mentor_id", "is required")
		return
	}
	average, err = s.recompute(ctx, mentorID)
	if err != nil {
		err = mapRepoError("recompute mentor rating", err)
	}
	return
}

func (s *ReviewService) recompute(ctx context.Context, mentorID string) (float64, error) {
	var average float64
	err := s.deps.Store.WithinTransaction(ctx, func(ctx context.Context, tx persistence.Tx) error {
		mentor, err := tx.GetMentor(ctx, mentorID)
		if err != nil {
			return err
		}
		summary, err := tx.SummarizeRatings(ctx, mentorID)
		if err != nil {
			return err
		}
		average = summary.Average
		return tx.UpdateMentorCounters(ctx, mentorID, persistence.MentorCounters{
			TotalSessions: mentor.TotalSessions,
			AverageRating: summary.Average,
		}, s.deps.Now())
	})
	return average, err
}

// MentorReviews lists a mentor's reviews newest first with rating stats.
func (s *ReviewService) MentorReviews(ctx context.Context, mentorID string) (result MentorReviews, err error) {
	if s == nil {
		err = fmt.Errorf("ReviewService is nil")
		return
	}

	started := time.Now()
	defer func() {
		s.deps.Metrics.ObserveOperation("review", "list", outcome(err), time.Since(started))
		if err != nil {
			s.loggerWith(ctx, "MentorReviews", "mentor_id", mentorID).
				ErrorContext(ctx, "failed to list reviews", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if mentorID == "" {
		err = newValidationError("mentor_id", "is required")
		return
	}

	var reviews []persistence.Review
	err = s.deps.Store.WithinReadOnly(ctx, func(ctx context.Context, tx persistence.Tx) error {
		if _, err := tx.GetMentor(ctx, mentorID); err != nil {
			return err
		}
		var err error
		reviews, err = tx.ListReviews(ctx, mentorID)
		return err
	})
	if err != nil {
		err = mapRepoError("mentor reviews", err)
		return
	}

	result = MentorReviews{MentorID: mentorID, Reviews: reviews, Stats: summarizeRatings(reviews)}
	return
}

// summarizeRatings counts ratings 1..5 and rounds the mean to one decimal.
func summarizeRatings(reviews []persistence.Review) RatingStats {
	stats := RatingStats{Distribution: make(map[int]int, maxRating)}
	for rating := minRating; rating <= maxRating; rating++ {
		stats.Distribution[rating] = 0
	}
	if len(reviews) == 0 {
		return stats
	}
	sum := 0
	for _, r := range reviews {
		stats.Distribution[r.Rating]++
		sum += r.Rating
	}
	stats.Total = len(reviews)
	stats.Average = math.Round(float64(sum)/float64(len(reviews))*10) / 10
	return stats
}
