package application_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/tutor-marketplace/internal/application"
	"github.com/example/tutor-marketplace/internal/persistence"
	"github.com/example/tutor-marketplace/internal/testfixtures"
)

func (h *harness) review(t *testing.T, sessionID string, rating int) (application.ReviewReceipt, error) {
	t.Helper()
	return h.services.Reviews.SubmitReview(context.Background(), application.SubmitReviewParams{
		Principal: h.student.Principal(),
		SessionID: sessionID,
		Rating:    rating,
	})
}

func TestSubmitReviewOncePerSession(t *testing.T) {
	h := newHarness(t)
	session := h.complete(t, "2024-03-18")

	receipt, err := h.review(t, session.ID, 4)
	require.NoError(t, err)
	assert.False(t, receipt.AggregateStale)
	assert.Equal(t, 4.0, receipt.AverageRating)
	assert.Equal(t, h.mentor.ID, receipt.Review.MentorID)
	assert.Equal(t, 4.0, h.mentorRow(t).AverageRating)

	_, err = h.review(t, session.ID, 5)
	assert.ErrorIs(t, err, application.ErrReviewExists)
	assert.Equal(t, 4.0, h.mentorRow(t).AverageRating)
}

func TestSubmitReviewRequirements(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	pending := h.mustBook(t, "11:00", "12:00")
	_, err := h.review(t, pending.ID, 5)
	var vErr *application.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.FieldErrors, "session_id")

	completed := h.complete(t, "2024-03-25")
	_, err = h.review(t, completed.ID, 6)
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.FieldErrors, "rating")

	_, err = h.services.Reviews.SubmitReview(ctx, application.SubmitReviewParams{
		Principal: h.mentor.Principal(),
		SessionID: completed.ID,
		Rating:    5,
	})
	assert.ErrorIs(t, err, application.ErrForbidden, "mentors cannot review their own sessions")

	_, err = h.review(t, "session-missing", 5)
	assert.ErrorIs(t, err, application.ErrNotFound)
}

func TestConcurrentReviewsOfOneSession(t *testing.T) {
	h := newHarness(t)
	session := h.complete(t, "2024-03-18")

	const attempts = 5
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.review(t, session.ID, 3)
			if err != nil && !errors.Is(err, application.ErrReviewExists) {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	testfixtures.Read(t, h.store, func(ctx context.Context, tx persistence.Tx) error {
		reviews, err := tx.ListReviews(ctx, h.mentor.ID)
		require.NoError(t, err)
		assert.Len(t, reviews, 1)
		return nil
	})
}

func TestAverageRatingIsTheMeanOfReviews(t *testing.T) {
	h := newHarness(t)

	ratings := []int{5, 4, 4, 2}
	for i, rating := range ratings {
		date := testfixtures.MustDate("2024-03-18").AddDays(7 * i).String()
		session := h.complete(t, date)
		_, err := h.review(t, session.ID, rating)
		require.NoError(t, err)
	}

	mentor := h.mentorRow(t)
	assert.InDelta(t, 3.75, mentor.AverageRating, 1e-9)
	assert.Equal(t, len(ratings), mentor.TotalSessions)

	result, err := h.services.Reviews.MentorReviews(context.Background(), h.mentor.ID)
	require.NoError(t, err)
	assert.Len(t, result.Reviews, 4)
	assert.Equal(t, 4, result.Stats.Total)
	assert.Equal(t, 3.8, result.Stats.Average)
	assert.Equal(t, map[int]int{1: 0, 2: 1, 3: 0, 4: 2, 5: 1}, result.Stats.Distribution)
}

func TestRecomputeMentorRating(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	session := h.complete(t, "2024-03-18")
	testfixtures.Seed(t, h.store, testfixtures.NewReviewFixture(session, testfixtures.WithReviewRating(2)).Persistence())
	assert.Zero(t, h.mentorRow(t).AverageRating, "seeded reviews bypass the aggregate")

	_, err := h.services.Reviews.RecomputeMentorRating(ctx, h.student.Principal(), h.mentor.ID)
	assert.ErrorIs(t, err, application.ErrForbidden)

	average, err := h.services.Reviews.RecomputeMentorRating(ctx, testfixtures.Admin(), h.mentor.ID)
	require.NoError(t, err)
	assert.Equal(t, 2.0, average)
	assert.Equal(t, 2.0, h.mentorRow(t).AverageRating)
	assert.Equal(t, 1, h.mentorRow(t).TotalSessions)

	_, err = h.services.Reviews.RecomputeMentorRating(ctx, testfixtures.Admin(), "mentor-missing")
	assert.ErrorIs(t, err, application.ErrNotFound)
}

func TestMentorReviewsWithoutReviews(t *testing.T) {
	h := newHarness(t)

	result, err := h.services.Reviews.MentorReviews(context.Background(), h.mentor.ID)
	require.NoError(t, err)
	assert.Empty(t, result.Reviews)
	assert.Zero(t, result.Stats.Average)
	assert.Len(t, result.Stats.Distribution, 5)

	_, err = h.services.Reviews.MentorReviews(context.Background(), "mentor-missing")
	assert.ErrorIs(t, err, application.ErrNotFound)
}

func TestMentorReviewsNewestFirst(t *testing.T) {
	h := newHarness(t, testfixtures.WithClock(testfixtures.NewSteppingClock(time.Time{}, time.Minute)))

	older := h.complete(t, "2024-03-18")
	newer := h.complete(t, "2024-03-25")
	_, err := h.review(t, older.ID, 3)
	require.NoError(t, err)
	_, err = h.review(t, newer.ID, 5)
	require.NoError(t, err)

	result, err := h.services.Reviews.MentorReviews(context.Background(), h.mentor.ID)
	require.NoError(t, err)
	require.Len(t, result.Reviews, 2)
	assert.Equal(t, newer.ID, result.Reviews[0].SessionID)
	assert.Equal(t, older.ID, result.Reviews[1].SessionID)
	assert.True(t, result.Reviews[0].CreatedAt.After(result.Reviews[1].CreatedAt))
}

// failNthWrite fails the nth read-write transaction it sees and delegates the rest.
type failNthWrite struct {
	persistence.Store
	n      int
	writes int
}

func (s *failNthWrite) WithinTransaction(ctx context.Context, fn persistence.TxFunc) error {
	s.writes++
	if s.writes == s.n {
		return errors.New("connection reset by peer")
	}
	return s.Store.WithinTransaction(ctx, fn)
}

func TestSubmitReviewLeavesRatingStaleWhenRecomputeFails(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	session := h.complete(t, "2024-03-18")

	reviews := application.NewReviewService(h.factory.Dependencies(&failNthWrite{Store: h.store, n: 2}))
	receipt, err := reviews.SubmitReview(ctx, application.SubmitReviewParams{
		Principal: h.student.Principal(),
		SessionID: session.ID,
		Rating:    4,
	})
	require.NoError(t, err)
	assert.True(t, receipt.AggregateStale)
	assert.Equal(t, session.ID, receipt.Review.SessionID)
	assert.Zero(t, h.mentorRow(t).AverageRating)

	testfixtures.Read(t, h.store, func(ctx context.Context, tx persistence.Tx) error {
		stored, err := tx.GetReviewBySession(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, 4, stored.Rating)
		return nil
	})

	report, err := h.services.Reconcile.Reconcile(ctx, testfixtures.Admin())
	require.NoError(t, err)
	assert.Equal(t, 1, report.MentorsCorrected)
	assert.Equal(t, 4.0, h.mentorRow(t).AverageRating)
}
