package application_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/tutor-marketplace/internal/application"
	"github.com/example/tutor-marketplace/internal/lifecycle"
	"github.com/example/tutor-marketplace/internal/testfixtures"
)

func TestReportingServiceBuildsReportsFromTheStore(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	session := h.complete(t, "2024-03-18")
	_, err := h.review(t, session.ID, 5)
	require.NoError(t, err)
	cancelled := h.mustBook(t, "11:00", "12:00")
	_, err = h.transition(t, h.student.Principal(), cancelled.ID, "cancelled")
	require.NoError(t, err)

	_, err = h.services.Reporting.Analytics(ctx, h.mentor.Principal())
	assert.ErrorIs(t, err, application.ErrForbidden)

	analytics, err := h.services.Reporting.Analytics(ctx, testfixtures.Admin())
	require.NoError(t, err)
	assert.Equal(t, h.factory.Clock.Today(), analytics.Today)
	assert.Equal(t, 2, analytics.Sessions.Total)
	assert.Equal(t, 1, analytics.Sessions.ByStatus[lifecycle.Completed])
	assert.Equal(t, 1, analytics.Sessions.ByStatus[lifecycle.Cancelled])
	assert.Equal(t, 1, analytics.Ratings.TotalReviews)
	assert.Equal(t, 5.0, analytics.Ratings.AverageRating)
	require.Len(t, analytics.TopMentors, 1)
	assert.Equal(t, h.mentor.ID, analytics.TopMentors[0].MentorID)

	financial, err := h.services.Reporting.Financial(ctx, application.FinancialParams{Principal: testfixtures.Admin()})
	require.NoError(t, err)
	assert.Equal(t, 2, financial.Summary.TotalSessions)
	assert.Equal(t, 1, financial.Summary.CompletedSessions)
	assert.Equal(t, 20.0, financial.Summary.TotalRevenue)
	require.Len(t, financial.Monthly, 1)
	assert.Equal(t, "2024-03", financial.Monthly[0].Month)
	assert.Equal(t, 1, financial.Monthly[0].CancelledSessions)

	narrowed, err := h.services.Reporting.Financial(ctx, application.FinancialParams{
		Principal: testfixtures.Admin(),
		From:      "2024-04-01",
	})
	require.NoError(t, err)
	assert.Zero(t, narrowed.Summary.TotalSessions)

	_, err = h.services.Reporting.Financial(ctx, application.FinancialParams{
		Principal: testfixtures.Admin(),
		From:      "2024-04-01",
		To:        "2024-03-01",
	})
	var vErr *application.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.FieldErrors, "to")
}

func TestStudentProgress(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	done := h.complete(t, "2024-03-18")
	_, err := h.review(t, done.ID, 4)
	require.NoError(t, err)
	cancelled := h.mustBook(t, "10:00", "11:00")
	_, err = h.transition(t, h.student.Principal(), cancelled.ID, "cancelled")
	require.NoError(t, err)
	upcoming := h.mustBook(t, "11:00", "12:00")

	progress, err := h.services.Reporting.StudentProgress(ctx, application.StudentProgressParams{Principal: h.student.Principal()})
	require.NoError(t, err)
	assert.Equal(t, h.student.ID, progress.StudentID)
	assert.Equal(t, 3, progress.Stats.TotalSessions)
	assert.Equal(t, 1, progress.Stats.CompletedSessions)
	assert.Equal(t, 1, progress.Stats.UpcomingSessions)
	assert.Equal(t, 1, progress.Stats.CancelledSessions)
	assert.Equal(t, 1, progress.Stats.UniqueMentors)
	assert.Equal(t, 1, progress.Stats.ReviewsSubmitted)
	require.NotNil(t, progress.Stats.AverageRatingGiven)
	assert.Equal(t, 4.0, *progress.Stats.AverageRatingGiven)
	require.Len(t, progress.RecentActivity, 3)
	assert.Equal(t, upcoming.ID, progress.RecentActivity[0].SessionID, "latest start first on the same date")
	assert.Equal(t, h.mentor.Persistence().Name, progress.RecentActivity[0].MentorName)

	other := testfixtures.NewStudentFixture()
	testfixtures.Seed(t, h.store, other.Persistence())
	for _, p := range []application.Principal{h.mentor.Principal(), other.Principal()} {
		_, err = h.services.Reporting.StudentProgress(ctx, application.StudentProgressParams{Principal: p, StudentID: h.student.ID})
		assert.ErrorIs(t, err, application.ErrForbidden)
	}

	viaAdmin, err := h.services.Reporting.StudentProgress(ctx, application.StudentProgressParams{
		Principal: testfixtures.Admin(),
		StudentID: h.student.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, progress.Stats, viaAdmin.Stats)

	_, err = h.services.Reporting.StudentProgress(ctx, application.StudentProgressParams{
		Principal: testfixtures.Admin(),
		StudentID: "student-missing",
	})
	assert.ErrorIs(t, err, application.ErrNotFound)
}
