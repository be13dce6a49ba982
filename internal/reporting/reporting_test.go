package reporting

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/example/tutor-marketplace/internal/lifecycle"
	"github.com/example/tutor-marketplace/internal/persistence"
	"github.com/example/tutor-marketplace/internal/scheduler"
)

func mustDate(t *testing.T, value string) scheduler.Date {
	t.Helper()
	d, err := scheduler.ParseDate(value)
	require.NoError(t, err)
	return d
}

func sampleDataset(t *testing.T) Dataset {
	t.Helper()
	session := func(id, mentor, date string, status lifecycle.Status) persistence.Session {
		return persistence.Session{ID: id, MentorID: mentor, StudentID: "st-1", SessionDate: mustDate(t, date), Status: status}
	}
	review := func(id, mentor string, rating int, created time.Time) persistence.Review {
		return persistence.Review{ID: id, MentorID: mentor, Rating: rating, CreatedAt: created}
	}
	return Dataset{
		Mentors: []persistence.Mentor{
			{ID: "m-1", Name: "Ana", Email: "ana@example.com", Status: persistence.AccountActive},
			{ID: "m-2", Name: "Ben", Email: "ben@example.com", Status: persistence.AccountActive},
			{ID: "m-3", Name: "Cy", Email: "cy@example.com", Status: persistence.AccountInactive},
		},
		Students: []persistence.Student{
			{ID: "st-1", Status: persistence.AccountActive},
			{ID: "st-2", Status: persistence.AccountInactive},
		},
		Sessions: []persistence.Session{
			session("s-1", "m-1", "2024-03-10", lifecycle.Completed),
			session("s-2", "m-1", "2024-03-10", lifecycle.Completed),
			session("s-3", "m-2", "2024-03-01", lifecycle.Cancelled),
			session("s-4", "m-2", "2024-02-20", lifecycle.Completed),
			session("s-5", "m-3", "2024-01-05", lifecycle.NoShow),
		},
		Reviews: []persistence.Review{
			review("r-1", "m-1", 5, time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)),
			review("r-2", "m-1", 4, time.Date(2024, time.March, 10, 13, 0, 0, 0, time.UTC)),
			review("r-3", "m-2", 5, time.Date(2024, time.February, 21, 9, 0, 0, 0, time.UTC)),
			review("r-4", "m-3", 5, time.Date(2024, time.January, 6, 9, 0, 0, 0, time.UTC)),
		},
	}
}

func TestBuildAnalytics(t *testing.T) {
	t.Parallel()

	report := BuildAnalytics(sampleDataset(t), mustDate(t, "2024-03-12"))

	assert.Equal(t, UserStats{TotalMentors: 3, ActiveMentors: 2, TotalStudents: 2, ActiveStudents: 1}, report.Users)
	assert.Equal(t, 5, report.Sessions.Total)
	assert.Equal(t, 3, report.Sessions.ByStatus[lifecycle.Completed])
	assert.Equal(t, 0, report.Sessions.ByStatus[lifecycle.Pending])
	assert.Equal(t, []DailyCount{
		{Date: mustDate(t, "2024-03-10"), Count: 2},
		{Date: mustDate(t, "2024-03-01"), Count: 1},
		{Date: mustDate(t, "2024-02-20"), Count: 1},
	}, report.Trend)
	assert.Equal(t, RatingStats{TotalReviews: 4, AverageRating: 4.75}, report.Ratings)
	assert.Equal(t, Engagement{SessionsLast7Days: 2, ReviewsLast7Days: 2}, report.Engagement)

	require.Len(t, report.TopMentors, 2, "inactive mentors are not ranked")
	assert.Equal(t, "m-2", report.TopMentors[0].MentorID)
	assert.Equal(t, 5.0, report.TopMentors[0].AverageRating)
	assert.Equal(t, "m-1", report.TopMentors[1].MentorID)
	assert.Equal(t, 4.5, report.TopMentors[1].AverageRating)
}

func TestBuildAnalyticsEmpty(t *testing.T) {
	t.Parallel()

	report := BuildAnalytics(Dataset{}, mustDate(t, "2024-03-12"))
	assert.Zero(t, report.Ratings.AverageRating)
	assert.Empty(t, report.Trend)
	assert.Empty(t, report.TopMentors)
	assert.Len(t, report.Sessions.ByStatus, len(lifecycle.Statuses()))
}

func TestBuildFinancial(t *testing.T) {
	t.Parallel()

	t.Run("all time at default rate", func(t *testing.T) {
		t.Parallel()

		report := BuildFinancial(sampleDataset(t), 0, Range{})
		assert.Equal(t, FinancialSummary{TotalSessions: 5, CompletedSessions: 3, TotalRevenue: 60, SessionRate: DefaultSessionRate}, report.Summary)
		require.Len(t, report.Monthly, 3)
		assert.Equal(t, MonthlyRevenue{Month: "2024-03", TotalSessions: 3, CompletedSessions: 2, CancelledSessions: 1, Revenue: 40}, report.Monthly[0])
		assert.Equal(t, "2024-01", report.Monthly[2].Month)
		require.Len(t, report.TopEarners, 2)
		assert.Equal(t, MentorEarnings{MentorID: "m-1", Name: "Ana", Email: "ana@example.com", CompletedSessions: 2, Earnings: 40}, report.TopEarners[0])
	})

	t.Run("bounded range and custom rate", func(t *testing.T) {
		t.Parallel()

		report := BuildFinancial(sampleDataset(t), 35, Range{From: mustDate(t, "2024-03-01"), To: mustDate(t, "2024-03-31")})
		assert.Equal(t, 3, report.Summary.TotalSessions)
		assert.Equal(t, 70.0, report.Summary.TotalRevenue)
		require.Len(t, report.Monthly, 1)
		require.Len(t, report.TopEarners, 1)
		assert.Equal(t, "m-1", report.TopEarners[0].MentorID)
	})
}

func TestWriteAnalyticsXLSX(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteAnalyticsXLSX(&buf, BuildAnalytics(sampleDataset(t), mustDate(t, "2024-03-12"))))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Overview", "Trend", "Top mentors"}, f.GetSheetList())
	rows, err := f.GetRows("Top mentors")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Mentor ID", "Name", "English level", "Average rating", "Reviews"}, rows[0])
	assert.Equal(t, "m-2", rows[1][0])
}

func TestWriteFinancialXLSX(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteFinancialXLSX(&buf, BuildFinancial(sampleDataset(t), 20, Range{})))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Monthly")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "2024-03", rows[1][0])
	assert.Equal(t, "40", rows[1][4])
}
