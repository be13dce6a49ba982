package reporting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/tutor-marketplace/internal/lifecycle"
	"github.com/example/tutor-marketplace/internal/persistence"
)

func TestBuildProgress(t *testing.T) {
	feedback := "Good pronunciation, keep reading aloud."
	empty := ""
	session := func(id, mentor, date string, status lifecycle.Status, note *string) persistence.Session {
		return persistence.Session{ID: id, MentorID: mentor, StudentID: "st-1", SessionDate: mustDate(t, date), Status: status, MentorFeedback: note}
	}
	joined := time.Date(2023, time.November, 2, 10, 0, 0, 0, time.UTC)

	got := BuildProgress(ProgressInput{
		Student: persistence.Student{ID: "st-1", Name: "Mika", EnglishLevel: "intermediate", CreatedAt: joined},
		Sessions: []persistence.Session{
			session("s-7", "m-1", "2024-04-01", lifecycle.Pending, nil),
			session("s-6", "m-2", "2024-03-28", lifecycle.Confirmed, nil),
			session("s-5", "m-2", "2024-03-20", lifecycle.Completed, &feedback),
			session("s-4", "m-1", "2024-03-15", lifecycle.Cancelled, nil),
			session("s-3", "m-1", "2024-03-10", lifecycle.Completed, &empty),
			session("s-2", "m-1", "2024-03-01", lifecycle.Completed, nil),
			session("s-1", "m-3", "2024-02-20", lifecycle.NoShow, nil),
		},
		Reviews: []persistence.Review{
			{ID: "r-2", SessionID: "s-5", Rating: 5},
			{ID: "r-1", SessionID: "s-3", Rating: 4},
		},
		MentorNames: map[string]string{"m-1": "Ana", "m-2": "Ben"},
	})

	assert.Equal(t, "Mika", got.Name)
	assert.Equal(t, "intermediate", got.CurrentLevel)
	assert.Equal(t, joined, got.MemberSince)

	require.NotNil(t, got.Stats.AverageRatingGiven)
	assert.Equal(t, 4.5, *got.Stats.AverageRatingGiven)
	got.Stats.AverageRatingGiven = nil
	assert.Equal(t, ProgressStats{
		TotalSessions:        7,
		CompletedSessions:    3,
		UpcomingSessions:     2,
		CancelledSessions:    1,
		UniqueMentors:        2,
		ReviewsSubmitted:     2,
		SessionsWithFeedback: 1,
	}, got.Stats)

	assert.Equal(t, []string{
		"Completed 3 sessions",
		"Worked with 2 different mentors",
		"Provided 2 reviews",
		"Received feedback from 1 sessions",
	}, got.Insights)

	require.Len(t, got.RecentActivity, 5)
	assert.Equal(t, "s-7", got.RecentActivity[0].SessionID)
	assert.Equal(t, Activity{
		SessionID:   "s-5",
		MentorName:  "Ben",
		Date:        mustDate(t, "2024-03-20"),
		Status:      lifecycle.Completed,
		HasFeedback: true,
		HasReview:   true,
	}, got.RecentActivity[2])
	assert.False(t, got.RecentActivity[4].HasFeedback, "blank feedback does not count")

	require.Len(t, got.Feedback, 1)
	assert.Equal(t, FeedbackNote{SessionID: "s-5", MentorName: "Ben", Date: mustDate(t, "2024-03-20"), Feedback: feedback}, got.Feedback[0])
}

func TestBuildProgressWithoutHistory(t *testing.T) {
	got := BuildProgress(ProgressInput{Student: persistence.Student{ID: "st-9", Name: "New"}})
	assert.Nil(t, got.Stats.AverageRatingGiven)
	assert.Zero(t, got.Stats.TotalSessions)
	assert.Empty(t, got.Insights)
	assert.NotNil(t, got.RecentActivity)
	assert.NotNil(t, got.Feedback)
}
