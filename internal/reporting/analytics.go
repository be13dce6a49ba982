// Package reporting builds the administrative analytics and financial rollups.
package reporting

import (
	"math"
	"sort"
	"time"

	"github.com/example/tutor-marketplace/internal/lifecycle"
	"github.com/example/tutor-marketplace/internal/persistence"
	"github.com/example/tutor-marketplace/internal/scheduler"
)

const (
	trendDays      = 30
	engagementDays = 7
	topRatedLimit  = 10
)

// Dataset is the snapshot every report is computed from.
type Dataset struct {
	Mentors  []persistence.Mentor
	Students []persistence.Student
	Sessions []persistence.Session
	Reviews  []persistence.Review
}

// UserStats counts accounts per kind.
type UserStats struct {
	TotalMentors   int
	ActiveMentors  int
	TotalStudents  int
	ActiveStudents int
}

// SessionStats counts sessions per status.
type SessionStats struct {
	Total    int
	ByStatus map[lifecycle.Status]int
}

// DailyCount is the number of sessions held on one date.
type DailyCount struct {
	Date  scheduler.Date
	Count int
}

// RatingStats summarizes every review on the platform.
type RatingStats struct {
	TotalReviews  int
	AverageRating float64
}

// MentorRating ranks an active mentor by review average.
type MentorRating struct {
	MentorID      string
	Name          string
	EnglishLevel  string
	AverageRating float64
	ReviewCount   int
}

// Engagement counts recent activity.
type Engagement struct {
	SessionsLast7Days int
	ReviewsLast7Days  int
}

// Analytics is the platform overview report.
type Analytics struct {
	Today      scheduler.Date
	Users      UserStats
	Sessions   SessionStats
	Trend      []DailyCount
	Ratings    RatingStats
	TopMentors []MentorRating
	Engagement Engagement
}

// BuildAnalytics computes the overview report as of today.
func BuildAnalytics(data Dataset, today scheduler.Date) Analytics {
	report := Analytics{
		Today:    today,
		Sessions: SessionStats{ByStatus: make(map[lifecycle.Status]int, len(lifecycle.Statuses()))},
	}
	for _, status := range lifecycle.Statuses() {
		report.Sessions.ByStatus[status] = 0
	}

	for _, m := range data.Mentors {
		report.Users.TotalMentors++
		if m.Status == persistence.AccountActive {
			report.Users.ActiveMentors++
		}
	}
	for _, s := range data.Students {
		report.Users.TotalStudents++
		if s.Status == persistence.AccountActive {
			report.Users.ActiveStudents++
		}
	}

	trendStart := today.AddDays(-trendDays)
	engagementStart := today.AddDays(-engagementDays)
	daily := make(map[scheduler.Date]int)
	for _, s := range data.Sessions {
		report.Sessions.Total++
		report.Sessions.ByStatus[s.Status]++
		if !s.SessionDate.Before(trendStart) {
			daily[s.SessionDate]++
		}
		if !s.SessionDate.Before(engagementStart) {
			report.Engagement.SessionsLast7Days++
		}
	}
	report.Trend = make([]DailyCount, 0, len(daily))
	for date, count := range daily {
		report.Trend = append(report.Trend, DailyCount{Date: date, Count: count})
	}
	sort.Slice(report.Trend, func(i, j int) bool { return report.Trend[i].Date.After(report.Trend[j].Date) })
	if len(report.Trend) > trendDays {
		report.Trend = report.Trend[:trendDays]
	}

	engagementCutoff := engagementStart.Time()
	sums := make(map[string]int)
	counts := make(map[string]int)
	total := 0
	for _, r := range data.Reviews {
		total += r.Rating
		sums[r.MentorID] += r.Rating
		counts[r.MentorID]++
		if !r.CreatedAt.Before(engagementCutoff) {
			report.Engagement.ReviewsLast7Days++
		}
	}
	report.Ratings.TotalReviews = len(data.Reviews)
	if len(data.Reviews) > 0 {
		report.Ratings.AverageRating = round(float64(total)/float64(len(data.Reviews)), 2)
	}

	report.TopMentors = topRated(data.Mentors, sums, counts)
	return report
}

func topRated(mentors []persistence.Mentor, sums, counts map[string]int) []MentorRating {
	ranked := make([]MentorRating, 0)
	for _, m := range mentors {
		if m.Status != persistence.AccountActive || counts[m.ID] == 0 {
			continue
		}
		ranked = append(ranked, MentorRating{
			MentorID:      m.ID,
			Name:          m.Name,
			EnglishLevel:  m.EnglishLevel,
			AverageRating: round(float64(sums[m.ID])/float64(counts[m.ID]), 2),
			ReviewCount:   counts[m.ID],
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.AverageRating != b.AverageRating {
			return a.AverageRating > b.AverageRating
		}
		if a.ReviewCount != b.ReviewCount {
			return a.ReviewCount > b.ReviewCount
		}
		return a.MentorID < b.MentorID
	})
	if len(ranked) > topRatedLimit {
		ranked = ranked[:topRatedLimit]
	}
	return ranked
}

func round(value float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(value*scale) / scale
}

// Today returns the UTC calendar date of now.
func Today(now time.Time) scheduler.Date {
	return scheduler.DateOf(now.UTC())
}
