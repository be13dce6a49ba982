package reporting

import (
	"fmt"
	"time"

	"github.com/example/tutor-marketplace/internal/lifecycle"
	"github.com/example/tutor-marketplace/internal/persistence"
	"github.com/example/tutor-marketplace/internal/scheduler"
)

const recentActivityLimit = 5

// ProgressInput is one student's history. Sessions are expected newest first.
type ProgressInput struct {
	Student  persistence.Student
	Sessions []persistence.Session
	Reviews  []persistence.Review
	// MentorNames resolves mentor ids to display names. Missing ids render empty.
	MentorNames map[string]string
}

// ProgressStats counts a student's sessions and reviews.
type ProgressStats struct {
	TotalSessions     int
	CompletedSessions int
	UpcomingSessions  int
	CancelledSessions int
	UniqueMentors     int
	ReviewsSubmitted  int
	// AverageRatingGiven is nil until the student has reviewed a session.
	AverageRatingGiven   *float64
	SessionsWithFeedback int
}

// Activity is one recent session.
type Activity struct {
	SessionID   string
	MentorName  string
	Date        scheduler.Date
	Status      lifecycle.Status
	HasFeedback bool
	HasReview   bool
}

// FeedbackNote is mentor feedback left on a completed session.
type FeedbackNote struct {
	SessionID  string
	MentorName string
	Date       scheduler.Date
	Feedback   string
}

// Progress is a student's learning report.
type Progress struct {
	StudentID      string
	Name           string
	CurrentLevel   string
	MemberSince    time.Time
	Stats          ProgressStats
	Insights       []string
	RecentActivity []Activity
	Feedback       []FeedbackNote
}

// BuildProgress rolls up one student's sessions and reviews. Unique mentors
// and feedback only consider completed sessions.
func BuildProgress(in ProgressInput) Progress {
	p := Progress{
		StudentID:      in.Student.ID,
		Name:           in.Student.Name,
		CurrentLevel:   in.Student.EnglishLevel,
		MemberSince:    in.Student.CreatedAt,
		Insights:       []string{},
		RecentActivity: []Activity{},
		Feedback:       []FeedbackNote{},
	}

	reviewed := make(map[string]bool, len(in.Reviews))
	ratingSum := 0
	for _, r := range in.Reviews {
		reviewed[r.SessionID] = true
		ratingSum += r.Rating
	}
	p.Stats.ReviewsSubmitted = len(in.Reviews)
	if len(in.Reviews) > 0 {
		avg := round(float64(ratingSum)/float64(len(in.Reviews)), 2)
		p.Stats.AverageRatingGiven = &avg
	}

	mentors := make(map[string]struct{})
	p.Stats.TotalSessions = len(in.Sessions)
	for _, s := range in.Sessions {
		switch {
		case s.Status == lifecycle.Completed:
			p.Stats.CompletedSessions++
			mentors[s.MentorID] = struct{}{}
			if hasText(s.MentorFeedback) {
				p.Stats.SessionsWithFeedback++
				if len(p.Feedback) < recentActivityLimit {
					p.Feedback = append(p.Feedback, FeedbackNote{
						SessionID:  s.ID,
						MentorName: in.MentorNames[s.MentorID],
						Date:       s.SessionDate,
						Feedback:   *s.MentorFeedback,
					})
				}
			}
		case s.Status.Holding():
			p.Stats.UpcomingSessions++
		case s.Status == lifecycle.Cancelled:
			p.Stats.CancelledSessions++
		}

		if len(p.RecentActivity) < recentActivityLimit {
			p.RecentActivity = append(p.RecentActivity, Activity{
				SessionID:   s.ID,
				MentorName:  in.MentorNames[s.MentorID],
				Date:        s.SessionDate,
				Status:      s.Status,
				HasFeedback: hasText(s.MentorFeedback),
				HasReview:   reviewed[s.ID],
			})
		}
	}
	p.Stats.UniqueMentors = len(mentors)

	if n := p.Stats.CompletedSessions; n > 0 {
		p.Insights = append(p.Insights, fmt.Sprintf("Completed %d sessions", n))
	}
	if n := p.Stats.UniqueMentors; n > 0 {
		p.Insights = append(p.Insights, fmt.Sprintf("Worked with %d different mentors", n))
	}
	if n := p.Stats.ReviewsSubmitted; n > 0 {
		p.Insights = append(p.Insights, fmt.Sprintf("Provided %d reviews", n))
	}
	if n := p.Stats.SessionsWithFeedback; n > 0 {
		p.Insights = append(p.Insights, fmt.Sprintf("Received feedback from %d sessions", n))
	}
	return p
}

func hasText(s *string) bool {
	return s != nil && *s != ""
}
