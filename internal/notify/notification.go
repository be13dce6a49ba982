// Package notify composes and delivers user notifications about sessions and reviews.
package notify

import (
	"fmt"
	"time"

	"github.com/example/tutor-marketplace/internal/application"
	"github.com/example/tutor-marketplace/internal/lifecycle"
	"github.com/example/tutor-marketplace/internal/persistence"
)

// Kind classifies a notification.
type Kind string

const (
	KindSessionRequested   Kind = "session_requested"
	KindSessionRescheduled Kind = "session_rescheduled"
	KindSessionStatus      Kind = "session_status"
	KindReviewReceived     Kind = "review_received"
)

// Recipient identifies the inbox a notification lands in.
type Recipient struct {
	UserID string           `json:"user_id"`
	Role   application.Role `json:"role"`
}

// Notification is a single inbox entry.
type Notification struct {
	ID        string    `json:"id"`
	Recipient Recipient `json:"recipient"`
	Kind      Kind      `json:"kind"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	SessionID string    `json:"session_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Read      bool      `json:"read"`
}

func mentorOf(s persistence.Session) Recipient {
	return Recipient{UserID: s.MentorID, Role: application.RoleMentor}
}

func studentOf(s persistence.Session) Recipient {
	return Recipient{UserID: s.StudentID, Role: application.RoleStudent}
}

func slotText(s persistence.Session) string {
	return fmt.Sprintf("%s %s-%s", s.SessionDate, s.StartTime.Clock(), s.EndTime.Clock())
}

// BookingRequested tells the mentor about a new pending session.
func BookingRequested(id string, at time.Time, s persistence.Session) Notification {
	return Notification{
		ID:        id,
		Recipient: mentorOf(s),
		Kind:      KindSessionRequested,
		Title:     "New session request",
		Message:   fmt.Sprintf("A student requested a session on %s.", slotText(s)),
		SessionID: s.ID,
		CreatedAt: at,
	}
}

// Rescheduled tells the counterparty of actor that the session moved.
func Rescheduled(ids func() string, at time.Time, s persistence.Session, actor application.Principal) []Notification {
	out := make([]Notification, 0, 2)
	for _, to := range counterparties(s, actor) {
		out = append(out, Notification{
			ID:        ids(),
			Recipient: to,
			Kind:      KindSessionRescheduled,
			Title:     "Session rescheduled",
			Message:   fmt.Sprintf("Your session was moved to %s and awaits confirmation.", slotText(s)),
			SessionID: s.ID,
			CreatedAt: at,
		})
	}
	return out
}

// StatusChanged tells the counterparty of actor about the session's new status.
// Transitions made by staff notify both parties.
func StatusChanged(ids func() string, at time.Time, s persistence.Session, actor application.Principal) []Notification {
	title, message := statusText(s)
	out := make([]Notification, 0, 2)
	for _, to := range counterparties(s, actor) {
		out = append(out, Notification{
			ID:        ids(),
			Recipient: to,
			Kind:      KindSessionStatus,
			Title:     title,
			Message:   message,
			SessionID: s.ID,
			CreatedAt: at,
		})
	}
	return out
}

// ReviewReceived tells the mentor about a new review.
func ReviewReceived(id string, at time.Time, r persistence.Review) Notification {
	return Notification{
		ID:        id,
		Recipient: Recipient{UserID: r.MentorID, Role: application.RoleMentor},
		Kind:      KindReviewReceived,
		Title:     "New review",
		Message:   fmt.Sprintf("A student rated your session %d out of 5.", r.Rating),
		SessionID: r.SessionID,
		CreatedAt: at,
	}
}

func counterparties(s persistence.Session, actor application.Principal) []Recipient {
	switch {
	case actor.Role == application.RoleMentor && actor.UserID == s.MentorID:
		return []Recipient{studentOf(s)}
	case actor.Role == application.RoleStudent && actor.UserID == s.StudentID:
		return []Recipient{mentorOf(s)}
	}
	return []Recipient{studentOf(s), mentorOf(s)}
}

func statusText(s persistence.Session) (string, string) {
	when := slotText(s)
	switch s.Status {
	case lifecycle.Confirmed:
		return "Session confirmed", fmt.Sprintf("Your session on %s is confirmed.", when)
	case lifecycle.Cancelled:
		msg := fmt.Sprintf("Your session on %s was cancelled.", when)
		if s.CancellationReason != nil && *s.CancellationReason != "" {
			msg = fmt.Sprintf("Your session on %s was cancelled: %s", when, *s.CancellationReason)
		}
		return "Session cancelled", msg
	case lifecycle.Completed:
		return "Session completed", fmt.Sprintf("Your session on %s is complete. You can now leave a review.", when)
	case lifecycle.NoShow:
		return "Session missed", fmt.Sprintf("Your session on %s was marked as a no-show.", when)
	}
	return "Session updated", fmt.Sprintf("Your session on %s is now %s.", when, s.Status)
}
