package application

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/tutor-marketplace/internal/lifecycle"
	"github.com/example/tutor-marketplace/internal/persistence"
)

// Role classifies an authenticated actor.
type Role string

const (
	RoleStudent   Role = "student"
	RoleMentor    Role = "mentor"
	RoleCounselor Role = "counselor"
	RoleAdmin     Role = "admin"
)

// ParseRole accepts a role name case-insensitively.
func ParseRole(value string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	if !role.Valid() {
		return "", fmt.Errorf("application: unknown role %q", value)
	}
	return role, nil
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleMentor, RoleCounselor, RoleAdmin:
		return true
	}
	return false
}

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID string
	Role   Role
}

// IsAdmin reports whether the principal has administrative rights.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// CanViewAll reports whether the principal may read every session.
func (p Principal) CanViewAll() bool { return p.Role == RoleAdmin || p.Role == RoleCounselor }

// partyOf resolves which side of the session p acts on, if any.
func (p Principal) partyOf(session persistence.Session) lifecycle.Party {
	switch {
	case p.UserID == "":
		return lifecycle.PartyNone
	case p.Role == RoleMentor && p.UserID == session.MentorID:
		return lifecycle.PartyMentor
	case p.Role == RoleStudent && p.UserID == session.StudentID:
		return lifecycle.PartyStudent
	}
	return lifecycle.PartyNone
}

// Dependencies carries the collaborators shared by every service.
type Dependencies struct {
	Store       persistence.Store
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
	Metrics     OperationRecorder
}

func (d Dependencies) withDefaults() Dependencies {
	if d.IDGenerator == nil {
		d.IDGenerator = func() string { return "" }
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	d.Logger = defaultLogger(d.Logger)
	if d.Metrics == nil {
		d.Metrics = nopRecorder{}
	}
	return d
}

// SlotInput is one caller supplied weekly availability window.
type SlotInput struct {
	DayOfWeek int
	StartTime string
	EndTime   string
}

// ReplaceAvailabilityParams wraps the data required to replace availability.
type ReplaceAvailabilityParams struct {
	Principal Principal
	MentorID  string
	Slots     []SlotInput
}

// OpenWindowsParams selects the dated free windows of a mentor.
type OpenWindowsParams struct {
	MentorID string
	From     string
	To       string
}

// StudentProgressParams selects whose progress report to build. An empty
// StudentID reports on the principal.
type StudentProgressParams struct {
	Principal Principal
	StudentID string
}

// BookSessionParams wraps the data required to book a session. StudentID
// defaults to the principal and must match it.
type BookSessionParams struct {
	Principal       Principal
	StudentID       string
	MentorID        string
	Date            string
	StartTime       string
	EndTime         string
	DurationMinutes int
	Notes           *string
}

// RescheduleSessionParams moves an active session to a new slot.
type RescheduleSessionParams struct {
	Principal Principal
	SessionID string
	Date      string
	StartTime string
	EndTime   string
}

// TransitionParams requests a status change.
type TransitionParams struct {
	Principal          Principal
	SessionID          string
	Status             string
	CancellationReason *string
}

// FeedbackParams attaches the principal's feedback to a session.
type FeedbackParams struct {
	Principal Principal
	SessionID string
	Feedback  string
}

// ListSessionsParams narrows the sessions visible to the principal.
type ListSessionsParams struct {
	Principal Principal
	Status    string
	From      string
	To        string
}

// SubmitReviewParams wraps the data required to review a session.
type SubmitReviewParams struct {
	Principal Principal
	SessionID string
	Rating    int
	Comment   *string
}

// ReviewReceipt is the result of a review submission. AggregateStale is set
// when the review committed but the mentor rating could not be recomputed.
type ReviewReceipt struct {
	Review         persistence.Review
	AverageRating  float64
	AggregateStale bool
}

// RatingStats summarizes the reviews of one mentor.
type RatingStats struct {
	Total        int
	Average      float64
	Distribution map[int]int
}

// MentorReviews lists a mentor's reviews newest first together with stats.
type MentorReviews struct {
	MentorID string
	Reviews  []persistence.Review
	Stats    RatingStats
}

// ReconcileReport counts the rows checked and corrected by a reconciliation.
type ReconcileReport struct {
	MentorsChecked    int
	MentorsCorrected  int
	StudentsChecked   int
	StudentsCorrected int
}

// NearbyMentorsParams describes an in-person mentor search.
type NearbyMentorsParams struct {
	Latitude     float64
	Longitude    float64
	RadiusKM     float64
	EnglishLevel string
	DayOfWeek    int
	From         string
	To           string
}

// NearbyMentor is a search hit with its rounded distance.
type NearbyMentor struct {
	Mentor     persistence.Mentor
	DistanceKM float64
}

// SetMentorStatusParams flips a mentor's account status.
type SetMentorStatusParams struct {
	Principal Principal
	MentorID  string
	Status    string
}

// FinancialParams bounds a financial report. Empty values are open ends.
type FinancialParams struct {
	Principal Principal
	From      string
	To        string
}
