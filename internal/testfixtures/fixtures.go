package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/tutor-marketplace/internal/application"
	"github.com/example/tutor-marketplace/internal/lifecycle"
	"github.com/example/tutor-marketplace/internal/persistence"
	"github.com/example/tutor-marketplace/internal/scheduler"
)

var (
	mentorCounter  uint64
	studentCounter uint64
	slotCounter    uint64
	sessionCounter uint64
	reviewCounter  uint64
)

// referenceTime is a Monday morning.
var referenceTime = time.Date(2024, time.March, 11, 8, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// MustDate parses a YYYY-MM-DD literal and panics on malformed input.
func MustDate(value string) scheduler.Date {
	d, err := scheduler.ParseDate(value)
	if err != nil {
		panic(fmt.Sprintf("testfixtures: bad date %q: %v", value, err))
	}
	return d
}

// MustTime parses an HH:MM[:SS] literal and panics on malformed input.
func MustTime(value string) scheduler.TimeOfDay {
	t, err := scheduler.ParseTimeOfDay(value)
	if err != nil {
		panic(fmt.Sprintf("testfixtures: bad time %q: %v", value, err))
	}
	return t
}

// Admin returns an administrator principal.
func Admin() application.Principal {
	return application.Principal{UserID: "admin-1", Role: application.RoleAdmin}
}

// ----------------------------- Mentor fixtures -----------------------------

// MentorFixture represents a deterministic mentor record.
type MentorFixture struct {
	ID             string
	Name           string
	Email          string
	EnglishLevel   string
	HourlyRate     float64
	Latitude       *float64
	Longitude      *float64
	OffersInPerson bool
	Status         persistence.AccountStatus
	TotalSessions  int
	AverageRating  float64
	CreatedAt      time.Time
}

// MentorOption configures the generated mentor fixture.
type MentorOption func(*MentorFixture)

// NewMentorFixture returns an active mentor fixture with optional overrides.
func NewMentorFixture(opts ...MentorOption) MentorFixture {
	idx := atomic.AddUint64(&mentorCounter, 1)
	id := fmt.Sprintf("mentor-%03d", idx)
	fixture := MentorFixture{
		ID:           id,
		Name:         fmt.Sprintf("Mentor %03d", idx),
		Email:        fmt.Sprintf("%s@example.com", id),
		EnglishLevel: "advanced",
		HourlyRate:   25,
		Status:       persistence.AccountActive,
		CreatedAt:    referenceTime.Add(-time.Duration(idx) * time.Hour),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithMentorID overrides the generated mentor ID.
func WithMentorID(id string) MentorOption {
	return func(f *MentorFixture) {
		f.ID = id
		f.Email = fmt.Sprintf("%s@example.com", id)
	}
}

// WithMentorStatus sets the account status.
func WithMentorStatus(status persistence.AccountStatus) MentorOption {
	return func(f *MentorFixture) {
		f.Status = status
	}
}

// WithMentorEnglishLevel overrides the proficiency level.
func WithMentorEnglishLevel(level string) MentorOption {
	return func(f *MentorFixture) {
		f.EnglishLevel = level
	}
}

// WithMentorLocation places the mentor and enables in-person sessions.
func WithMentorLocation(lat, lng float64) MentorOption {
	return func(f *MentorFixture) {
		f.Latitude = &lat
		f.Longitude = &lng
		f.OffersInPerson = true
	}
}

// WithMentorCounters presets the denormalized counters.
func WithMentorCounters(total int, average float64) MentorOption {
	return func(f *MentorFixture) {
		f.TotalSessions = total
		f.AverageRating = average
	}
}

// Persistence returns the fixture as a persistence.Mentor value.
func (f MentorFixture) Persistence() persistence.Mentor {
	return persistence.Mentor{
		ID:             f.ID,
		Name:           f.Name,
		Email:          f.Email,
		EnglishLevel:   f.EnglishLevel,
		HourlyRate:     f.HourlyRate,
		Latitude:       f.Latitude,
		Longitude:      f.Longitude,
		OffersInPerson: f.OffersInPerson,
		Status:         f.Status,
		TotalSessions:  f.TotalSessions,
		AverageRating:  f.AverageRating,
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.CreatedAt,
	}
}

// Principal returns the mentor acting as itself.
func (f MentorFixture) Principal() application.Principal {
	return application.Principal{UserID: f.ID, Role: application.RoleMentor}
}

// ----------------------------- Student fixtures -----------------------------

// StudentFixture represents a deterministic student record.
type StudentFixture struct {
	ID            string
	Name          string
	Email         string
	EnglishLevel  string
	Status        persistence.AccountStatus
	TotalSessions int
	CreatedAt     time.Time
}

// StudentOption configures the generated student fixture.
type StudentOption func(*StudentFixture)

// NewStudentFixture returns an active student fixture with optional overrides.
func NewStudentFixture(opts ...StudentOption) StudentFixture {
	idx := atomic.AddUint64(&studentCounter, 1)
	id := fmt.Sprintf("student-%03d", idx)
	fixture := StudentFixture{
		ID:           id,
		Name:         fmt.Sprintf("Student %03d", idx),
		Email:        fmt.Sprintf("%s@example.com", id),
		EnglishLevel: "intermediate",
		Status:       persistence.AccountActive,
		CreatedAt:    referenceTime.Add(-time.Duration(idx) * time.Hour),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithStudentID overrides the generated student ID.
func WithStudentID(id string) StudentOption {
	return func(f *StudentFixture) {
		f.ID = id
		f.Email = fmt.Sprintf("%s@example.com", id)
	}
}

// WithStudentSessions presets the session counter.
func WithStudentSessions(total int) StudentOption {
	return func(f *StudentFixture) {
		f.TotalSessions = total
	}
}

// Persistence returns the fixture as a persistence.Student value.
func (f StudentFixture) Persistence() persistence.Student {
	return persistence.Student{
		ID:            f.ID,
		Name:          f.Name,
		Email:         f.Email,
		EnglishLevel:  f.EnglishLevel,
		Status:        f.Status,
		TotalSessions: f.TotalSessions,
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.CreatedAt,
	}
}

// Principal returns the student acting as itself.
func (f StudentFixture) Principal() application.Principal {
	return application.Principal{UserID: f.ID, Role: application.RoleStudent}
}

// ----------------------------- Slot fixtures -----------------------------

// NewSlot returns a weekly availability slot for mentorID.
func NewSlot(mentorID string, day int, start, end string) persistence.AvailabilitySlot {
	idx := atomic.AddUint64(&slotCounter, 1)
	return persistence.AvailabilitySlot{
		ID:        fmt.Sprintf("slot-%03d", idx),
		MentorID:  mentorID,
		DayOfWeek: day,
		StartTime: MustTime(start),
		EndTime:   MustTime(end),
		CreatedAt: referenceTime,
	}
}

// ----------------------------- Session fixtures -----------------------------

// SessionFixture represents a deterministic session record.
type SessionFixture struct {
	ID                 string
	StudentID          string
	MentorID           string
	Date               string
	Start              string
	End                string
	Status             lifecycle.Status
	Notes              *string
	CancellationReason *string
	CreatedAt          time.Time
}

// SessionOption configures the generated session fixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns a pending Monday 09:00-10:00 session.
func NewSessionFixture(opts ...SessionOption) SessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	fixture := SessionFixture{
		ID:        fmt.Sprintf("session-%03d", idx),
		StudentID: "student-001",
		MentorID:  "mentor-001",
		Date:      "2024-03-18",
		Start:     "09:00",
		End:       "10:00",
		Status:    lifecycle.Pending,
		CreatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSessionID overrides the generated session ID.
func WithSessionID(id string) SessionOption {
	return func(f *SessionFixture) {
		f.ID = id
	}
}

// WithSessionParties sets the student and mentor of the session.
func WithSessionParties(studentID, mentorID string) SessionOption {
	return func(f *SessionFixture) {
		f.StudentID = studentID
		f.MentorID = mentorID
	}
}

// WithSessionDate overrides the session date (YYYY-MM-DD).
func WithSessionDate(date string) SessionOption {
	return func(f *SessionFixture) {
		f.Date = date
	}
}

// WithSessionTimes overrides the start and end times.
func WithSessionTimes(start, end string) SessionOption {
	return func(f *SessionFixture) {
		f.Start = start
		f.End = end
	}
}

// WithSessionStatus overrides the status.
func WithSessionStatus(status lifecycle.Status) SessionOption {
	return func(f *SessionFixture) {
		f.Status = status
	}
}

// WithSessionNotes sets the booking notes.
func WithSessionNotes(notes string) SessionOption {
	return func(f *SessionFixture) {
		f.Notes = &notes
	}
}

// Persistence returns the fixture as a persistence.Session value.
func (f SessionFixture) Persistence() persistence.Session {
	start, end := MustTime(f.Start), MustTime(f.End)
	return persistence.Session{
		ID:                 f.ID,
		StudentID:          f.StudentID,
		MentorID:           f.MentorID,
		SessionDate:        MustDate(f.Date),
		StartTime:          start,
		EndTime:            end,
		DurationMinutes:    scheduler.Interval{Start: start, End: end}.Minutes(),
		Status:             f.Status,
		Notes:              f.Notes,
		CancellationReason: f.CancellationReason,
		CreatedAt:          f.CreatedAt,
		UpdatedAt:          f.CreatedAt,
	}
}

// ----------------------------- Review fixtures -----------------------------

// ReviewFixture represents a deterministic review record.
type ReviewFixture struct {
	ID        string
	SessionID string
	StudentID string
	MentorID  string
	Rating    int
	Comment   *string
	CreatedAt time.Time
}

// ReviewOption configures the generated review fixture.
type ReviewOption func(*ReviewFixture)

// NewReviewFixture returns a five star review of session.
func NewReviewFixture(session persistence.Session, opts ...ReviewOption) ReviewFixture {
	idx := atomic.AddUint64(&reviewCounter, 1)
	fixture := ReviewFixture{
		ID:        fmt.Sprintf("review-%03d", idx),
		SessionID: session.ID,
		StudentID: session.StudentID,
		MentorID:  session.MentorID,
		Rating:    5,
		CreatedAt: referenceTime.Add(time.Duration(idx) * time.Minute),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithReviewRating overrides the rating.
func WithReviewRating(rating int) ReviewOption {
	return func(f *ReviewFixture) {
		f.Rating = rating
	}
}

// WithReviewCreatedAt overrides the creation timestamp.
func WithReviewCreatedAt(t time.Time) ReviewOption {
	return func(f *ReviewFixture) {
		f.CreatedAt = t
	}
}

// Persistence returns the fixture as a persistence.Review value.
func (f ReviewFixture) Persistence() persistence.Review {
	return persistence.Review{
		ID:        f.ID,
		SessionID: f.SessionID,
		StudentID: f.StudentID,
		MentorID:  f.MentorID,
		Rating:    f.Rating,
		Comment:   f.Comment,
		CreatedAt: f.CreatedAt,
	}
}
