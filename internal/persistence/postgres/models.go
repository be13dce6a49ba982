package postgres

import (
	"time"

	"gorm.io/datatypes"

	"github.com/example/tutor-marketplace/internal/lifecycle"
	"github.com/example/tutor-marketplace/internal/persistence"
	"github.com/example/tutor-marketplace/internal/scheduler"
)

type mentorRow struct {
	ID             string  `gorm:"primaryKey;type:text"`
	Name           string  `gorm:"not null"`
	Email          string  `gorm:"not null;uniqueIndex"`
	EnglishLevel   string  `gorm:"not null;default:''"`
	HourlyRate     float64 `gorm:"not null;default:0;check:hourly_rate >= 0"`
	Bio            *string
	Contact        *string
	Address        *string
	Latitude       *float64
	Longitude      *float64
	OffersInPerson bool    `gorm:"not null;default:false"`
	Status         string  `gorm:"type:text;not null;default:active;check:status IN ('active','inactive')"`
	TotalSessions  int     `gorm:"not null;default:0"`
	AverageRating  float64 `gorm:"not null;default:0"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (mentorRow) TableName() string { return "mentors" }

type studentRow struct {
	ID            string `gorm:"primaryKey;type:text"`
	Name          string `gorm:"not null"`
	Email         string `gorm:"not null;uniqueIndex"`
	EnglishLevel  string `gorm:"not null;default:''"`
	LearningGoals *string
	Status        string `gorm:"type:text;not null;default:active;check:status IN ('active','inactive')"`
	TotalSessions int    `gorm:"not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (studentRow) TableName() string { return "students" }

type availabilityRow struct {
	ID        string         `gorm:"primaryKey;type:text"`
	MentorID  string         `gorm:"type:text;not null;index:idx_availability_mentor_day,priority:1"`
	DayOfWeek int            `gorm:"not null;index:idx_availability_mentor_day,priority:2;check:day_of_week BETWEEN 1 AND 7"`
	StartTime datatypes.Time `gorm:"not null;index:idx_availability_mentor_day,priority:3"`
	EndTime   datatypes.Time `gorm:"not null"`
	CreatedAt time.Time
}

func (availabilityRow) TableName() string { return "availability_slots" }

type sessionRow struct {
	ID                 string         `gorm:"primaryKey;type:text"`
	StudentID          string         `gorm:"type:text;not null;index:idx_sessions_student_date,priority:1"`
	MentorID           string         `gorm:"type:text;not null;index:idx_sessions_mentor_date,priority:1"`
	SessionDate        datatypes.Date `gorm:"not null;index:idx_sessions_mentor_date,priority:2;index:idx_sessions_student_date,priority:2"`
	StartTime          datatypes.Time `gorm:"not null"`
	EndTime            datatypes.Time `gorm:"not null"`
	DurationMinutes    int            `gorm:"not null;check:duration_minutes > 0"`
	Status             string         `gorm:"type:text;not null;index:idx_sessions_mentor_date,priority:3"`
	Notes              *string
	MentorFeedback     *string
	StudentFeedback    *string
	CancellationReason *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (sessionRow) TableName() string { return "sessions" }

type reviewRow struct {
	ID        string `gorm:"primaryKey;type:text"`
	SessionID string `gorm:"type:text;not null;uniqueIndex"`
	StudentID string `gorm:"type:text;not null"`
	MentorID  string `gorm:"type:text;not null;index:idx_reviews_mentor,priority:1"`
	Rating    int    `gorm:"not null;check:rating BETWEEN 1 AND 5"`
	Comment   *string
	CreatedAt time.Time `gorm:"index:idx_reviews_mentor,priority:2"`
}

func (reviewRow) TableName() string { return "reviews" }

func toTime(t scheduler.TimeOfDay) datatypes.Time {
	return datatypes.NewTime(t.Hour(), t.Minute(), t.Second(), 0)
}

func fromTime(t datatypes.Time) scheduler.TimeOfDay {
	return scheduler.TimeOfDay(time.Duration(t) / time.Second)
}

func toDate(d scheduler.Date) datatypes.Date {
	return datatypes.Date(d.Time())
}

func fromDate(d datatypes.Date) scheduler.Date {
	return scheduler.DateOf(time.Time(d).UTC())
}

func mentorToRow(m persistence.Mentor) mentorRow {
	return mentorRow{
		ID: m.ID, Name: m.Name, Email: m.Email, EnglishLevel: m.EnglishLevel, HourlyRate: m.HourlyRate,
		Bio: m.Bio, Contact: m.Contact, Address: m.Address, Latitude: m.Latitude, Longitude: m.Longitude,
		OffersInPerson: m.OffersInPerson, Status: string(m.Status), TotalSessions: m.TotalSessions,
		AverageRating: m.AverageRating, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}

func (r mentorRow) model() persistence.Mentor {
	return persistence.Mentor{
		ID: r.ID, Name: r.Name, Email: r.Email, EnglishLevel: r.EnglishLevel, HourlyRate: r.HourlyRate,
		Bio: r.Bio, Contact: r.Contact, Address: r.Address, Latitude: r.Latitude, Longitude: r.Longitude,
		OffersInPerson: r.OffersInPerson, Status: persistence.AccountStatus(r.Status), TotalSessions: r.TotalSessions,
		AverageRating: r.AverageRating, CreatedAt: r.CreatedAt.UTC(), UpdatedAt: r.UpdatedAt.UTC(),
	}
}

func studentToRow(s persistence.Student) studentRow {
	return studentRow{
		ID: s.ID, Name: s.Name, Email: s.Email, EnglishLevel: s.EnglishLevel, LearningGoals: s.LearningGoals,
		Status: string(s.Status), TotalSessions: s.TotalSessions, CreatedAt: s.CreatedAt, UpdatedAt: s.UpdatedAt,
	}
}

func (r studentRow) model() persistence.Student {
	return persistence.Student{
		ID: r.ID, Name: r.Name, Email: r.Email, EnglishLevel: r.EnglishLevel, LearningGoals: r.LearningGoals,
		Status: persistence.AccountStatus(r.Status), TotalSessions: r.TotalSessions,
		CreatedAt: r.CreatedAt.UTC(), UpdatedAt: r.UpdatedAt.UTC(),
	}
}

func availabilityToRow(s persistence.AvailabilitySlot) availabilityRow {
	return availabilityRow{
		ID: s.ID, MentorID: s.MentorID, DayOfWeek: s.DayOfWeek,
		StartTime: toTime(s.StartTime), EndTime: toTime(s.EndTime), CreatedAt: s.CreatedAt,
	}
}

func (r availabilityRow) model() persistence.AvailabilitySlot {
	return persistence.AvailabilitySlot{
		ID: r.ID, MentorID: r.MentorID, DayOfWeek: r.DayOfWeek,
		StartTime: fromTime(r.StartTime), EndTime: fromTime(r.EndTime), CreatedAt: r.CreatedAt.UTC(),
	}
}

func sessionToRow(s persistence.Session) sessionRow {
	return sessionRow{
		ID: s.ID, StudentID: s.StudentID, MentorID: s.MentorID, SessionDate: toDate(s.SessionDate),
		StartTime: toTime(s.StartTime), EndTime: toTime(s.EndTime), DurationMinutes: s.DurationMinutes,
		Status: string(s.Status), Notes: s.Notes, MentorFeedback: s.MentorFeedback,
		StudentFeedback: s.StudentFeedback, CancellationReason: s.CancellationReason,
		CreatedAt: s.CreatedAt, UpdatedAt: s.UpdatedAt,
	}
}

func (r sessionRow) model() (persistence.Session, error) {
	status, err := lifecycle.ParseStatus(r.Status)
	if err != nil {
		return persistence.Session{}, err
	}
	return persistence.Session{
		ID: r.ID, StudentID: r.StudentID, MentorID: r.MentorID, SessionDate: fromDate(r.SessionDate),
		StartTime: fromTime(r.StartTime), EndTime: fromTime(r.EndTime), DurationMinutes: r.DurationMinutes,
		Status: status, Notes: r.Notes, MentorFeedback: r.MentorFeedback,
		StudentFeedback: r.StudentFeedback, CancellationReason: r.CancellationReason,
		CreatedAt: r.CreatedAt.UTC(), UpdatedAt: r.UpdatedAt.UTC(),
	}, nil
}

func reviewToRow(r persistence.Review) reviewRow {
	return reviewRow{
		ID: r.ID, SessionID: r.SessionID, StudentID: r.StudentID, MentorID: r.MentorID,
		Rating: r.Rating, Comment: r.Comment, CreatedAt: r.CreatedAt,
	}
}

func (r reviewRow) model() persistence.Review {
	return persistence.Review{
		ID: r.ID, SessionID: r.SessionID, StudentID: r.StudentID, MentorID: r.MentorID,
		Rating: r.Rating, Comment: r.Comment, CreatedAt: r.CreatedAt.UTC(),
	}
}
