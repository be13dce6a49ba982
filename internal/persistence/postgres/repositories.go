package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/example/tutor-marketplace/internal/persistence"
)

// gormTx implements persistence.Tx on a transaction-bound *gorm.DB.
type gormTx struct {
	db *gorm.DB
}

func (g *gormTx) conn(ctx context.Context) *gorm.DB {
	return g.db.WithContext(ctx)
}

// updateOne applies updates to exactly one row matched by id.
func (g *gormTx) updateOne(ctx context.Context, model any, id string, updates map[string]any) error {
	res := g.conn(ctx).Model(model).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// ── mentors ──

func (g *gormTx) CreateMentor(ctx context.Context, m persistence.Mentor) error {
	row := mentorToRow(m)
	return mapError(g.conn(ctx).Create(&row).Error)
}

func (g *gormTx) GetMentor(ctx context.Context, id string) (persistence.Mentor, error) {
	var row mentorRow
	if err := g.conn(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return persistence.Mentor{}, mapError(err)
	}
	return row.model(), nil
}

func (g *gormTx) ListMentors(ctx context.Context, filter persistence.MentorFilter) ([]persistence.Mentor, error) {
	q := g.conn(ctx).Model(&mentorRow{})
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	if filter.EnglishLevel != "" {
		q = q.Where("english_level = ?", filter.EnglishLevel)
	}
	if filter.OffersInPerson {
		q = q.Where("offers_in_person = ?", true)
	}
	if filter.HasCoordinates {
		q = q.Where("latitude IS NOT NULL AND longitude IS NOT NULL")
	}

	var rows []mentorRow
	if err := q.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, mapError(err)
	}
	mentors := make([]persistence.Mentor, 0, len(rows))
	for _, row := range rows {
		mentors = append(mentors, row.model())
	}
	return mentors, nil
}

func (g *gormTx) UpdateMentorStatus(ctx context.Context, id string, status persistence.AccountStatus, updatedAt time.Time) error {
	return g.updateOne(ctx, &mentorRow{}, id, map[string]any{"status": string(status), "updated_at": updatedAt})
}

func (g *gormTx) UpdateMentorCounters(ctx context.Context, id string, counters persistence.MentorCounters, updatedAt time.Time) error {
	return g.updateOne(ctx, &mentorRow{}, id, map[string]any{
		"total_sessions": counters.TotalSessions,
		"average_rating": counters.AverageRating,
		"updated_at":     updatedAt,
	})
}

func (g *gormTx) IncrementMentorSessions(ctx context.Context, id string, updatedAt time.Time) error {
	return g.updateOne(ctx, &mentorRow{}, id, map[string]any{
		"total_sessions": gorm.Expr("total_sessions + ?", 1),
		"updated_at":     updatedAt,
	})
}

// ── students ──

func (g *gormTx) CreateStudent(ctx context.Context, s persistence.Student) error {
	row := studentToRow(s)
	return mapError(g.conn(ctx).Create(&row).Error)
}

func (g *gormTx) GetStudent(ctx context.Context, id string) (persistence.Student, error) {
	var row studentRow
	if err := g.conn(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return persistence.Student{}, mapError(err)
	}
	return row.model(), nil
}

func (g *gormTx) ListStudents(ctx context.Context) ([]persistence.Student, error) {
	var rows []studentRow
	if err := g.conn(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, mapError(err)
	}
	students := make([]persistence.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.model())
	}
	return students, nil
}

func (g *gormTx) SetStudentSessions(ctx context.Context, id string, total int, updatedAt time.Time) error {
	return g.updateOne(ctx, &studentRow{}, id, map[string]any{"total_sessions": total, "updated_at": updatedAt})
}

func (g *gormTx) IncrementStudentSessions(ctx context.Context, id string, updatedAt time.Time) error {
	return g.updateOne(ctx, &studentRow{}, id, map[string]any{
		"total_sessions": gorm.Expr("total_sessions + ?", 1),
		"updated_at":     updatedAt,
	})
}

// ── availability ──

func (g *gormTx) ListAvailability(ctx context.Context, mentorID string, day int) ([]persistence.AvailabilitySlot, error) {
	q := g.conn(ctx).Where("mentor_id = ?", mentorID)
	if day > 0 {
		q = q.Where("day_of_week = ?", day)
	}
	var rows []availabilityRow
	if err := q.Order("day_of_week ASC, start_time ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, mapError(err)
	}
	slots := make([]persistence.AvailabilitySlot, 0, len(rows))
	for _, row := range rows {
		slots = append(slots, row.model())
	}
	return slots, nil
}

func (g *gormTx) DeleteAvailability(ctx context.Context, mentorID string) error {
	return mapError(g.conn(ctx).Where("mentor_id = ?", mentorID).Delete(&availabilityRow{}).Error)
}

func (g *gormTx) InsertAvailability(ctx context.Context, slot persistence.AvailabilitySlot) error {
	row := availabilityToRow(slot)
	return mapError(g.conn(ctx).Create(&row).Error)
}

// ── sessions ──

func (g *gormTx) CreateSession(ctx context.Context, s persistence.Session) error {
	row := sessionToRow(s)
	return mapError(g.conn(ctx).Create(&row).Error)
}

func (g *gormTx) GetSession(ctx context.Context, id string) (persistence.Session, error) {
	var row sessionRow
	if err := g.conn(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return persistence.Session{}, mapError(err)
	}
	return row.model()
}

func (g *gormTx) UpdateSession(ctx context.Context, s persistence.Session) error {
	row := sessionToRow(s)
	return g.updateOne(ctx, &sessionRow{}, s.ID, map[string]any{
		"session_date":        row.SessionDate,
		"start_time":          row.StartTime,
		"end_time":            row.EndTime,
		"duration_minutes":    row.DurationMinutes,
		"status":              row.Status,
		"notes":               row.Notes,
		"mentor_feedback":     row.MentorFeedback,
		"student_feedback":    row.StudentFeedback,
		"cancellation_reason": row.CancellationReason,
		"updated_at":          row.UpdatedAt,
	})
}

func (g *gormTx) sessionQuery(ctx context.Context, filter persistence.SessionFilter) *gorm.DB {
	q := g.conn(ctx).Model(&sessionRow{})
	if filter.MentorID != "" {
		q = q.Where("mentor_id = ?", filter.MentorID)
	}
	if filter.StudentID != "" {
		q = q.Where("student_id = ?", filter.StudentID)
	}
	if !filter.Date.IsZero() {
		q = q.Where("session_date = ?", toDate(filter.Date))
	}
	if !filter.From.IsZero() {
		q = q.Where("session_date >= ?", toDate(filter.From))
	}
	if !filter.To.IsZero() {
		q = q.Where("session_date <= ?", toDate(filter.To))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		q = q.Where("status IN ?", statuses)
	}
	return q
}

func (g *gormTx) ListSessions(ctx context.Context, filter persistence.SessionFilter) ([]persistence.Session, error) {
	var rows []sessionRow
	if err := g.sessionQuery(ctx, filter).Order("session_date DESC, start_time DESC, id ASC").Find(&rows).Error; err != nil {
		return nil, mapError(err)
	}
	sessions := make([]persistence.Session, 0, len(rows))
	for _, row := range rows {
		session, err := row.model()
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

func (g *gormTx) CountSessions(ctx context.Context, filter persistence.SessionFilter) (int, error) {
	var count int64
	if err := g.sessionQuery(ctx, filter).Count(&count).Error; err != nil {
		return 0, mapError(err)
	}
	return int(count), nil
}

// ── reviews ──

func (g *gormTx) CreateReview(ctx context.Context, r persistence.Review) error {
	row := reviewToRow(r)
	return mapError(g.conn(ctx).Create(&row).Error)
}

func (g *gormTx) GetReviewBySession(ctx context.Context, sessionID string) (persistence.Review, error) {
	var row reviewRow
	if err := g.conn(ctx).Where("session_id = ?", sessionID).First(&row).Error; err != nil {
		return persistence.Review{}, mapError(err)
	}
	return row.model(), nil
}

func (g *gormTx) ListReviews(ctx context.Context, mentorID string) ([]persistence.Review, error) {
	q := g.conn(ctx)
	if mentorID != "" {
		q = q.Where("mentor_id = ?", mentorID)
	}
	var rows []reviewRow
	if err := q.Order("created_at DESC, id ASC").Find(&rows).Error; err != nil {
		return nil, mapError(err)
	}
	reviews := make([]persistence.Review, 0, len(rows))
	for _, row := range rows {
		reviews = append(reviews, row.model())
	}
	return reviews, nil
}

func (g *gormTx) SummarizeRatings(ctx context.Context, mentorID string) (persistence.RatingSummary, error) {
	var result struct {
		Count   int
		Average float64
	}
	err := g.conn(ctx).Model(&reviewRow{}).
		Select("COUNT(*) AS count, COALESCE(AVG(rating), 0)::float8 AS average").
		Where("mentor_id = ?", mentorID).
		Scan(&result).Error
	if err != nil {
		return persistence.RatingSummary{}, mapError(err)
	}
	return persistence.RatingSummary{Count: result.Count, Average: result.Average}, nil
}
