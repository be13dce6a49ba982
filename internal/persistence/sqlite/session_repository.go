package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/example/tutor-marketplace/internal/lifecycle"
	"github.com/example/tutor-marketplace/internal/persistence"
	"github.com/example/tutor-marketplace/internal/scheduler"
)

const sessionColumns = `id, student_id, mentor_id, session_date, start_time, end_time, duration_minutes,
	status, notes, mentor_feedback, student_feedback, cancellation_reason, created_at, updated_at`

func (r *txRepositories) CreateSession(ctx context.Context, s persistence.Session) error {
	_, err := r.exec(ctx, `INSERT INTO sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.StudentID, s.MentorID, s.SessionDate.String(), s.StartTime.String(), s.EndTime.String(),
		s.DurationMinutes, string(s.Status), nullString(s.Notes), nullString(s.MentorFeedback),
		nullString(s.StudentFeedback), nullString(s.CancellationReason),
		formatTimestamp(s.CreatedAt), formatTimestamp(s.UpdatedAt),
	)
	return err
}

func (r *txRepositories) GetSession(ctx context.Context, id string) (persistence.Session, error) {
	row := r.tx.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	session, err := scanSession(row)
	if err != nil {
		return persistence.Session{}, r.mapper.MapError(err)
	}
	return session, nil
}

func (r *txRepositories) UpdateSession(ctx context.Context, s persistence.Session) error {
	return r.execOne(ctx, `UPDATE sessions SET
			session_date = ?, start_time = ?, end_time = ?, duration_minutes = ?, status = ?,
			notes = ?, mentor_feedback = ?, student_feedback = ?, cancellation_reason = ?, updated_at = ?
		WHERE id = ?`,
		s.SessionDate.String(), s.StartTime.String(), s.EndTime.String(), s.DurationMinutes, string(s.Status),
		nullString(s.Notes), nullString(s.MentorFeedback), nullString(s.StudentFeedback),
		nullString(s.CancellationReason), formatTimestamp(s.UpdatedAt), s.ID,
	)
}

func (r *txRepositories) ListSessions(ctx context.Context, filter persistence.SessionFilter) ([]persistence.Session, error) {
	where, args := sessionWhere(filter)
	query := `SELECT ` + sessionColumns + ` FROM sessions` + where +
		` ORDER BY session_date DESC, start_time DESC, id ASC`

	rows, err := r.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	sessions := make([]persistence.Session, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return sessions, nil
}

func (r *txRepositories) CountSessions(ctx context.Context, filter persistence.SessionFilter) (int, error) {
	where, args := sessionWhere(filter)
	var count int
	if err := r.tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`+where, args...).Scan(&count); err != nil {
		return 0, r.mapper.MapError(err)
	}
	return count, nil
}

func sessionWhere(filter persistence.SessionFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if filter.MentorID != "" {
		clauses = append(clauses, "mentor_id = ?")
		args = append(args, filter.MentorID)
	}
	if filter.StudentID != "" {
		clauses = append(clauses, "student_id = ?")
		args = append(args, filter.StudentID)
	}
	if !filter.Date.IsZero() {
		clauses = append(clauses, "session_date = ?")
		args = append(args, filter.Date.String())
	}
	if !filter.From.IsZero() {
		clauses = append(clauses, "session_date >= ?")
		args = append(args, filter.From.String())
	}
	if !filter.To.IsZero() {
		clauses = append(clauses, "session_date <= ?")
		args = append(args, filter.To.String())
	}
	if len(filter.Statuses) > 0 {
		clauses = append(clauses, "status IN ("+placeholders(len(filter.Statuses))+")")
		for _, status := range filter.Statuses {
			args = append(args, string(status))
		}
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanSession(row rowScanner) (persistence.Session, error) {
	var (
		s                                        persistence.Session
		date, start, end, status                 string
		notes, mentorFB, studentFB, cancellation sql.NullString
		createdAt, updatedAt                     string
	)
	if err := row.Scan(&s.ID, &s.StudentID, &s.MentorID, &date, &start, &end, &s.DurationMinutes,
		&status, &notes, &mentorFB, &studentFB, &cancellation, &createdAt, &updatedAt); err != nil {
		return persistence.Session{}, err
	}

	var err error
	if s.SessionDate, err = scheduler.ParseDate(date); err != nil {
		return persistence.Session{}, fmt.Errorf("session %s: %w", s.ID, err)
	}
	if s.StartTime, err = parseTimeOfDay(start); err != nil {
		return persistence.Session{}, fmt.Errorf("session %s: %w", s.ID, err)
	}
	if s.EndTime, err = parseTimeOfDay(end); err != nil {
		return persistence.Session{}, fmt.Errorf("session %s: %w", s.ID, err)
	}
	if s.Status, err = lifecycle.ParseStatus(status); err != nil {
		return persistence.Session{}, fmt.Errorf("session %s: %w", s.ID, err)
	}
	if s.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return persistence.Session{}, fmt.Errorf("session %s: %w", s.ID, err)
	}
	if s.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return persistence.Session{}, fmt.Errorf("session %s: %w", s.ID, err)
	}
	s.Notes = stringPtr(notes)
	s.MentorFeedback = stringPtr(mentorFB)
	s.StudentFeedback = stringPtr(studentFB)
	s.CancellationReason = stringPtr(cancellation)
	return s, nil
}
