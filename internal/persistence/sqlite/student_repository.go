package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/tutor-marketplace/internal/persistence"
)

const studentColumns = `id, name, email, english_level, learning_goals, status, total_sessions, created_at, updated_at`

func (r *txRepositories) CreateStudent(ctx context.Context, s persistence.Student) error {
	_, err := r.exec(ctx, `INSERT INTO students (`+studentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Name, s.Email, s.EnglishLevel, nullString(s.LearningGoals), string(s.Status),
		s.TotalSessions, formatTimestamp(s.CreatedAt), formatTimestamp(s.UpdatedAt),
	)
	return err
}

func (r *txRepositories) GetStudent(ctx context.Context, id string) (persistence.Student, error) {
	row := r.tx.QueryRowContext(ctx, `SELECT `+studentColumns+` FROM students WHERE id = ?`, id)
	student, err := scanStudent(row)
	if err != nil {
		return persistence.Student{}, r.mapper.MapError(err)
	}
	return student, nil
}

func (r *txRepositories) ListStudents(ctx context.Context) ([]persistence.Student, error) {
	rows, err := r.tx.QueryContext(ctx, `SELECT `+studentColumns+` FROM students ORDER BY id`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	students := make([]persistence.Student, 0)
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, student)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return students, nil
}

func (r *txRepositories) SetStudentSessions(ctx context.Context, id string, total int, updatedAt time.Time) error {
	return r.execOne(ctx, `UPDATE students SET total_sessions = ?, updated_at = ? WHERE id = ?`,
		total, formatTimestamp(updatedAt), id)
}

func (r *txRepositories) IncrementStudentSessions(ctx context.Context, id string, updatedAt time.Time) error {
	return r.execOne(ctx, `UPDATE students SET total_sessions = total_sessions + 1, updated_at = ? WHERE id = ?`,
		formatTimestamp(updatedAt), id)
}

func scanStudent(row rowScanner) (persistence.Student, error) {
	var (
		s                    persistence.Student
		goals                sql.NullString
		status               string
		createdAt, updatedAt string
	)
	if err := row.Scan(&s.ID, &s.Name, &s.Email, &s.EnglishLevel, &goals, &status,
		&s.TotalSessions, &createdAt, &updatedAt); err != nil {
		return persistence.Student{}, err
	}

	var err error
	if s.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return persistence.Student{}, fmt.Errorf("student %s: %w", s.ID, err)
	}
	if s.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return persistence.Student{}, fmt.Errorf("student %s: %w", s.ID, err)
	}
	s.LearningGoals = stringPtr(goals)
	s.Status = persistence.AccountStatus(status)
	return s, nil
}
