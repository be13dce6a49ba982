package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/tutor-marketplace/internal/persistence"
)

const mentorColumns = `id, name, email, english_level, hourly_rate, bio, contact, address,
	latitude, longitude, offers_in_person, status, total_sessions, average_rating, created_at, updated_at`

func (r *txRepositories) CreateMentor(ctx context.Context, m persistence.Mentor) error {
	_, err := r.exec(ctx, `INSERT INTO mentors (`+mentorColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.Email, m.EnglishLevel, m.HourlyRate,
		nullString(m.Bio), nullString(m.Contact), nullString(m.Address),
		nullFloat(m.Latitude), nullFloat(m.Longitude), boolToInt(m.OffersInPerson),
		string(m.Status), m.TotalSessions, m.AverageRating,
		formatTimestamp(m.CreatedAt), formatTimestamp(m.UpdatedAt),
	)
	return err
}

func (r *txRepositories) GetMentor(ctx context.Context, id string) (persistence.Mentor, error) {
	row := r.tx.QueryRowContext(ctx, `SELECT `+mentorColumns+` FROM mentors WHERE id = ?`, id)
	mentor, err := scanMentor(row)
	if err != nil {
		return persistence.Mentor{}, r.mapper.MapError(err)
	}
	return mentor, nil
}

func (r *txRepositories) ListMentors(ctx context.Context, filter persistence.MentorFilter) ([]persistence.Mentor, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.EnglishLevel != "" {
		where = append(where, "english_level = ?")
		args = append(args, filter.EnglishLevel)
	}
	if filter.OffersInPerson {
		where = append(where, "offers_in_person = 1")
	}
	if filter.HasCoordinates {
		where = append(where, "latitude IS NOT NULL AND longitude IS NOT NULL")
	}

	query := `SELECT ` + mentorColumns + ` FROM mentors`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"

	rows, err := r.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	mentors := make([]persistence.Mentor, 0)
	for rows.Next() {
		mentor, err := scanMentor(rows)
		if err != nil {
			return nil, err
		}
		mentors = append(mentors, mentor)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return mentors, nil
}

func (r *txRepositories) UpdateMentorStatus(ctx context.Context, id string, status persistence.AccountStatus, updatedAt time.Time) error {
	return r.execOne(ctx, `UPDATE mentors SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), formatTimestamp(updatedAt), id)
}

func (r *txRepositories) UpdateMentorCounters(ctx context.Context, id string, counters persistence.MentorCounters, updatedAt time.Time) error {
	return r.execOne(ctx, `UPDATE mentors SET total_sessions = ?, average_rating = ?, updated_at = ? WHERE id = ?`,
		counters.TotalSessions, counters.AverageRating, formatTimestamp(updatedAt), id)
}

func (r *txRepositories) IncrementMentorSessions(ctx context.Context, id string, updatedAt time.Time) error {
	return r.execOne(ctx, `UPDATE mentors SET total_sessions = total_sessions + 1, updated_at = ? WHERE id = ?`,
		formatTimestamp(updatedAt), id)
}

func scanMentor(row rowScanner) (persistence.Mentor, error) {
	var (
		m                    persistence.Mentor
		bio, contact, addr   sql.NullString
		lat, lng             sql.NullFloat64
		inPerson             int
		status               string
		createdAt, updatedAt string
	)
	if err := row.Scan(&m.ID, &m.Name, &m.Email, &m.EnglishLevel, &m.HourlyRate,
		&bio, &contact, &addr, &lat, &lng, &inPerson, &status,
		&m.TotalSessions, &m.AverageRating, &createdAt, &updatedAt); err != nil {
		return persistence.Mentor{}, err
	}

	var err error
	if m.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return persistence.Mentor{}, fmt.Errorf("mentor %s: %w", m.ID, err)
	}
	if m.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return persistence.Mentor{}, fmt.Errorf("mentor %s: %w", m.ID, err)
	}
	m.Bio = stringPtr(bio)
	m.Contact = stringPtr(contact)
	m.Address = stringPtr(addr)
	m.Latitude = floatPtr(lat)
	m.Longitude = floatPtr(lng)
	m.OffersInPerson = inPerson != 0
	m.Status = persistence.AccountStatus(status)
	return m, nil
}
