package sqlite

import (
	"context"
	"fmt"

	"github.com/example/tutor-marketplace/internal/persistence"
)

func (r *txRepositories) ListAvailability(ctx context.Context, mentorID string, day int) ([]persistence.AvailabilitySlot, error) {
	query := `SELECT id, mentor_id, day_of_week, start_time, end_time, created_at
		FROM availability_slots WHERE mentor_id = ?`
	args := []any{mentorID}
	if day > 0 {
		query += ` AND day_of_week = ?`
		args = append(args, day)
	}
	query += ` ORDER BY day_of_week ASC, start_time ASC, id ASC`

	rows, err := r.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	slots := make([]persistence.AvailabilitySlot, 0)
	for rows.Next() {
		var (
			slot                persistence.AvailabilitySlot
			start, end, created string
		)
		if err := rows.Scan(&slot.ID, &slot.MentorID, &slot.DayOfWeek, &start, &end, &created); err != nil {
			return nil, r.mapper.MapError(err)
		}
		if slot.StartTime, err = parseTimeOfDay(start); err != nil {
			return nil, fmt.Errorf("slot %s: %w", slot.ID, err)
		}
		if slot.EndTime, err = parseTimeOfDay(end); err != nil {
			return nil, fmt.Errorf("slot %s: %w", slot.ID, err)
		}
		if slot.CreatedAt, err = parseTimestamp(created); err != nil {
			return nil, fmt.Errorf("slot %s: %w", slot.ID, err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return slots, nil
}

func (r *txRepositories) DeleteAvailability(ctx context.Context, mentorID string) error {
	_, err := r.exec(ctx, `DELETE FROM availability_slots WHERE mentor_id = ?`, mentorID)
	return err
}

func (r *txRepositories) InsertAvailability(ctx context.Context, slot persistence.AvailabilitySlot) error {
	_, err := r.exec(ctx, `INSERT INTO availability_slots (id, mentor_id, day_of_week, start_time, end_time, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		slot.ID, slot.MentorID, slot.DayOfWeek, slot.StartTime.String(), slot.EndTime.String(),
		formatTimestamp(slot.CreatedAt),
	)
	return err
}
