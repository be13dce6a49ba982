package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// overlapConstraint rejects overlapping pending/confirmed sessions of one mentor.
const overlapConstraint = "sessions_no_overlap"

var schemaStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS btree_gist`,
	`DO $$
BEGIN
    IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = '` + overlapConstraint + `') THEN
        ALTER TABLE sessions ADD CONSTRAINT ` + overlapConstraint + `
            EXCLUDE USING gist (
                mentor_id WITH =,
                tsrange(session_date + start_time, session_date + end_time) WITH &&
            ) WHERE (status IN ('pending', 'confirmed'));
    END IF;
END $$`,
	`DO $$
BEGIN
    IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'sessions_status_check') THEN
        ALTER TABLE sessions ADD CONSTRAINT sessions_status_check
            CHECK (status IN ('pending', 'confirmed', 'completed', 'cancelled', 'no_show'));
    END IF;
    IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'sessions_interval_check') THEN
        ALTER TABLE sessions ADD CONSTRAINT sessions_interval_check CHECK (start_time < end_time);
    END IF;
    IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'availability_interval_check') THEN
        ALTER TABLE availability_slots ADD CONSTRAINT availability_interval_check CHECK (start_time < end_time);
    END IF;
END $$`,
}

// EnsureSchema creates missing tables and the constraints gorm cannot express.
func EnsureSchema(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(
		&mentorRow{},
		&studentRow{},
		&availabilityRow{},
		&sessionRow{},
		&reviewRow{},
	); err != nil {
		return fmt.Errorf("postgres: auto migrate: %w", err)
	}
	for _, stmt := range schemaStatements {
		if err := db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("postgres: apply constraint: %w", err)
		}
	}
	return nil
}
