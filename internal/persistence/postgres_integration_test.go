//go:build integration

package persistence_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/example/tutor-marketplace/internal/persistence"
	"github.com/example/tutor-marketplace/internal/persistence/postgres"
)

// The PostgreSQL backend shares one database, so its tests run serially
// and start from truncated tables.
func init() {
	backends = append(backends, backend{
		name: "postgres",
		open: openPostgres,
	})
}

func openPostgres(t *testing.T) persistence.Store {
	t.Helper()

	dsn := os.Getenv("TUTOR_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TUTOR_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	db, err := postgres.NewDB(ctx, postgres.Config{DSN: dsn}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}
	if err := db.WithContext(ctx).Exec("TRUNCATE reviews, sessions, availability_slots, students, mentors").Error; err != nil {
		t.Fatalf("failed to truncate: %v", err)
	}

	store := postgres.NewStore(db)
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
