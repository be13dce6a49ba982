package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/tutor-marketplace/internal/persistence"
	"github.com/example/tutor-marketplace/internal/persistence/sqlite"
)

// NewSQLiteStore opens a schema-initialised SQLite store in a temporary
// directory. The store is closed when the test finishes.
func NewSQLiteStore(tb testing.TB) *sqlite.Store {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "tutor.db")
	store, err := sqlite.Open(context.Background(), sqlite.TempFileTestSQLiteConfig(path))
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	tb.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// Seed writes rows through the store in one transaction. Values may be
// mentors, students, slots, sessions or reviews, in dependency order.
func Seed(tb testing.TB, store persistence.Store, rows ...any) {
	tb.Helper()

	err := store.WithinTransaction(context.Background(), func(ctx context.Context, tx persistence.Tx) error {
		for _, row := range rows {
			var err error
			switch v := row.(type) {
			case persistence.Mentor:
				err = tx.CreateMentor(ctx, v)
			case persistence.Student:
				err = tx.CreateStudent(ctx, v)
			case persistence.AvailabilitySlot:
				err = tx.InsertAvailability(ctx, v)
			case persistence.Session:
				err = tx.CreateSession(ctx, v)
			case persistence.Review:
				err = tx.CreateReview(ctx, v)
			default:
				tb.Fatalf("cannot seed %T", row)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		tb.Fatalf("failed to seed store: %v", err)
	}
}

// Read runs fn in a read-only transaction and fails the test on error.
func Read(tb testing.TB, store persistence.Store, fn persistence.TxFunc) {
	tb.Helper()

	if err := store.WithinReadOnly(context.Background(), fn); err != nil {
		tb.Fatalf("read failed: %v", err)
	}
}
