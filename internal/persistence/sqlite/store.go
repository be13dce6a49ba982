package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/tutor-marketplace/internal/persistence"
	"github.com/example/tutor-marketplace/internal/scheduler"
)

// Store implements persistence.Store on top of SQLite.
type Store struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
	retry  *RetryHelper
}

var _ persistence.Store = (*Store)(nil)

// Open connects to the configured database and applies the schema.
func Open(ctx context.Context, cfg SQLiteConfig) (*Store, error) {
	pool, err := NewConnectionPool(cfg)
	if err != nil {
		return nil, err
	}
	if err := Bootstrap(ctx, pool.DB()); err != nil {
		_ = pool.Close()
		return nil, err
	}
	return &Store{
		pool:   pool,
		mapper: NewErrorMapper(),
		retry:  NewRetryHelper(DefaultRetryConfig()),
	}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	return s.pool.Close()
}

// Pool exposes the underlying connection pool.
func (s *Store) Pool() *ConnectionPool {
	return s.pool
}

// WithinTransaction runs fn inside a BEGIN IMMEDIATE transaction, so writers
// are serialized. Lock contention restarts fn from scratch.
func (s *Store) WithinTransaction(ctx context.Context, fn persistence.TxFunc) error {
	return s.retry.WithRetry(ctx, func() error {
		return s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			return fn(ctx, &txRepositories{tx: tx, mapper: s.mapper})
		})
	})
}

// WithinReadOnly runs fn inside a deferred read-only transaction.
func (s *Store) WithinReadOnly(ctx context.Context, fn persistence.TxFunc) error {
	return s.retry.WithRetry(ctx, func() error {
		return s.pool.WithReadOnlyTransaction(ctx, func(tx *sql.Tx) error {
			return fn(ctx, &txRepositories{tx: tx, mapper: s.mapper})
		})
	})
}

// txRepositories implements persistence.Tx for one *sql.Tx.
type txRepositories struct {
	tx     *sql.Tx
	mapper *ErrorMapper
}

func (r *txRepositories) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := r.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	return res, nil
}

// execOne runs an update that must touch exactly one row.
func (r *txRepositories) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.exec(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// timestampLayout is fixed width so that stored values sort chronologically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", value, err)
	}
	return t, nil
}

func parseTimeOfDay(value string) (scheduler.TimeOfDay, error) {
	return scheduler.ParseTimeOfDay(value)
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func stringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	v := value.String
	return &v
}

func nullFloat(value *float64) sql.NullFloat64 {
	if value == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *value, Valid: true}
}

func floatPtr(value sql.NullFloat64) *float64 {
	if !value.Valid {
		return nil
	}
	v := value.Float64
	return &v
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
