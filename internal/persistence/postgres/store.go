package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/example/tutor-marketplace/internal/persistence"
)

const (
	maxSerializationRetries = 4
	initialRetryDelay       = 20 * time.Millisecond
)

// Store implements persistence.Store with SERIALIZABLE transactions.
type Store struct {
	db *gorm.DB
}

var _ persistence.Store = (*Store)(nil)

// NewStore wraps an open gorm connection.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Close closes the underlying pool.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// WithinTransaction runs fn in a SERIALIZABLE transaction and restarts it when
// PostgreSQL reports a serialization failure.
func (s *Store) WithinTransaction(ctx context.Context, fn persistence.TxFunc) error {
	return s.run(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable}, fn)
}

// WithinReadOnly runs fn in a read-only transaction.
func (s *Store) WithinReadOnly(ctx context.Context, fn persistence.TxFunc) error {
	return s.run(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}, fn)
}

func (s *Store) run(ctx context.Context, opts *sql.TxOptions, fn persistence.TxFunc) error {
	delay := initialRetryDelay
	var err error
	for attempt := 0; attempt <= maxSerializationRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(ctx, &gormTx{db: tx})
		}, opts)
		err = mapError(err)
		if !errors.Is(err, errSerialization) {
			return err
		}
	}
	return err
}
