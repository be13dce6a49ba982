package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/tutor-marketplace/internal/persistence"
)

// errBusy marks lock contention that is safe to retry.
var errBusy = errors.New("sqlite: database is busy")

// ConnectionPool owns the *sql.DB behind a Store.
type ConnectionPool struct {
	db     *sql.DB
	config SQLiteConfig
}

func NewConnectionPool(config SQLiteConfig) (*ConnectionPool, error) {
	db, err := openDatabase(config)
	if err != nil {
		return nil, fmt.Errorf("open sqlite pool at %q: %w", config.Path, err)
	}
	return &ConnectionPool{db: db, config: config}, nil
}

func (cp *ConnectionPool) DB() *sql.DB { return cp.db }

func (cp *ConnectionPool) Close() error {
	if cp == nil || cp.db == nil {
		return nil
	}
	return cp.db.Close()
}

// TransactionFunc is the body of a single booking, review or availability write.
type TransactionFunc func(tx *sql.Tx) error

// WithTransaction commits when fn returns nil and rolls back otherwise.
// The connection DSN requests immediate locking, so writers queue on BEGIN.
func (cp *ConnectionPool) WithTransaction(ctx context.Context, fn TransactionFunc) error {
	return cp.inTx(ctx, nil, fn)
}

func (cp *ConnectionPool) WithReadOnlyTransaction(ctx context.Context, fn TransactionFunc) error {
	return cp.inTx(ctx, &sql.TxOptions{ReadOnly: true}, fn)
}

func (cp *ConnectionPool) inTx(ctx context.Context, opts *sql.TxOptions, fn TransactionFunc) (err error) {
	tx, err := cp.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		rbErr := tx.Rollback()
		if p := recover(); p != nil {
			panic(p)
		}
		if rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			err = fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// ErrorMapper translates driver messages into persistence sentinels.
type ErrorMapper struct{}

func NewErrorMapper() *ErrorMapper { return &ErrorMapper{} }

// driverErrors lists message fragments in match order. The overlap trigger
// raises a plain ABORT, so its message has to be checked before the generic
// constraint families.
var driverErrors = []struct {
	fragments []string
	sentinel  error
}{
	{[]string{overlapMessage}, persistence.ErrOverlap},
	{[]string{"UNIQUE constraint failed"}, persistence.ErrDuplicate},
	{[]string{"FOREIGN KEY constraint failed", "CHECK constraint failed", "NOT NULL constraint failed"}, persistence.ErrConstraintViolation},
	{[]string{"database is locked", "database table is locked", "SQLITE_BUSY"}, errBusy},
}

var mappedSentinels = []error{
	persistence.ErrNotFound,
	persistence.ErrDuplicate,
	persistence.ErrOverlap,
	persistence.ErrConstraintViolation,
	errBusy,
}

func (em *ErrorMapper) MapError(err error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range mappedSentinels {
		if errors.Is(err, sentinel) {
			return err
		}
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", persistence.ErrNotFound, err)
	}

	msg := err.Error()
	for _, family := range driverErrors {
		for _, fragment := range family.fragments {
			if strings.Contains(msg, fragment) {
				return fmt.Errorf("%w: %v", family.sentinel, err)
			}
		}
	}
	return err
}

// RetryConfig bounds how long a transaction waits out a competing writer.
type RetryConfig struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  50 * time.Millisecond,
		MaxDelay:      2 * time.Second,
		BackoffFactor: 2.0,
	}
}

func (c RetryConfig) backoff(attempt int) time.Duration {
	delay := float64(c.InitialDelay)
	for i := 1; i < attempt; i++ {
		delay *= c.BackoffFactor
	}
	if d := time.Duration(delay); d < c.MaxDelay {
		return d
	}
	return c.MaxDelay
}

// RetryHelper re-runs a whole transaction body when SQLite reports lock
// contention. Conflicts and validation failures are never retried.
type RetryHelper struct {
	config RetryConfig
	mapper *ErrorMapper
}

func NewRetryHelper(config RetryConfig) *RetryHelper {
	return &RetryHelper{config: config, mapper: NewErrorMapper()}
}

type RetryableFunc func() error

func (rh *RetryHelper) WithRetry(ctx context.Context, fn RetryableFunc) error {
	var lastErr error
	for attempt := 0; attempt <= rh.config.MaxRetries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(rh.config.backoff(attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		lastErr = rh.mapper.MapError(fn())
		if lastErr == nil || !errors.Is(lastErr, errBusy) {
			return lastErr
		}
	}
	return fmt.Errorf("still busy after %d retries: %w", rh.config.MaxRetries, lastErr)
}
