package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/tutor-marketplace/internal/application"
	"github.com/example/tutor-marketplace/internal/config"
	"github.com/example/tutor-marketplace/internal/identity"
	"github.com/example/tutor-marketplace/internal/logging"
	"github.com/example/tutor-marketplace/internal/metrics"
	"github.com/example/tutor-marketplace/internal/notify"
	"github.com/example/tutor-marketplace/internal/persistence"
	"github.com/example/tutor-marketplace/internal/persistence/postgres"
	"github.com/example/tutor-marketplace/internal/persistence/sqlite"
)

var errInboxDisabled = errors.New("notifications: redis is not configured")

// app holds everything a command needs for one process run.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	syncLog  func() error
	store    persistence.Store
	gormDB   *gorm.DB
	verifier *identity.Verifier
	notifier *notify.Notifier
	inbox    *notify.RedisStore
	metrics  *metrics.Collector
	ids      func() string
	now      func() time.Time

	availability *application.AvailabilityService
	booking      *application.BookingService
	sessions     *application.SessionService
	reviews      *application.ReviewService
	reconcile    *application.ReconcileService
	directory    *application.DirectoryService
	reporting    *application.ReportingService
}

func openApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, syncLog, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		syncLog:  syncLog,
		verifier: identity.NewVerifier(cfg.Auth.JWTSecret),
		metrics:  metrics.NewCollector(""),
		ids:      uuid.NewString,
		now:      time.Now,
	}

	if err := a.openStore(ctx); err != nil {
		_ = syncLog()
		return nil, err
	}

	var dispatcher notify.Dispatcher = notify.NewLogDispatcher(logger)
	if cfg.RedisEnabled() {
		inbox, err := notify.Connect(ctx, cfg.Redis)
		if err != nil {
			logger.WarnContext(ctx, "redis unavailable, notifications fall back to the log", "addr", cfg.Redis.Addr, "error", err)
		} else {
			a.inbox = inbox
			dispatcher = inbox
		}
	}
	a.notifier = notify.NewNotifier(dispatcher, logger, a.metrics)

	deps := application.Dependencies{
		Store:       a.store,
		IDGenerator: a.ids,
		Now:         a.now,
		Logger:      logger,
		Metrics:     a.metrics,
	}
	a.availability = application.NewAvailabilityService(deps)
	a.booking = application.NewBookingService(deps)
	a.sessions = application.NewSessionService(deps)
	a.reviews = application.NewReviewService(deps)
	a.reconcile = application.NewReconcileService(deps)
	a.directory = application.NewDirectoryService(deps)
	a.reporting = application.NewReportingService(deps, cfg.Reporting.SessionRate)

	return a, nil
}

func (a *app) openStore(ctx context.Context) error {
	switch a.cfg.Store.Driver {
	case "postgres":
		db, err := postgres.NewDB(ctx, postgres.Config{
			DSN:          a.cfg.Postgres.DSN,
			MaxOpenConns: a.cfg.Postgres.MaxOpenConns,
		}, a.logger)
		if err != nil {
			return err
		}
		a.gormDB = db
		a.store = postgres.NewStore(db)
	default:
		sqliteCfg := sqlite.DefaultSQLiteConfig(a.cfg.SQLite.Path)
		sqliteCfg.BusyTimeout = a.cfg.SQLite.BusyTimeout
		store, err := sqlite.Open(ctx, sqliteCfg)
		if err != nil {
			return fmt.Errorf("open sqlite store: %w", err)
		}
		a.store = store
	}
	return nil
}

// principal authenticates the caller. There is no anonymous access.
func (a *app) principal(token string) (application.Principal, error) {
	return a.verifier.Principal(token)
}

// ensureSchema applies the relational schema. SQLite is bootstrapped on open.
func (a *app) ensureSchema(ctx context.Context) error {
	if a.gormDB != nil {
		return postgres.EnsureSchema(ctx, a.gormDB)
	}
	return nil
}

// close exports metrics and releases every resource, keeping the first error.
func (a *app) close() error {
	var errs []error
	if path := a.cfg.Metrics.Textfile; path != "" {
		if err := a.metrics.WriteTextfile(path); err != nil {
			errs = append(errs, err)
		}
	}
	if a.inbox != nil {
		if err := a.inbox.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.store.Close(); err != nil {
		errs = append(errs, err)
	}
	// Sync reports EINVAL when stderr is a terminal.
	_ = a.syncLog()
	return errors.Join(errs...)
}
