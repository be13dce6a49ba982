package testfixtures

import (
	"io"
	"log/slog"
	"time"

	"github.com/example/tutor-marketplace/internal/application"
	"github.com/example/tutor-marketplace/internal/persistence"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Logger      *slog.Logger
	Recorder    *Recorder
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		Recorder:    &Recorder{},
	}
	for _, opt := range opts {
		opt(factory)
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithLogger overrides the logger handed to services.
func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Logger = logger
	}
}

// Dependencies returns service dependencies bound to store.
func (f *ServiceFactory) Dependencies(store persistence.Store) application.Dependencies {
	return application.Dependencies{
		Store:       store,
		IDGenerator: f.IDGenerator.NextFunc(),
		Now:         f.Clock.NowFunc(),
		Logger:      f.Logger,
		Metrics:     f.Recorder,
	}
}

// Services groups every application service over one store.
type Services struct {
	Availability *application.AvailabilityService
	Booking      *application.BookingService
	Sessions     *application.SessionService
	Reviews      *application.ReviewService
	Reconcile    *application.ReconcileService
	Directory    *application.DirectoryService
	Reporting    *application.ReportingService
}

// NewServices builds all services over store.
func (f *ServiceFactory) NewServices(store persistence.Store) Services {
	deps := f.Dependencies(store)
	return Services{
		Availability: application.NewAvailabilityService(deps),
		Booking:      application.NewBookingService(deps),
		Sessions:     application.NewSessionService(deps),
		Reviews:      application.NewReviewService(deps),
		Reconcile:    application.NewReconcileService(deps),
		Directory:    application.NewDirectoryService(deps),
		Reporting:    application.NewReportingService(deps, 0),
	}
}
