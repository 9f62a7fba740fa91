package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/geo-attendance/internal/application"
	"github.com/example/geo-attendance/internal/attendance"
	"github.com/example/geo-attendance/internal/geo"
	"github.com/example/geo-attendance/internal/location"
	"github.com/example/geo-attendance/internal/persistence/memory"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// CheckInServiceDeps captures dependencies for constructing a check-in
// service. Zero fields fall back to factory defaults: an in-memory store and
// the fixture Zone.
type CheckInServiceDeps struct {
	Records     application.RecordStore
	Zone        *geo.Zone
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewCheckInService builds a check-in service using the supplied dependencies
// combined with the factory defaults.
func (f *ServiceFactory) NewCheckInService(deps CheckInServiceDeps) *application.CheckInService {
	records := deps.Records
	if records == nil {
		records = attendance.NewStore(memory.Open())
	}
	zone := Zone()
	if deps.Zone != nil {
		zone = *deps.Zone
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewCheckInServiceWithLogger(records, zone, idGen, now, deps.Logger)
}

// NewStaticProvider returns a provider fixed at p, stamped by the factory clock.
func (f *ServiceFactory) NewStaticProvider(p geo.Point, accuracy float64) *location.StaticProvider {
	return location.NewStaticProvider(p.Latitude, p.Longitude, accuracy, f.Clock.NowFunc())
}
