package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/daygrid/internal/application"
	"github.com/example/daygrid/internal/timefmt"
	"github.com/example/daygrid/internal/timegrid"
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

// EventServiceDeps captures dependencies for constructing an event service.
type EventServiceDeps struct {
	Events      application.EventRepository
	IDGenerator func() string
	Logger      *slog.Logger
}

// NewEventService builds an event service using the supplied dependencies
// combined with the factory defaults.
func (f *ServiceFactory) NewEventService(deps EventServiceDeps) *application.EventService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	return application.NewEventServiceWithLogger(
		deps.Events,
		idGen,
		deps.Logger,
	)
}

// DayViewServiceDeps captures dependencies for constructing a day view service.
type DayViewServiceDeps struct {
	Events    *application.EventService
	Window    timegrid.Window
	Formatter *timefmt.Formatter
	Now       func() time.Time
	Logger    *slog.Logger
}

// NewDayViewService builds a day view service using the supplied dependencies.
// A zero window falls back to DefaultWindow and a nil formatter to the UTC
// display formatter.
func (f *ServiceFactory) NewDayViewService(deps DayViewServiceDeps) (*application.DayViewService, error) {
	window := deps.Window
	if window == (timegrid.Window{}) {
		window = DefaultWindow()
	}
	formatter := deps.Formatter
	if formatter == nil {
		formatter = DisplayFormatter()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewDayViewServiceWithLogger(
		deps.Events,
		window,
		formatter,
		now,
		deps.Logger,
	)
}
