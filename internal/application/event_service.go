package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/daygrid/internal/persistence"
)

// EventRepository captures the persistence operations needed by the service.
type EventRepository interface {
	CreateEvent(ctx context.Context, event Event) (Event, error)
	GetEvent(ctx context.Context, id string) (Event, error)
	UpdateEvent(ctx context.Context, event Event) (Event, error)
	DeleteEvent(ctx context.Context, id string) error
	ListOverlapping(ctx context.Context, start, end time.Time) ([]Event, error)
}

// EventService orchestrates validation and persistence for calendar events.
type EventService struct {
	events      EventRepository
	idGenerator func() string
	logger      *slog.Logger
}

// NewEventService constructs an event service with the provided dependencies.
func NewEventService(events EventRepository, idGenerator func() string) *EventService {
	return NewEventServiceWithLogger(events, idGenerator, nil)
}

// NewEventServiceWithLogger constructs an event service with a specified logger.
func NewEventServiceWithLogger(events EventRepository, idGenerator func() string, logger *slog.Logger) *EventService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	return &EventService{events: events, idGenerator: idGenerator, logger: defaultLogger(logger)}
}

func (s *EventService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "EventService", operation, attrs...)
}

// CreateEvent validates input and persists a new event.
func (s *EventService) CreateEvent(ctx context.Context, input EventInput) (event Event, err error) {
	if s == nil {
		err = fmt.Errorf("EventService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateEvent")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create event", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("event_id", event.ID).InfoContext(ctx, "event created")
	}()

	vErr := validateEventInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	event = Event{
		ID:    s.idGenerator(),
		Title: strings.TrimSpace(input.Title),
		Start: input.Start.UTC(),
		End:   input.End.UTC(),
		Color: normalizeOptionalString(input.Color),
		Notes: normalizeOptionalString(input.Notes),
	}

	if s.events == nil {
		return
	}

	var persisted Event
	persisted, err = s.events.CreateEvent(ctx, event)
	if err != nil {
		err = mapEventRepoError(err)
		return
	}

	event = persisted
	return
}

// UpdateEvent validates input and replaces the fields of an existing event.
func (s *EventService) UpdateEvent(ctx context.Context, params UpdateEventParams) (event Event, err error) {
	if s == nil {
		err = fmt.Errorf("EventService is nil")
		return
	}
	if s.events == nil {
		err = fmt.Errorf("event repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateEvent",
		"event_id", params.EventID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update event", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "event updated")
	}()

	var existing Event
	existing, err = s.events.GetEvent(ctx, params.EventID)
	if err != nil {
		err = mapEventRepoError(err)
		return
	}

	vErr := validateEventInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	updated := existing
	updated.Title = strings.TrimSpace(params.Input.Title)
	updated.Start = params.Input.Start.UTC()
	updated.End = params.Input.End.UTC()
	updated.Color = normalizeOptionalString(params.Input.Color)
	updated.Notes = normalizeOptionalString(params.Input.Notes)

	event, err = s.events.UpdateEvent(ctx, updated)
	if err != nil {
		err = mapEventRepoError(err)
		return
	}

	return
}

// DeleteEvent removes an event. Deleting an id that does not exist is a no-op.
func (s *EventService) DeleteEvent(ctx context.Context, eventID string) error {
	if s == nil {
		return fmt.Errorf("EventService is nil")
	}
	if s.events == nil {
		return fmt.Errorf("event repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteEvent",
		"event_id", eventID,
	)

	if err := s.events.DeleteEvent(ctx, eventID); err != nil {
		err = mapEventRepoError(err)
		if errors.Is(err, ErrNotFound) {
			logger.InfoContext(ctx, "event already absent")
			return nil
		}
		logger.ErrorContext(ctx, "failed to delete event", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "event deleted")
	return nil
}

// ListEvents returns the events overlapping the half open range [start, end),
// ordered by start time with ties broken by id.
func (s *EventService) ListEvents(ctx context.Context, start, end time.Time) (events []Event, err error) {
	if s == nil {
		err = fmt.Errorf("EventService is nil")
		return
	}
	if s.events == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListEvents")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list events", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(events)).InfoContext(ctx, "events listed")
	}()

	if !end.After(start) {
		vErr := &ValidationError{}
		vErr.add("end", "end time must be after start time")
		err = vErr
		return
	}

	var raw []Event
	raw, err = s.events.ListOverlapping(ctx, start.UTC(), end.UTC())
	if err != nil {
		err = mapEventRepoError(err)
		return
	}

	events = make([]Event, len(raw))
	copy(events, raw)

	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Start.Equal(events[j].Start) {
			return events[i].ID < events[j].ID
		}
		return events[i].Start.Before(events[j].Start)
	})

	return
}

func validateEventInput(input EventInput) *ValidationError {
	vErr := &ValidationError{}

	if strings.TrimSpace(input.Title) == "" {
		vErr.add("title", "title is required")
	}
	if input.Start.IsZero() {
		vErr.add("start", "start time is required")
	}
	if input.End.IsZero() {
		vErr.add("end", "end time is required")
	}
	if !input.Start.IsZero() && !input.End.IsZero() && !input.End.After(input.Start) {
		vErr.add("end", "end time must be after start time")
	}

	return vErr
}

func mapEventRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("end", "end time must be after start time")
		return vErr
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return fmt.Errorf("%w: duplicate event id", ErrStorage)
	}
	return fmt.Errorf("%w: %v", ErrStorage, err)
}

func normalizeOptionalString(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
