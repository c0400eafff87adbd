package testfixtures

import (
	"context"
	"time"

	"github.com/example/daygrid/internal/application"
	"github.com/example/daygrid/internal/persistence"
)

// EventRepositoryAdapter bridges a persistence level event repository to the
// interface the application services consume, converting between the two
// event representations.
type EventRepositoryAdapter struct {
	repo persistence.EventRepository
}

// NewEventRepositoryAdapter wraps repo for use as an application.EventRepository.
func NewEventRepositoryAdapter(repo persistence.EventRepository) *EventRepositoryAdapter {
	return &EventRepositoryAdapter{repo: repo}
}

func (a *EventRepositoryAdapter) CreateEvent(ctx context.Context, event application.Event) (application.Event, error) {
	if err := a.repo.CreateEvent(ctx, persistenceEvent(event)); err != nil {
		return application.Event{}, err
	}
	record, err := a.repo.GetEvent(ctx, event.ID)
	if err != nil {
		return application.Event{}, err
	}
	return applicationEvent(record), nil
}

func (a *EventRepositoryAdapter) GetEvent(ctx context.Context, id string) (application.Event, error) {
	record, err := a.repo.GetEvent(ctx, id)
	if err != nil {
		return application.Event{}, err
	}
	return applicationEvent(record), nil
}

func (a *EventRepositoryAdapter) UpdateEvent(ctx context.Context, event application.Event) (application.Event, error) {
	if err := a.repo.UpdateEvent(ctx, persistenceEvent(event)); err != nil {
		return application.Event{}, err
	}
	record, err := a.repo.GetEvent(ctx, event.ID)
	if err != nil {
		return application.Event{}, err
	}
	return applicationEvent(record), nil
}

func (a *EventRepositoryAdapter) DeleteEvent(ctx context.Context, id string) error {
	return a.repo.DeleteEvent(ctx, id)
}

func (a *EventRepositoryAdapter) ListOverlapping(ctx context.Context, start, end time.Time) ([]application.Event, error) {
	records, err := a.repo.ListEvents(ctx, persistence.EventFilter{
		OverlapsStart: &start,
		OverlapsEnd:   &end,
	})
	if err != nil {
		return nil, err
	}
	events := make([]application.Event, 0, len(records))
	for _, record := range records {
		events = append(events, applicationEvent(record))
	}
	return events, nil
}

func persistenceEvent(event application.Event) persistence.Event {
	return persistence.Event{
		ID:    event.ID,
		Title: event.Title,
		Start: event.Start,
		End:   event.End,
		Color: event.Color,
		Notes: event.Notes,
	}
}

func applicationEvent(event persistence.Event) application.Event {
	return application.Event{
		ID:    event.ID,
		Title: event.Title,
		Start: event.Start,
		End:   event.End,
		Color: event.Color,
		Notes: event.Notes,
	}
}
