package persistence

import "context"
import "time"

// EventFilter narrows event queries. A bound set on either side restricts
// results to events whose interval overlaps the half-open range
// [OverlapsStart, OverlapsEnd): the event must start before the range end
// and end after the range start.
type EventFilter struct {
	OverlapsStart *time.Time
	OverlapsEnd   *time.Time
}

// EventRepository stores the calendar's single ordered event list.
// Implementations return events ordered by start time, ties broken by ID,
// and keep the persisted representation in UTC.
type EventRepository interface {
	CreateEvent(ctx context.Context, event Event) error
	UpdateEvent(ctx context.Context, event Event) error
	GetEvent(ctx context.Context, id string) (Event, error)
	ListEvents(ctx context.Context, filter EventFilter) ([]Event, error)
	DeleteEvent(ctx context.Context, id string) error
}
