package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/daygrid/internal/application"
	"github.com/example/daygrid/internal/persistence"
	"github.com/example/daygrid/internal/timefmt"
	"github.com/example/daygrid/internal/timegrid"
)

var eventCounter uint64

// referenceTime is 08:00 UTC on Monday 2024-01-01, the morning fixtures open
// the day view on.
var referenceTime = time.Date(2024, time.January, 1, 8, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ReferenceDay returns the fixture day in the form the view navigates by.
func ReferenceDay() string {
	return "2024-01-01"
}

// DefaultWindow returns the slot geometry shared across tests: a full day of
// 30 minute slots rendered 20 pixels tall.
func DefaultWindow() timegrid.Window {
	return timegrid.Window{StartHour: 0, EndHour: 24, SlotMinutes: 30, SlotPixels: 20}
}

// DisplayFormatter returns a UTC formatter so label assertions are stable.
func DisplayFormatter() *timefmt.Formatter {
	return timefmt.NewFormatter(time.UTC)
}

// EventFixture represents a deterministic event record that can be
// materialised for application or persistence tests.
type EventFixture struct {
	ID    string
	Title string
	Start time.Time
	End   time.Time
	Color *string
	Notes *string
}

// EventOption configures the generated event fixture.
type EventOption func(*EventFixture)

// NewEventFixture returns a deterministic event fixture with optional
// overrides. Each fixture starts one minute after the previous one and lasts
// thirty minutes.
func NewEventFixture(opts ...EventOption) EventFixture {
	idx := atomic.AddUint64(&eventCounter, 1)
	start := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := EventFixture{
		ID:    fmt.Sprintf("event-%03d", idx),
		Title: fmt.Sprintf("Event %03d", idx),
		Start: start,
		End:   start.Add(30 * time.Minute),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithEventID overrides the generated event ID.
func WithEventID(id string) EventOption {
	return func(f *EventFixture) {
		f.ID = id
	}
}

// WithEventTitle overrides the generated title.
func WithEventTitle(title string) EventOption {
	return func(f *EventFixture) {
		f.Title = title
	}
}

// WithEventInterval sets the start and end instants of the fixture.
func WithEventInterval(start, end time.Time) EventOption {
	return func(f *EventFixture) {
		f.Start = start
		f.End = end
	}
}

// WithEventColor sets the optional color marker.
func WithEventColor(color string) EventOption {
	return func(f *EventFixture) {
		f.Color = &color
	}
}

// WithEventNotes sets the optional notes text.
func WithEventNotes(notes string) EventOption {
	return func(f *EventFixture) {
		f.Notes = &notes
	}
}

// Application returns the fixture as an application.Event value.
func (f EventFixture) Application() application.Event {
	return application.Event{
		ID:    f.ID,
		Title: f.Title,
		Start: f.Start,
		End:   f.End,
		Color: f.Color,
		Notes: f.Notes,
	}
}

// Persistence returns the fixture as a persistence.Event value.
func (f EventFixture) Persistence() persistence.Event {
	return persistence.Event{
		ID:    f.ID,
		Title: f.Title,
		Start: f.Start,
		End:   f.End,
		Color: f.Color,
		Notes: f.Notes,
	}
}

// Input returns the fixture as caller supplied event fields, without the ID.
func (f EventFixture) Input() application.EventInput {
	return application.EventInput{
		Title: f.Title,
		Start: f.Start,
		End:   f.End,
		Color: f.Color,
		Notes: f.Notes,
	}
}
