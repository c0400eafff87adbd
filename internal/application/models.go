package application

import "time"

// EventInput captures caller provided event fields.
type EventInput struct {
	Title string
	Start time.Time
	End   time.Time
	Color *string
	Notes *string
}

// Event represents a persisted calendar event. Start and End are UTC
// instants; views convert them to the display location when rendering.
type Event struct {
	ID    string
	Title string
	Start time.Time
	End   time.Time
	Color *string
	Notes *string
}

// UpdateEventParams wraps the data required to update an existing event.
type UpdateEventParams struct {
	EventID string
	Input   EventInput
}

// SlotLineView is one horizontal grid line of the day timeline.
type SlotLineView struct {
	MinuteOfDay int
	OffsetY     int
	OnHour      bool
	Label       string
}

// EventBox positions a single event on the day timeline.
type EventBox struct {
	Event  Event
	Top    int
	Height int
	Label  string
	// Clipped reports that part of the event lies outside the visible
	// window, so the box shows only the portion inside it.
	Clipped bool
}

// EventStack groups the events rendered in one overlap column.
type EventStack struct {
	Boxes []EventBox
}

// DayLayout is the fully resolved geometry for one visible day.
type DayLayout struct {
	Date         string // YYYY-MM-DD in the display location
	Heading      string
	Height       int
	Generation   uint64
	SlotLines    []SlotLineView
	Stacks       []EventStack
	Announcement string
}

// MonthDay summarizes the events that touch one day of a month overview.
type MonthDay struct {
	Date   string // YYYY-MM-DD in the display location
	Events []Event
}

// MonthOverview lists every day of a month with the events overlapping it.
type MonthOverview struct {
	Month string // YYYY-MM
	Days  []MonthDay
}
