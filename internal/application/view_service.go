package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/example/daygrid/internal/drag"
	"github.com/example/daygrid/internal/timefmt"
	"github.com/example/daygrid/internal/timegrid"
)

const (
	layoutCacheSize = 32
	layoutCacheTTL  = 5 * time.Minute
)

// dayState is the cached result of loading one day's events.
type dayState struct {
	events []Event
	layout DayLayout
}

// DayViewService owns the state of the visible day timeline: which day is
// shown, the events loaded for it, the resolved layout, and the drag session.
// Every transition is serialized behind one mutex. Loads carry a generation
// counter; a load superseded by a newer navigation is discarded rather than
// applied, so responses arriving out of order can never roll the view back.
type DayViewService struct {
	mu           sync.Mutex
	events       *EventService
	window       timegrid.Window
	formatter    *timefmt.Formatter
	interpreter  *drag.Interpreter
	layouts      *expirable.LRU[string, dayState]
	generation   uint64
	day          time.Time // midnight of the visible day in the display location
	current      []Event
	announcement string
	logger       *slog.Logger
}

// NewDayViewService constructs a day view service with the provided dependencies.
func NewDayViewService(events *EventService, window timegrid.Window, formatter *timefmt.Formatter, now func() time.Time) (*DayViewService, error) {
	return NewDayViewServiceWithLogger(events, window, formatter, now, nil)
}

// NewDayViewServiceWithLogger constructs a day view service with a specified
// logger. The view opens on the day containing now in the display location.
func NewDayViewServiceWithLogger(events *EventService, window timegrid.Window, formatter *timefmt.Formatter, now func() time.Time, logger *slog.Logger) (*DayViewService, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	if formatter == nil {
		formatter = timefmt.NewFormatter(nil)
	}
	if now == nil {
		now = time.Now
	}
	s := &DayViewService{
		events:      events,
		window:      window,
		formatter:   formatter,
		interpreter: drag.NewInterpreter(window),
		layouts:     expirable.NewLRU[string, dayState](layoutCacheSize, nil, layoutCacheTTL),
		logger:      defaultLogger(logger),
	}
	s.day = s.startOfDay(now())
	return s, nil
}

func (s *DayViewService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "DayViewService", operation, attrs...)
}

// Window returns the slot geometry the view renders with.
func (s *DayViewService) Window() timegrid.Window {
	return s.window
}

// VisibleDay returns the day the view currently shows, formatted YYYY-MM-DD.
func (s *DayViewService) VisibleDay() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.formatter.DayKey(s.day)
}

// Announcement returns the status line produced by the most recent mutation.
func (s *DayViewService) Announcement() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.announcement
}

// ShowDay navigates the view to the given day (YYYY-MM-DD) and returns its
// layout. Navigating advances the generation, so a slower load started for a
// previously shown day resolves as ErrStaleView instead of overwriting this
// one.
func (s *DayViewService) ShowDay(ctx context.Context, date string) (layout DayLayout, err error) {
	if s == nil {
		err = fmt.Errorf("DayViewService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ShowDay",
		"date", date,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to show day", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("generation", layout.Generation).InfoContext(ctx, "day shown")
	}()

	day, parseErr := s.formatter.ParseDay(date)
	if parseErr != nil {
		vErr := &ValidationError{}
		vErr.add("date", "date must be formatted as YYYY-MM-DD")
		err = vErr
		return
	}

	s.mu.Lock()
	s.day = day
	s.generation++
	gen := s.generation
	if state, ok := s.layouts.Get(s.layoutKey(day)); ok {
		s.current = state.events
		layout = state.layout
		layout.Generation = gen
		layout.Announcement = s.announcement
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	layout, err = s.refresh(ctx, gen)
	return
}

// Refresh reloads the visible day without navigating.
func (s *DayViewService) Refresh(ctx context.Context) (DayLayout, error) {
	if s == nil {
		return DayLayout{}, fmt.Errorf("DayViewService is nil")
	}
	s.mu.Lock()
	gen := s.generation
	s.mu.Unlock()
	return s.refresh(ctx, gen)
}

// refresh loads the events for the visible day and, when gen still matches
// the service generation, applies them and returns the rebuilt layout. A
// mismatched generation means a newer navigation won; the loaded result is
// dropped.
func (s *DayViewService) refresh(ctx context.Context, gen uint64) (DayLayout, error) {
	s.mu.Lock()
	day := s.day
	s.mu.Unlock()

	dayStart, dayEnd := s.formatter.DayBounds(day)
	events, err := s.events.ListEvents(ctx, dayStart, dayEnd)
	if err != nil {
		return DayLayout{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return DayLayout{}, ErrStaleView
	}
	s.current = events
	layout := s.buildLayout(day, dayStart, dayEnd, events)
	layout.Generation = gen
	layout.Announcement = s.announcement
	s.layouts.Add(s.layoutKey(day), dayState{events: events, layout: layout})
	return layout, nil
}

// CreateEvent persists a new event, then refreshes the visible day.
func (s *DayViewService) CreateEvent(ctx context.Context, input EventInput) (event Event, err error) {
	if s == nil {
		err = fmt.Errorf("DayViewService is nil")
		return
	}

	event, err = s.events.CreateEvent(ctx, input)
	if err != nil {
		return
	}

	s.mu.Lock()
	s.layouts.Purge()
	s.announcement = fmt.Sprintf("%q scheduled for %s", event.Title, s.formatter.DayRange(event.Start, event.End))
	gen := s.generation
	s.mu.Unlock()

	s.refreshAfterMutation(ctx, gen, s.loggerWith(ctx, "CreateEvent"))
	return
}

// UpdateEvent replaces an event's fields, then refreshes the visible day.
func (s *DayViewService) UpdateEvent(ctx context.Context, params UpdateEventParams) (event Event, err error) {
	if s == nil {
		err = fmt.Errorf("DayViewService is nil")
		return
	}

	event, err = s.events.UpdateEvent(ctx, params)
	if err != nil {
		return
	}

	s.mu.Lock()
	s.layouts.Purge()
	s.announcement = fmt.Sprintf("%q moved to %s", event.Title, s.formatter.DayRange(event.Start, event.End))
	gen := s.generation
	s.mu.Unlock()

	s.refreshAfterMutation(ctx, gen, s.loggerWith(ctx, "UpdateEvent"))
	return
}

// DeleteEvent removes an event, then refreshes the visible day. Deleting an
// id that does not exist succeeds without changing anything.
func (s *DayViewService) DeleteEvent(ctx context.Context, eventID string) error {
	if s == nil {
		return fmt.Errorf("DayViewService is nil")
	}

	s.mu.Lock()
	title := ""
	if event, ok := findEvent(s.current, eventID); ok {
		title = event.Title
	}
	s.mu.Unlock()

	if err := s.events.DeleteEvent(ctx, eventID); err != nil {
		return err
	}

	s.mu.Lock()
	s.layouts.Purge()
	if title != "" {
		s.announcement = fmt.Sprintf("%q removed", title)
	} else {
		s.announcement = "event removed"
	}
	gen := s.generation
	s.mu.Unlock()

	s.refreshAfterMutation(ctx, gen, s.loggerWith(ctx, "DeleteEvent"))
	return nil
}

// BeginDrag starts a drag session on one of the visible events. Only one
// session can be active at a time.
func (s *DayViewService) BeginDrag(eventID string, mode drag.Mode, pointerY int) error {
	if s == nil {
		return fmt.Errorf("DayViewService is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := findEvent(s.current, eventID)
	if !ok {
		return ErrNotFound
	}
	subject := timegrid.Span{ID: event.ID, Start: event.Start, End: event.End}
	return s.interpreter.Begin(subject, mode, pointerY)
}

// DragTo advances the active drag session to a new pointer position and
// returns the resulting ghost interval. The stored event is untouched.
func (s *DayViewService) DragTo(pointerY int) (timegrid.Span, error) {
	if s == nil {
		return timegrid.Span{}, fmt.Errorf("DayViewService is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interpreter.Move(pointerY)
}

// DragGhost returns the current ghost interval of the active drag session.
func (s *DayViewService) DragGhost() (timegrid.Span, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interpreter.Ghost()
}

// CancelDrag abandons the active drag session, if any.
func (s *DayViewService) CancelDrag() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interpreter.Cancel()
}

// CommitDrag ends the active drag session and persists its final interval.
// When the write fails the event keeps its pre-drag interval; the ghost is
// never stored.
func (s *DayViewService) CommitDrag(ctx context.Context) (event Event, err error) {
	if s == nil {
		err = fmt.Errorf("DayViewService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CommitDrag")

	s.mu.Lock()
	mode, _ := s.interpreter.Mode()
	final, releaseErr := s.interpreter.Release()
	if releaseErr != nil {
		s.mu.Unlock()
		err = releaseErr
		return
	}
	subject, ok := findEvent(s.current, final.ID)
	gen := s.generation
	s.mu.Unlock()

	if !ok {
		err = ErrNotFound
		return
	}

	event, err = s.events.UpdateEvent(ctx, UpdateEventParams{
		EventID: final.ID,
		Input: EventInput{
			Title: subject.Title,
			Start: final.Start,
			End:   final.End,
			Color: subject.Color,
			Notes: subject.Notes,
		},
	})
	if err != nil {
		logger.ErrorContext(ctx, "drag commit failed, event unchanged", "error", err, "error_kind", ErrorKind(err), "event_id", final.ID)
		return
	}

	verb := "moved to"
	if mode == drag.ModeResizeStart || mode == drag.ModeResizeEnd {
		verb = "resized to"
	}

	s.mu.Lock()
	s.layouts.Purge()
	s.announcement = fmt.Sprintf("%q %s %s", event.Title, verb, s.formatter.DayRange(event.Start, event.End))
	s.mu.Unlock()

	s.refreshAfterMutation(ctx, gen, logger)
	return
}

// MonthOverview lists every day of the given month (YYYY-MM) with the events
// overlapping each day.
func (s *DayViewService) MonthOverview(ctx context.Context, month string) (overview MonthOverview, err error) {
	if s == nil {
		err = fmt.Errorf("DayViewService is nil")
		return
	}

	logger := s.loggerWith(ctx, "MonthOverview",
		"month", month,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to build month overview", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "month overview built")
	}()

	first, parseErr := s.formatter.ParseMonth(month)
	if parseErr != nil {
		vErr := &ValidationError{}
		vErr.add("month", "month must be formatted as YYYY-MM")
		err = vErr
		return
	}

	monthStart, monthEnd := s.formatter.MonthBounds(first)
	var events []Event
	events, err = s.events.ListEvents(ctx, monthStart, monthEnd)
	if err != nil {
		return
	}

	days := make([]MonthDay, 0, 31)
	for cursor := first; cursor.Month() == first.Month(); cursor = cursor.AddDate(0, 0, 1) {
		dayStart, dayEnd := s.formatter.DayBounds(cursor)
		var dayEvents []Event
		for _, event := range events {
			if event.Start.Before(dayEnd) && event.End.After(dayStart) {
				dayEvents = append(dayEvents, event)
			}
		}
		days = append(days, MonthDay{Date: s.formatter.DayKey(cursor), Events: dayEvents})
	}

	overview = MonthOverview{Month: month, Days: days}
	return
}

// refreshAfterMutation reloads the visible day after a successful write. A
// stale result means a navigation raced the mutation and already reloaded;
// anything else is logged, since the write itself has succeeded.
func (s *DayViewService) refreshAfterMutation(ctx context.Context, gen uint64, logger *slog.Logger) {
	if _, err := s.refresh(ctx, gen); err != nil && !errors.Is(err, ErrStaleView) {
		logger.WarnContext(ctx, "view refresh failed after mutation", "error", err, "error_kind", ErrorKind(err))
	}
}

func (s *DayViewService) buildLayout(day, dayStart, dayEnd time.Time, events []Event) DayLayout {
	byID := make(map[string]Event, len(events))
	spans := make([]timegrid.Span, 0, len(events))
	for _, event := range events {
		byID[event.ID] = event
		spans = append(spans, timegrid.Span{ID: event.ID, Start: event.Start, End: event.End})
	}

	var stacks []EventStack
	for _, stack := range timegrid.BuildStacks(spans) {
		boxes := make([]EventBox, 0, len(stack.Spans))
		for _, span := range stack.Spans {
			event := byID[span.ID]
			startMinute := s.minuteWithinDay(event.Start, dayStart, dayEnd)
			endMinute := s.minuteWithinDay(event.End, dayStart, dayEnd)
			top, height := s.window.SpanPixels(startMinute, endMinute)
			clipped := event.Start.Before(dayStart) || event.End.After(dayEnd) ||
				startMinute < s.window.StartHour*60 || endMinute > s.window.EndHour*60
			boxes = append(boxes, EventBox{
				Event:   event,
				Top:     top,
				Height:  height,
				Label:   s.formatter.Range(event.Start, event.End),
				Clipped: clipped,
			})
		}
		stacks = append(stacks, EventStack{Boxes: boxes})
	}

	lines := make([]SlotLineView, 0, s.window.Minutes()/s.window.SlotMinutes+1)
	for _, line := range s.window.SlotLines() {
		view := SlotLineView{MinuteOfDay: line.MinuteOfDay, OffsetY: line.OffsetY, OnHour: line.OnHour}
		if line.OnHour {
			view.Label = fmt.Sprintf("%02d:00", line.MinuteOfDay/60)
		}
		lines = append(lines, view)
	}

	return DayLayout{
		Date:      s.formatter.DayKey(day),
		Heading:   s.formatter.DayHeading(day),
		Height:    s.window.Height(),
		SlotLines: lines,
		Stacks:    stacks,
	}
}

// minuteWithinDay maps an instant to a clock-of-day minute for layout.
// Instants outside [dayStart, dayEnd) clamp to the day edges, so an event
// spanning midnight renders only its portion inside the visible day.
func (s *DayViewService) minuteWithinDay(t, dayStart, dayEnd time.Time) int {
	if !t.After(dayStart) {
		return 0
	}
	if !t.Before(dayEnd) {
		return 24 * 60
	}
	return timegrid.MinuteOfDay(t, s.formatter.Location())
}

func (s *DayViewService) layoutKey(day time.Time) string {
	w := s.window
	return fmt.Sprintf("%s|%d-%d-%d-%d", s.formatter.DayKey(day), w.StartHour, w.EndHour, w.SlotMinutes, w.SlotPixels)
}

func (s *DayViewService) startOfDay(t time.Time) time.Time {
	local := s.formatter.Local(t)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.formatter.Location())
}

func findEvent(events []Event, id string) (Event, bool) {
	for _, event := range events {
		if event.ID == id {
			return event, true
		}
	}
	return Event{}, false
}
