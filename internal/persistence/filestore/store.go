// Package filestore persists the calendar's event list as a single ordered
// JSON document on disk. The whole list is rewritten atomically on every
// mutation; with one user editing one calendar the list stays small and the
// full rewrite keeps the on-disk representation trivially consistent.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/example/daygrid/internal/persistence"
)

// Store implements persistence.EventRepository on top of a JSON file.
type Store struct {
	mu     sync.RWMutex
	path   string
	events map[string]persistence.Event
}

// eventRecord is the serialized form of one event. Start and end are UTC
// ISO-8601 instants; color and notes are omitted when absent.
type eventRecord struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Start string  `json:"start"`
	End   string  `json:"end"`
	Color *string `json:"color,omitempty"`
	Notes *string `json:"notes,omitempty"`
}

// Open loads the event list at path, creating an empty store when the file
// does not exist yet. A file that cannot be decoded is reported as an error
// rather than silently replaced.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("filestore: path is empty")
	}

	store := &Store{
		path:   path,
		events: make(map[string]persistence.Event),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return store, nil
		}
		return nil, fmt.Errorf("filestore: read %s: %w", path, err)
	}

	var records []eventRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("filestore: decode %s: %w", path, err)
	}
	for _, record := range records {
		event, err := record.toEvent()
		if err != nil {
			return nil, fmt.Errorf("filestore: decode %s: %w", path, err)
		}
		store.events[event.ID] = event
	}

	return store, nil
}

// Close releases resources held by the store. The store writes through on
// every mutation, so closing has nothing left to flush.
func (s *Store) Close() error {
	return nil
}

// Path returns the location of the backing file.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// CreateEvent stores a new event and persists the updated list.
func (s *Store) CreateEvent(ctx context.Context, event persistence.Event) error {
	return s.mutate(func(events map[string]persistence.Event) error {
		if _, ok := events[event.ID]; ok {
			return persistence.ErrDuplicate
		}
		if !event.End.After(event.Start) {
			return persistence.ErrConstraintViolation
		}
		events[event.ID] = cloneEvent(event)
		return nil
	})
}

// UpdateEvent replaces an existing event and persists the updated list.
func (s *Store) UpdateEvent(ctx context.Context, event persistence.Event) error {
	return s.mutate(func(events map[string]persistence.Event) error {
		if _, ok := events[event.ID]; !ok {
			return persistence.ErrNotFound
		}
		if !event.End.After(event.Start) {
			return persistence.ErrConstraintViolation
		}
		events[event.ID] = cloneEvent(event)
		return nil
	})
}

// GetEvent retrieves an event by ID.
func (s *Store) GetEvent(ctx context.Context, id string) (persistence.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	event, ok := s.events[id]
	if !ok {
		return persistence.Event{}, persistence.ErrNotFound
	}
	return cloneEvent(event), nil
}

// ListEvents returns events matching the filter ordered by start time, ties
// broken by ID.
func (s *Store) ListEvents(ctx context.Context, filter persistence.EventFilter) ([]persistence.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]persistence.Event, 0, len(s.events))
	for _, event := range s.events {
		if !matchesEventFilter(event, filter) {
			continue
		}
		events = append(events, cloneEvent(event))
	}

	sortEvents(events)
	return events, nil
}

// DeleteEvent removes an event by ID and persists the updated list.
func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	return s.mutate(func(events map[string]persistence.Event) error {
		if _, ok := events[id]; !ok {
			return persistence.ErrNotFound
		}
		delete(events, id)
		return nil
	})
}

// mutate applies fn to a copy of the event map, persists the copy, and only
// then publishes it. A failed write leaves both memory and disk untouched.
func (s *Store) mutate(fn func(map[string]persistence.Event) error) error {
	if s == nil {
		return fmt.Errorf("filestore: store is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]persistence.Event, len(s.events)+1)
	for id, event := range s.events {
		next[id] = cloneEvent(event)
	}

	if err := fn(next); err != nil {
		return err
	}
	if err := s.saveLocked(next); err != nil {
		return fmt.Errorf("filestore: persist events: %w", err)
	}

	s.events = next
	return nil
}

// saveLocked writes the event list atomically: temp file in the same
// directory, sync, then rename over the target.
func (s *Store) saveLocked(events map[string]persistence.Event) error {
	records := make([]eventRecord, 0, len(events))
	ordered := make([]persistence.Event, 0, len(events))
	for _, event := range events {
		ordered = append(ordered, event)
	}
	sortEvents(ordered)
	for _, event := range ordered {
		records = append(records, toRecord(event))
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".daygrid-events-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path)
}

func toRecord(event persistence.Event) eventRecord {
	return eventRecord{
		ID:    event.ID,
		Title: event.Title,
		Start: event.Start.UTC().Format(time.RFC3339),
		End:   event.End.UTC().Format(time.RFC3339),
		Color: cloneOptional(event.Color),
		Notes: cloneOptional(event.Notes),
	}
}

func (r eventRecord) toEvent() (persistence.Event, error) {
	start, err := time.Parse(time.RFC3339, r.Start)
	if err != nil {
		return persistence.Event{}, fmt.Errorf("event %s: invalid start %q: %w", r.ID, r.Start, err)
	}
	end, err := time.Parse(time.RFC3339, r.End)
	if err != nil {
		return persistence.Event{}, fmt.Errorf("event %s: invalid end %q: %w", r.ID, r.End, err)
	}
	return persistence.Event{
		ID:    r.ID,
		Title: r.Title,
		Start: start.UTC(),
		End:   end.UTC(),
		Color: cloneOptional(r.Color),
		Notes: cloneOptional(r.Notes),
	}, nil
}

func cloneEvent(event persistence.Event) persistence.Event {
	event.Color = cloneOptional(event.Color)
	event.Notes = cloneOptional(event.Notes)
	return event
}

func cloneOptional(value *string) *string {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

func sortEvents(events []persistence.Event) {
	sort.Slice(events, func(i, j int) bool {
		if events[i].Start.Equal(events[j].Start) {
			return events[i].ID < events[j].ID
		}
		return events[i].Start.Before(events[j].Start)
	})
}

func matchesEventFilter(event persistence.Event, filter persistence.EventFilter) bool {
	if filter.OverlapsStart != nil && !event.End.After(*filter.OverlapsStart) {
		return false
	}
	if filter.OverlapsEnd != nil && !event.Start.Before(*filter.OverlapsEnd) {
		return false
	}
	return true
}
