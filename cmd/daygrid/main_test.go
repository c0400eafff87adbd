package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/daygrid/internal/application"
	"github.com/example/daygrid/internal/config"
	"github.com/example/daygrid/internal/persistence"
)

func TestOpenStore(t *testing.T) {

	t.Run("opens the filestore backend", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "events.json")
		cfg := config.StorageConfig{Backend: config.BackendFilestore, Path: path}

		repo, closeStore, err := openStore(cfg)
		if err != nil {
			t.Fatalf("openStore returned error: %v", err)
		}

		event := persistence.Event{
			ID:    "evt-1",
			Title: "Standup",
			Start: time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC),
			End:   time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC),
		}
		if err := repo.CreateEvent(context.Background(), event); err != nil {
			t.Fatalf("CreateEvent returned error: %v", err)
		}
		if err := closeStore(); err != nil {
			t.Fatalf("close returned error: %v", err)
		}

		reopened, closeAgain, err := openStore(cfg)
		if err != nil {
			t.Fatalf("reopen returned error: %v", err)
		}
		defer closeAgain()

		stored, err := reopened.GetEvent(context.Background(), "evt-1")
		if err != nil {
			t.Fatalf("GetEvent returned error: %v", err)
		}
		if stored.Title != "Standup" {
			t.Fatalf("expected the event to survive a reopen, got %+v", stored)
		}
	})

	t.Run("opens and migrates the sqlite backend", func(t *testing.T) {
		cfg := config.StorageConfig{
			Backend:    config.BackendSQLite,
			SQLitePath: filepath.Join(t.TempDir(), "daygrid.db"),
		}

		repo, closeStore, err := openStore(cfg)
		if err != nil {
			t.Fatalf("openStore returned error: %v", err)
		}
		defer closeStore()

		event := persistence.Event{
			ID:    "evt-1",
			Title: "Standup",
			Start: time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC),
			End:   time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC),
		}
		if err := repo.CreateEvent(context.Background(), event); err != nil {
			t.Fatalf("CreateEvent returned error: %v", err)
		}
		stored, err := repo.GetEvent(context.Background(), "evt-1")
		if err != nil {
			t.Fatalf("GetEvent returned error: %v", err)
		}
		if stored.Title != "Standup" {
			t.Fatalf("unexpected stored event: %+v", stored)
		}
	})

	t.Run("rejects unknown backends", func(t *testing.T) {
		_, _, err := openStore(config.StorageConfig{Backend: "postgres"})
		if err == nil {
			t.Fatalf("expected error for unknown backend")
		}
	})
}

func TestEventRepositoryAdapter(t *testing.T) {

	newAdapter := func(t *testing.T) *eventRepositoryAdapter {
		t.Helper()
		repo, closeStore, err := openStore(config.StorageConfig{
			Backend: config.BackendFilestore,
			Path:    filepath.Join(t.TempDir(), "events.json"),
		})
		if err != nil {
			t.Fatalf("openStore returned error: %v", err)
		}
		t.Cleanup(func() { closeStore() })
		return newEventRepositoryAdapter(repo)
	}

	t.Run("round-trips events through persistence", func(t *testing.T) {
		adapter := newAdapter(t)
		color := "#336699"
		event := application.Event{
			ID:    "evt-1",
			Title: "Standup",
			Start: time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC),
			End:   time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC),
			Color: &color,
		}

		created, err := adapter.CreateEvent(context.Background(), event)
		if err != nil {
			t.Fatalf("CreateEvent returned error: %v", err)
		}
		if created.ID != "evt-1" || created.Color == nil || *created.Color != "#336699" {
			t.Fatalf("unexpected created event: %+v", created)
		}

		// The adapter clones optional fields, so mutating the caller's
		// string cannot reach the stored copy.
		color = "#000000"
		stored, err := adapter.GetEvent(context.Background(), "evt-1")
		if err != nil {
			t.Fatalf("GetEvent returned error: %v", err)
		}
		if stored.Color == nil || *stored.Color != "#336699" {
			t.Fatalf("expected the stored color to be isolated, got %+v", stored.Color)
		}
	})

	t.Run("lists only events overlapping the range", func(t *testing.T) {
		adapter := newAdapter(t)
		morning := application.Event{
			ID:    "evt-morning",
			Title: "Standup",
			Start: time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC),
			End:   time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC),
		}
		evening := application.Event{
			ID:    "evt-evening",
			Title: "Retro",
			Start: time.Date(2024, time.January, 1, 18, 0, 0, 0, time.UTC),
			End:   time.Date(2024, time.January, 1, 19, 0, 0, 0, time.UTC),
		}
		for _, event := range []application.Event{morning, evening} {
			if _, err := adapter.CreateEvent(context.Background(), event); err != nil {
				t.Fatalf("CreateEvent returned error: %v", err)
			}
		}

		events, err := adapter.ListOverlapping(context.Background(),
			time.Date(2024, time.January, 1, 8, 0, 0, 0, time.UTC),
			time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC),
		)
		if err != nil {
			t.Fatalf("ListOverlapping returned error: %v", err)
		}
		if len(events) != 1 || events[0].ID != "evt-morning" {
			t.Fatalf("expected only the morning event, got %+v", events)
		}

		empty, err := adapter.ListOverlapping(context.Background(),
			time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, time.February, 2, 0, 0, 0, 0, time.UTC),
		)
		if err != nil {
			t.Fatalf("ListOverlapping returned error: %v", err)
		}
		if empty != nil {
			t.Fatalf("expected nil for an empty range, got %+v", empty)
		}
	})

	t.Run("passes persistence errors through untranslated", func(t *testing.T) {
		adapter := newAdapter(t)

		_, err := adapter.GetEvent(context.Background(), "missing")
		if !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected persistence.ErrNotFound, got %v", err)
		}
	})
}

func TestHealthExempt(t *testing.T) {

	var wrapped bool
	wrap := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped = true
			next.ServeHTTP(w, r)
		})
	}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := healthExempt(wrap)(next)

	t.Run("lets the liveness probe through", func(t *testing.T) {
		wrapped = false
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		if wrapped {
			t.Fatalf("expected /healthz to bypass the middleware")
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("guards every other path", func(t *testing.T) {
		wrapped = false
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events", nil))
		if !wrapped {
			t.Fatalf("expected /api/events to pass through the middleware")
		}
	})
}
