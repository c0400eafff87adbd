// Package snapshot writes periodic iCalendar copies of the event store so
// external tools can read the calendar without going through the API.
package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/example/daygrid/internal/application"
	"github.com/example/daygrid/internal/ics"
)

const captureTimeout = 30 * time.Second

// The capture window spans every event the store can realistically hold.
var (
	captureStart = time.Unix(0, 0).UTC()
	captureEnd   = time.Date(3000, time.January, 1, 0, 0, 0, 0, time.UTC)
)

// EventSource supplies the events to capture. *application.EventService
// satisfies it.
type EventSource interface {
	ListEvents(ctx context.Context, start, end time.Time) ([]application.Event, error)
}

// Exporter captures the full event list as an iCalendar file on a cron
// schedule. The target file is replaced atomically, so readers always see a
// complete snapshot.
type Exporter struct {
	events EventSource
	path   string
	now    func() time.Time
	logger *slog.Logger
	cron   *cron.Cron

	mu       sync.Mutex
	lastRun  time.Time
	lastErr  error
	captured int
}

// New prepares an exporter that writes to path on the given cron schedule,
// evaluated in location. The schedule is validated here so a bad
// configuration fails at startup instead of silently never firing.
func New(events EventSource, path, schedule string, location *time.Location, logger *slog.Logger) (*Exporter, error) {
	if events == nil {
		return nil, fmt.Errorf("snapshot: event source is required")
	}
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("snapshot: target path is required")
	}
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}

	exporter := &Exporter{
		events: events,
		path:   path,
		now:    time.Now,
		logger: logger,
		cron:   cron.New(cron.WithLocation(location)),
	}
	if _, err := exporter.cron.AddFunc(schedule, exporter.run); err != nil {
		return nil, fmt.Errorf("snapshot: invalid schedule %q: %w", schedule, err)
	}
	return exporter, nil
}

// Start begins the schedule. Captures run on the cron goroutine until Stop
// is called; Start itself returns immediately.
func (e *Exporter) Start() {
	e.cron.Start()
	e.logger.Info("snapshot schedule started", "path", e.path)
}

// Stop halts the schedule and waits for an in-flight capture to finish.
func (e *Exporter) Stop() {
	ctx := e.cron.Stop()
	<-ctx.Done()
	e.logger.Info("snapshot schedule stopped", "path", e.path)
}

// Capture writes one snapshot immediately. The scheduled runs call this; it
// is exported so startup and tests can force a capture without waiting for
// the next tick.
func (e *Exporter) Capture(ctx context.Context) error {
	if e == nil {
		return fmt.Errorf("snapshot: exporter is nil")
	}

	events, err := e.events.ListEvents(ctx, captureStart, captureEnd)
	if err != nil {
		e.record(0, err)
		return fmt.Errorf("snapshot: list events: %w", err)
	}

	stamp := e.now().UTC()
	body := ics.Export(events, stamp)
	if err := writeFileAtomic(e.path, body); err != nil {
		e.record(0, err)
		return fmt.Errorf("snapshot: write %s: %w", e.path, err)
	}

	e.record(len(events), nil)
	e.logger.InfoContext(ctx, "snapshot captured", "path", e.path, "events", len(events))
	return nil
}

// LastCapture reports when the most recent capture attempt ran, how many
// events it wrote, and the error it ended with, if any.
func (e *Exporter) LastCapture() (time.Time, int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastRun, e.captured, e.lastErr
}

func (e *Exporter) run() {
	ctx, cancel := context.WithTimeout(context.Background(), captureTimeout)
	defer cancel()

	if err := e.Capture(ctx); err != nil {
		e.logger.ErrorContext(ctx, "snapshot capture failed", "error", err, "path", e.path)
	}
}

func (e *Exporter) record(captured int, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastRun = e.now().UTC()
	e.captured = captured
	e.lastErr = err
}

// writeFileAtomic replaces path with body: temp file in the same directory,
// sync, then rename over the target.
func writeFileAtomic(path string, body []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".daygrid-snapshot-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(body); err != nil {
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
	return os.Rename(tmpName, path)
}
