package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/daygrid/internal/application"
	"github.com/example/daygrid/internal/ics"
)

const maxCalendarBytes = 1 << 20

// The export window spans every event the store can realistically hold.
var (
	exportRangeStart = time.Unix(0, 0).UTC()
	exportRangeEnd   = time.Date(3000, time.January, 1, 0, 0, 0, 0, time.UTC)
)

type calendarReader interface {
	ListEvents(ctx context.Context, start, end time.Time) ([]application.Event, error)
}

type calendarWriter interface {
	CreateEvent(ctx context.Context, input application.EventInput) (application.Event, error)
}

type CalendarHandler struct {
	reader    calendarReader
	writer    calendarWriter
	responder responder
	logger    *slog.Logger
	now       func() time.Time
}

func NewCalendarHandler(reader calendarReader, writer calendarWriter, logger *slog.Logger) *CalendarHandler {
	base := defaultLogger(logger)
	return &CalendarHandler{
		reader:    reader,
		writer:    writer,
		responder: newResponder(base),
		logger:    base,
		now:       time.Now,
	}
}

func (h *CalendarHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "CalendarHandler", operation, attrs...)
}

// Export serves the full event list as an iCalendar document.
func (h *CalendarHandler) Export(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.reader == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "Export")
	events, err := h.reader.ListEvents(r.Context(), exportRangeStart, exportRangeEnd)
	if err != nil {
		logger.ErrorContext(r.Context(), "calendar export failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	body := ics.Export(events, h.now().UTC())
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		logger.ErrorContext(r.Context(), "failed to write calendar export", "error", err)
		return
	}

	logger.With("event_count", len(events)).InfoContext(r.Context(), "calendar exported")
}

// Import creates events from an iCalendar payload. Entries without a usable
// interval and entries the event service rejects as invalid are skipped; a
// storage failure aborts the import.
func (h *CalendarHandler) Import(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.writer == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxCalendarBytes))
	if err != nil {
		h.log(r.Context(), "Import", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to read calendar payload", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	inputs, skipped, err := ics.Import(body)
	if err != nil {
		h.log(r.Context(), "Import", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to parse calendar payload", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	logger := h.log(r.Context(), "Import")

	imported := 0
	for _, input := range inputs {
		if _, err := h.writer.CreateEvent(r.Context(), input); err != nil {
			var vErr *application.ValidationError
			if errors.As(err, &vErr) {
				skipped++
				continue
			}
			logger.ErrorContext(r.Context(), "calendar import failed", "error", err, "error_kind", application.ErrorKind(err), "imported", imported)
			h.responder.handleServiceError(r.Context(), w, err)
			return
		}
		imported++
	}

	logger.With("imported", imported, "skipped", skipped).InfoContext(r.Context(), "calendar imported")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, importCalendarResponse{
		Imported: imported,
		Skipped:  skipped,
	})
}

type importCalendarResponse struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}
