package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/daygrid/internal/application"
)

// eventWriter mutates events through the day view service so cached layouts
// are purged and announcements produced alongside every change.
type eventWriter interface {
	CreateEvent(ctx context.Context, input application.EventInput) (application.Event, error)
	UpdateEvent(ctx context.Context, params application.UpdateEventParams) (application.Event, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

// eventReader answers range queries straight from the event service.
type eventReader interface {
	ListEvents(ctx context.Context, start, end time.Time) ([]application.Event, error)
}

type EventHandler struct {
	writer    eventWriter
	reader    eventReader
	responder responder
	logger    *slog.Logger
}

func NewEventHandler(writer eventWriter, reader eventReader, logger *slog.Logger) *EventHandler {
	base := defaultLogger(logger)
	return &EventHandler{writer: writer, reader: reader, responder: newResponder(base), logger: base}
}

func (h *EventHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "EventHandler", operation, attrs...)
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.writer == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode event request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create")

	event, err := h.writer.CreateEvent(r.Context(), req.toInput())
	if err != nil {
		logger.ErrorContext(r.Context(), "event creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("event_id", event.ID).InfoContext(r.Context(), "event created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, eventResponse{Event: toEventDTO(event)})
}

func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.writer == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "missing event id for update")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "event_id", eventID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode event update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "event_id", eventID)

	event, err := h.writer.UpdateEvent(r.Context(), application.UpdateEventParams{
		EventID: eventID,
		Input:   req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "event update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "event updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, eventResponse{Event: toEventDTO(event)})
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.writer == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.log(r.Context(), "Delete", "error_kind", "bad_request").ErrorContext(r.Context(), "missing event id for delete")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	logger := h.log(r.Context(), "Delete", "event_id", eventID)
	if err := h.writer.DeleteEvent(r.Context(), eventID); err != nil {
		logger.ErrorContext(r.Context(), "event delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "event deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.reader == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	start := parseTime(query.Get("start"))
	end := parseTime(query.Get("end"))
	if start.IsZero() || end.IsZero() {
		h.log(r.Context(), "List", "error_kind", "bad_request").ErrorContext(r.Context(), "invalid event range query",
			"start", query.Get("start"), "end", query.Get("end"))
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRange)
		return
	}

	logger := h.log(r.Context(), "List")
	events, err := h.reader.ListEvents(r.Context(), start, end)
	if err != nil {
		logger.ErrorContext(r.Context(), "event list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(events)).InfoContext(r.Context(), "events listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listEventsResponse{Events: toEventDTOs(events)})
}

type eventRequest struct {
	Title string  `json:"title"`
	Start string  `json:"start"`
	End   string  `json:"end"`
	Color *string `json:"color"`
	Notes *string `json:"notes"`
}

func (r eventRequest) toInput() application.EventInput {
	return application.EventInput{
		Title: strings.TrimSpace(r.Title),
		Start: parseTime(r.Start),
		End:   parseTime(r.End),
		Color: r.Color,
		Notes: r.Notes,
	}
}

func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts
	}
	return time.Time{}
}

type eventResponse struct {
	Event eventDTO `json:"event"`
}

type listEventsResponse struct {
	Events []eventDTO `json:"events"`
}

type eventDTO struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Start string  `json:"start"`
	End   string  `json:"end"`
	Color *string `json:"color,omitempty"`
	Notes *string `json:"notes,omitempty"`
}

func toEventDTO(event application.Event) eventDTO {
	return eventDTO{
		ID:    event.ID,
		Title: event.Title,
		Start: event.Start.UTC().Format(time.RFC3339Nano),
		End:   event.End.UTC().Format(time.RFC3339Nano),
		Color: event.Color,
		Notes: event.Notes,
	}
}

func toEventDTOs(events []application.Event) []eventDTO {
	if len(events) == 0 {
		return nil
	}
	out := make([]eventDTO, 0, len(events))
	for _, event := range events {
		out = append(out, toEventDTO(event))
	}
	return out
}
