package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/daygrid/internal/application"
	"github.com/example/daygrid/internal/timegrid"
)

type viewService interface {
	ShowDay(ctx context.Context, date string) (application.DayLayout, error)
	MonthOverview(ctx context.Context, month string) (application.MonthOverview, error)
	Window() timegrid.Window
}

type ViewHandler struct {
	service   viewService
	responder responder
}

func NewViewHandler(service viewService, logger *slog.Logger) *ViewHandler {
	return &ViewHandler{service: service, responder: newResponder(logger)}
}

func (h *ViewHandler) Day(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingDate)
		return
	}

	layout, err := h.service.ShowDay(r.Context(), date)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, dayViewResponse{
		Day: toDayLayoutDTO(layout, h.service.Window()),
	})
}

func (h *ViewHandler) Month(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	month := strings.TrimSpace(r.URL.Query().Get("month"))
	if month == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingMonth)
		return
	}

	overview, err := h.service.MonthOverview(r.Context(), month)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, monthViewResponse{
		Month: toMonthOverviewDTO(overview),
	})
}

type dayViewResponse struct {
	Day dayLayoutDTO `json:"day"`
}

type monthViewResponse struct {
	Month monthOverviewDTO `json:"month"`
}

type windowDTO struct {
	StartHour   int `json:"start_hour"`
	EndHour     int `json:"end_hour"`
	SlotMinutes int `json:"slot_minutes"`
	SlotPixels  int `json:"slot_pixels"`
}

type slotLineDTO struct {
	MinuteOfDay int    `json:"minute_of_day"`
	OffsetY     int    `json:"offset_y"`
	OnHour      bool   `json:"on_hour"`
	Label       string `json:"label,omitempty"`
}

type eventBoxDTO struct {
	Event   eventDTO `json:"event"`
	Top     int      `json:"top"`
	Height  int      `json:"height"`
	Label   string   `json:"label"`
	Clipped bool     `json:"clipped,omitempty"`
}

type stackDTO struct {
	Events []eventBoxDTO `json:"events"`
}

type dayLayoutDTO struct {
	Date         string        `json:"date"`
	Heading      string        `json:"heading"`
	Window       windowDTO     `json:"window"`
	Height       int           `json:"height"`
	Generation   uint64        `json:"generation"`
	SlotLines    []slotLineDTO `json:"slot_lines"`
	Stacks       []stackDTO    `json:"stacks"`
	Announcement string        `json:"announcement,omitempty"`
}

func toDayLayoutDTO(layout application.DayLayout, window timegrid.Window) dayLayoutDTO {
	lines := make([]slotLineDTO, 0, len(layout.SlotLines))
	for _, line := range layout.SlotLines {
		lines = append(lines, slotLineDTO{
			MinuteOfDay: line.MinuteOfDay,
			OffsetY:     line.OffsetY,
			OnHour:      line.OnHour,
			Label:       line.Label,
		})
	}

	stacks := make([]stackDTO, 0, len(layout.Stacks))
	for _, stack := range layout.Stacks {
		boxes := make([]eventBoxDTO, 0, len(stack.Boxes))
		for _, box := range stack.Boxes {
			boxes = append(boxes, eventBoxDTO{
				Event:   toEventDTO(box.Event),
				Top:     box.Top,
				Height:  box.Height,
				Label:   box.Label,
				Clipped: box.Clipped,
			})
		}
		stacks = append(stacks, stackDTO{Events: boxes})
	}

	return dayLayoutDTO{
		Date:    layout.Date,
		Heading: layout.Heading,
		Window: windowDTO{
			StartHour:   window.StartHour,
			EndHour:     window.EndHour,
			SlotMinutes: window.SlotMinutes,
			SlotPixels:  window.SlotPixels,
		},
		Height:       layout.Height,
		Generation:   layout.Generation,
		SlotLines:    lines,
		Stacks:       stacks,
		Announcement: layout.Announcement,
	}
}

type monthDayDTO struct {
	Date   string     `json:"date"`
	Events []eventDTO `json:"events,omitempty"`
}

type monthOverviewDTO struct {
	Month string        `json:"month"`
	Days  []monthDayDTO `json:"days"`
}

func toMonthOverviewDTO(overview application.MonthOverview) monthOverviewDTO {
	days := make([]monthDayDTO, 0, len(overview.Days))
	for _, day := range overview.Days {
		days = append(days, monthDayDTO{
			Date:   day.Date,
			Events: toEventDTOs(day.Events),
		})
	}
	return monthOverviewDTO{Month: overview.Month, Days: days}
}
