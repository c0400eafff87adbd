// Package http provides the HTTP handlers and middleware for the daygrid API.
//
// The router exposes the following endpoints:
//   - GET /api/events?start=&end=: events overlapping the half-open range
//     [start, end), both RFC 3339 timestamps. POST /api/events creates an
//     event; PUT /api/events/{id} replaces one; DELETE /api/events/{id}
//     removes one and returns 204 even when the id is already gone. All
//     exchange the `eventDTO` payload defined in event_handler.go.
//   - GET /api/view/day?date=YYYY-MM-DD: the computed day timeline — window
//     geometry, slot lines with hour marks, event stacks with pixel
//     positions, and the latest status announcement.
//   - GET /api/view/month?month=YYYY-MM: every day of the month with the
//     events overlapping it, grouped in the display timezone.
//   - GET /api/calendar.ics: the full event list as an iCalendar document.
//     POST /api/calendar.ics imports events from an iCalendar payload and
//     reports how many were imported and skipped.
//   - GET /healthz: liveness.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
