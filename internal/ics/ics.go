// Package ics converts between stored events and iCalendar payloads so the
// calendar can be exported to and fed from other clients.
package ics

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/example/daygrid/internal/application"
)

// productID identifies exported calendars.
const productID = "-//daygrid//calendar//EN"

// untitledSummary replaces a missing SUMMARY so imported events pass the
// title requirement.
const untitledSummary = "(no title)"

// Export serializes events as an iCalendar document. stamp becomes each
// VEVENT's DTSTAMP, so exports taken at the same instant are byte identical.
func Export(events []application.Event, stamp time.Time) []byte {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	for _, event := range events {
		ve := cal.AddEvent(event.ID)
		ve.SetDtStampTime(stamp.UTC())
		ve.SetStartAt(event.Start.UTC())
		ve.SetEndAt(event.End.UTC())
		ve.SetSummary(event.Title)
		if event.Notes != nil {
			ve.SetDescription(*event.Notes)
		}
		if event.Color != nil {
			ve.AddProperty("COLOR", *event.Color)
		}
	}

	return []byte(cal.Serialize())
}

// Import parses an iCalendar document into event inputs ready for creation.
// VEVENTs without a usable interval are skipped rather than failing the whole
// document; the count of skipped entries is returned alongside the inputs.
func Import(body []byte) ([]application.EventInput, int, error) {
	if len(body) == 0 {
		return nil, 0, errors.New("ics: empty calendar body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("ics: parse calendar: %w", err)
	}

	var inputs []application.EventInput
	skipped := 0
	for _, ve := range cal.Events() {
		input, ok := parseEvent(ve)
		if !ok {
			skipped++
			continue
		}
		inputs = append(inputs, input)
	}
	return inputs, skipped, nil
}

func parseEvent(ve *ical.VEvent) (application.EventInput, bool) {
	start, err := ve.GetStartAt()
	if err != nil {
		return application.EventInput{}, false
	}
	end, err := ve.GetEndAt()
	if err != nil {
		return application.EventInput{}, false
	}
	if !end.After(start) {
		return application.EventInput{}, false
	}

	input := application.EventInput{
		Title: untitledSummary,
		Start: start.UTC(),
		End:   end.UTC(),
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil && p.Value != "" {
		input.Title = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil && p.Value != "" {
		notes := p.Value
		input.Notes = &notes
	}
	if p := ve.GetProperty("COLOR"); p != nil && p.Value != "" {
		color := p.Value
		input.Color = &color
	}
	return input, true
}
