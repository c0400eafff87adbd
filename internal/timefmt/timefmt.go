// Package timefmt converts and formats instants against the display timezone.
// The location is resolved once at startup and threaded explicitly; nothing in
// this package reads the process timezone on its own.
package timefmt

import (
	"fmt"
	"time"
)

const (
	dayLayout   = "2006-01-02"
	monthLayout = "2006-01"

	headingLayout = "Mon, Jan 2"
	clockLayout   = "15:04"
)

// ResolveLocation resolves a timezone name from configuration. An empty name
// and "Local" resolve to the host timezone; anything else must be a valid IANA
// name such as "Europe/Berlin" or "UTC".
func ResolveLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("timefmt: unknown timezone %q: %w", name, err)
	}
	return loc, nil
}

// Formatter formats instants in one fixed location.
type Formatter struct {
	loc *time.Location
}

// NewFormatter returns a formatter bound to loc. A nil location falls back to
// UTC.
func NewFormatter(loc *time.Location) *Formatter {
	if loc == nil {
		loc = time.UTC
	}
	return &Formatter{loc: loc}
}

// Location returns the display location the formatter is bound to.
func (f *Formatter) Location() *time.Location {
	return f.loc
}

// Local converts an instant into the display location.
func (f *Formatter) Local(t time.Time) time.Time {
	return t.In(f.loc)
}

// DayHeading formats the day an instant falls on, e.g. "Mon, Jan 1".
func (f *Formatter) DayHeading(t time.Time) string {
	return t.In(f.loc).Format(headingLayout)
}

// Clock formats the clock time of an instant, e.g. "09:30".
func (f *Formatter) Clock(t time.Time) string {
	return t.In(f.loc).Format(clockLayout)
}

// Range formats an interval as clock times, e.g. "09:30 – 10:00".
func (f *Formatter) Range(start, end time.Time) string {
	return f.Clock(start) + " – " + f.Clock(end)
}

// DayRange formats an interval with its day heading,
// e.g. "Mon, Jan 1, 09:30 – 10:00".
func (f *Formatter) DayRange(start, end time.Time) string {
	return f.DayHeading(start) + ", " + f.Range(start, end)
}

// DayKey formats the calendar date an instant falls on in the display
// location, e.g. "2024-01-01". Keys group events per day in month views.
func (f *Formatter) DayKey(t time.Time) string {
	return t.In(f.loc).Format(dayLayout)
}

// ParseDay parses a "2006-01-02" date into midnight of that day in the
// display location.
func (f *Formatter) ParseDay(value string) (time.Time, error) {
	day, err := time.ParseInLocation(dayLayout, value, f.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("timefmt: invalid date %q: %w", value, err)
	}
	return day, nil
}

// ParseMonth parses a "2006-01" month into midnight of its first day in the
// display location.
func (f *Formatter) ParseMonth(value string) (time.Time, error) {
	month, err := time.ParseInLocation(monthLayout, value, f.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("timefmt: invalid month %q: %w", value, err)
	}
	return month, nil
}

// DayBounds returns the half-open UTC interval covering the calendar day the
// instant falls on in the display location. AddDate handles days shortened or
// stretched by DST transitions.
func (f *Formatter) DayBounds(t time.Time) (time.Time, time.Time) {
	local := t.In(f.loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, f.loc)
	end := start.AddDate(0, 0, 1)
	return start.UTC(), end.UTC()
}

// MonthBounds returns the half-open UTC interval covering the calendar month
// the instant falls on in the display location.
func (f *Formatter) MonthBounds(t time.Time) (time.Time, time.Time) {
	local := t.In(f.loc)
	start := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, f.loc)
	end := start.AddDate(0, 1, 0)
	return start.UTC(), end.UTC()
}
