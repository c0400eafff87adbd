package timegrid

import (
	"errors"
	"time"
)

var (
	// ErrWindowBounds indicates the visible hour range is empty or outside a day.
	ErrWindowBounds = errors.New("timegrid: start hour must be before end hour within 0..24")
	// ErrSlotMinutes indicates the slot granularity does not divide an hour evenly.
	ErrSlotMinutes = errors.New("timegrid: slot minutes must be positive and divide 60 evenly")
	// ErrSlotPixels indicates the vertical slot size is not positive.
	ErrSlotPixels = errors.New("timegrid: slot pixels must be positive")
)

// Window describes the visible band of a day timeline and its slot geometry.
// StartHour and EndHour bound the band in whole clock hours, SlotMinutes is
// the duration of one grid slot, and SlotPixels the vertical size one slot
// occupies when rendered.
type Window struct {
	StartHour   int
	EndHour     int
	SlotMinutes int
	SlotPixels  int
}

// Validate reports the first configuration problem of the window, if any.
// Windows are validated once when configuration is loaded; the mapping
// functions assume a valid receiver.
func (w Window) Validate() error {
	if w.StartHour < 0 || w.EndHour > 24 || w.StartHour >= w.EndHour {
		return ErrWindowBounds
	}
	if w.SlotMinutes <= 0 || 60%w.SlotMinutes != 0 {
		return ErrSlotMinutes
	}
	if w.SlotPixels <= 0 {
		return ErrSlotPixels
	}
	return nil
}

// Minutes returns the length of the visible band in minutes.
func (w Window) Minutes() int {
	return (w.EndHour - w.StartHour) * 60
}

// Height returns the total pixel height of the visible band.
func (w Window) Height() int {
	return w.Minutes() * w.SlotPixels / w.SlotMinutes
}

// PixelAt maps a clock-of-day minute to its vertical pixel offset within the
// window. Minutes before the window start or after its end are clamped onto
// the nearest edge; callers clamp for display only and never write the
// clamped value back to the event.
func (w Window) PixelAt(minuteOfDay int) int {
	rel := minuteOfDay - w.StartHour*60
	if rel < 0 {
		rel = 0
	}
	if max := w.Minutes(); rel > max {
		rel = max
	}
	return rel * w.SlotPixels / w.SlotMinutes
}

// MinuteAt maps a vertical pixel offset back to a clock-of-day minute. The
// offset is clamped to the window's pixel height first, so pointer positions
// outside the grid cannot produce out-of-window times.
func (w Window) MinuteAt(pixelY int) int {
	if pixelY < 0 {
		pixelY = 0
	}
	if max := w.Height(); pixelY > max {
		pixelY = max
	}
	return w.StartHour*60 + pixelY*w.SlotMinutes/w.SlotPixels
}

// SpanPixels returns the top offset and pixel height of the half-open minute
// range [startMinute, endMinute) after clamping it into the visible band. A
// range entirely outside the band collapses to height zero on the nearest
// edge.
func (w Window) SpanPixels(startMinute, endMinute int) (top, height int) {
	top = w.PixelAt(startMinute)
	bottom := w.PixelAt(endMinute)
	if bottom < top {
		bottom = top
	}
	return top, bottom - top
}

// SlotLine marks one slot boundary of the grid.
type SlotLine struct {
	MinuteOfDay int
	OffsetY     int
	// OnHour is true for boundaries that fall on a full hour; those carry
	// the hour labels in the rendered grid.
	OnHour bool
}

// SlotLines produces the slot boundaries from the window start to its end
// inclusive, stepping one slot at a time. The result is recomputed from the
// window alone on every call.
func (w Window) SlotLines() []SlotLine {
	lines := make([]SlotLine, 0, w.Minutes()/w.SlotMinutes+1)
	for minute := w.StartHour * 60; minute <= w.EndHour*60; minute += w.SlotMinutes {
		lines = append(lines, SlotLine{
			MinuteOfDay: minute,
			OffsetY:     w.PixelAt(minute),
			OnHour:      minute%60 == 0,
		})
	}
	return lines
}

// MinuteOfDay converts an instant to clock-of-day minutes in the given
// location. The location is always passed explicitly; the package never
// consults the process timezone.
func MinuteOfDay(t time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return local.Hour()*60 + local.Minute()
}
