package persistence

import "time"

// Event represents a calendar entry stored in persistence. Start and End are
// UTC instants forming the half-open interval [Start, End); Color and Notes
// are optional presentation fields.
type Event struct {
	ID    string
	Title string
	Start time.Time
	End   time.Time
	Color *string
	Notes *string
}
