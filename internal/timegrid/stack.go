package timegrid

import (
	"sort"
	"time"
)

// Span is the half-open interval [Start, End) of one event on the timeline.
type Span struct {
	ID    string
	Start time.Time
	End   time.Time
}

// Duration returns the length of the span.
func (s Span) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Overlaps reports whether two half-open spans share any instant.
func (s Span) Overlaps(other Span) bool {
	return s.Start.Before(other.End) && s.End.After(other.Start)
}

// Stack is an ordered run of spans sharing one horizontal column.
type Stack struct {
	Spans []Span
}

// BuildStacks partitions one day's spans into an ordered sequence of stacks.
//
// Spans are sorted by start ascending, ties broken by duration descending,
// then swept in order against a single current stack: a span whose start is
// before the end of the span most recently placed in the current stack is
// appended to it; any other span closes the current stack and opens a new
// one. The comparison is against the last placed span only, never the
// stack's maximum end, so a span that overlaps an earlier stack member but
// not the last one still opens a new stack. Stack order is first-seen order
// during the sweep.
func BuildStacks(spans []Span) []Stack {
	if len(spans) == 0 {
		return nil
	}

	sorted := make([]Span, len(spans))
	copy(sorted, spans)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start.Equal(sorted[j].Start) {
			return sorted[i].Duration() > sorted[j].Duration()
		}
		return sorted[i].Start.Before(sorted[j].Start)
	})

	stacks := make([]Stack, 0, len(sorted))
	current := []Span{sorted[0]}

	for _, span := range sorted[1:] {
		last := current[len(current)-1]
		if span.Start.Before(last.End) {
			current = append(current, span)
			continue
		}
		stacks = append(stacks, Stack{Spans: current})
		current = []Span{span}
	}

	return append(stacks, Stack{Spans: current})
}
