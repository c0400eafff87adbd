package timegrid

import (
	"testing"
	"time"
)

func spanAt(t *testing.T, id string, startHour, startMin, endHour, endMin int) Span {
	t.Helper()
	day := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	return Span{
		ID:    id,
		Start: day.Add(time.Duration(startHour)*time.Hour + time.Duration(startMin)*time.Minute),
		End:   day.Add(time.Duration(endHour)*time.Hour + time.Duration(endMin)*time.Minute),
	}
}

func stackIDs(stacks []Stack) [][]string {
	out := make([][]string, len(stacks))
	for i, stack := range stacks {
		ids := make([]string, len(stack.Spans))
		for j, span := range stack.Spans {
			ids[j] = span.ID
		}
		out[i] = ids
	}
	return out
}

func assertStacks(t *testing.T, got []Stack, want [][]string) {
	t.Helper()
	ids := stackIDs(got)
	if len(ids) != len(want) {
		t.Fatalf("expected %d stacks, got %d: %v", len(want), len(ids), ids)
	}
	for i := range want {
		if len(ids[i]) != len(want[i]) {
			t.Fatalf("stack %d: expected %v, got %v", i, want[i], ids[i])
		}
		for j := range want[i] {
			if ids[i][j] != want[i][j] {
				t.Fatalf("stack %d: expected %v, got %v", i, want[i], ids[i])
			}
		}
	}
}

func TestBuildStacksPartitionsOverlappingEvents(t *testing.T) {
	t.Parallel()

	spans := []Span{
		spanAt(t, "meeting", 9, 0, 10, 0),
		spanAt(t, "standup", 9, 30, 9, 45),
		spanAt(t, "review", 10, 30, 11, 0),
	}

	stacks := BuildStacks(spans)
	assertStacks(t, stacks, [][]string{
		{"meeting", "standup"},
		{"review"},
	})
}

func TestBuildStacksInputOrderDoesNotMatter(t *testing.T) {
	t.Parallel()

	spans := []Span{
		spanAt(t, "review", 10, 30, 11, 0),
		spanAt(t, "standup", 9, 30, 9, 45),
		spanAt(t, "meeting", 9, 0, 10, 0),
	}

	stacks := BuildStacks(spans)
	assertStacks(t, stacks, [][]string{
		{"meeting", "standup"},
		{"review"},
	})
}

func TestBuildStacksBreaksStartTiesByLongerDuration(t *testing.T) {
	t.Parallel()

	spans := []Span{
		spanAt(t, "short", 9, 0, 9, 30),
		spanAt(t, "long", 9, 0, 11, 0),
	}

	stacks := BuildStacks(spans)
	assertStacks(t, stacks, [][]string{
		{"long", "short"},
	})
}

func TestBuildStacksComparesAgainstLastPlacedSpanOnly(t *testing.T) {
	t.Parallel()

	// "late" overlaps "all-morning" but not "early"; because the sweep
	// compares against the most recently placed span, it opens a new stack
	// instead of joining the first one.
	spans := []Span{
		spanAt(t, "all-morning", 9, 0, 12, 0),
		spanAt(t, "early", 9, 15, 9, 30),
		spanAt(t, "late", 9, 45, 10, 0),
	}

	stacks := BuildStacks(spans)
	assertStacks(t, stacks, [][]string{
		{"all-morning", "early"},
		{"late"},
	})
}

func TestBuildStacksNeighborsAlwaysChainOverlap(t *testing.T) {
	t.Parallel()

	spans := []Span{
		spanAt(t, "a", 9, 0, 10, 0),
		spanAt(t, "b", 9, 15, 11, 0),
		spanAt(t, "c", 10, 30, 12, 0),
		spanAt(t, "d", 13, 0, 14, 0),
		spanAt(t, "e", 13, 30, 13, 45),
	}

	for _, stack := range BuildStacks(spans) {
		for i := 1; i < len(stack.Spans); i++ {
			prev, cur := stack.Spans[i-1], stack.Spans[i]
			if !cur.Start.Before(prev.End) {
				t.Fatalf("stack neighbors %s and %s do not chain-overlap", prev.ID, cur.ID)
			}
		}
	}
}

func TestBuildStacksAdjacentEventsDoNotShareAStack(t *testing.T) {
	t.Parallel()

	// Back-to-back events share a boundary instant but the intervals are
	// half-open, so they land in separate stacks.
	spans := []Span{
		spanAt(t, "first", 9, 0, 10, 0),
		spanAt(t, "second", 10, 0, 11, 0),
	}

	stacks := BuildStacks(spans)
	assertStacks(t, stacks, [][]string{
		{"first"},
		{"second"},
	})
}

func TestBuildStacksEmptyInput(t *testing.T) {
	t.Parallel()

	if stacks := BuildStacks(nil); stacks != nil {
		t.Fatalf("expected no stacks for empty input, got %v", stacks)
	}
}

func TestBuildStacksDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	spans := []Span{
		spanAt(t, "review", 10, 30, 11, 0),
		spanAt(t, "meeting", 9, 0, 10, 0),
	}

	BuildStacks(spans)

	if spans[0].ID != "review" || spans[1].ID != "meeting" {
		t.Fatalf("expected input slice order to be preserved, got %v then %v", spans[0].ID, spans[1].ID)
	}
}

func TestSpanOverlaps(t *testing.T) {
	t.Parallel()

	base := spanAt(t, "base", 9, 0, 10, 0)

	if !base.Overlaps(spanAt(t, "inside", 9, 15, 9, 45)) {
		t.Fatalf("expected contained span to overlap")
	}
	if base.Overlaps(spanAt(t, "adjacent", 10, 0, 11, 0)) {
		t.Fatalf("expected half-open adjacency not to overlap")
	}
	if base.Overlaps(spanAt(t, "before", 8, 0, 9, 0)) {
		t.Fatalf("expected earlier span not to overlap")
	}
}
