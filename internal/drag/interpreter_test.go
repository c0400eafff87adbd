package drag

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/example/daygrid/internal/timegrid"
)

var testWindow = timegrid.Window{StartHour: 8, EndHour: 20, SlotMinutes: 30, SlotPixels: 40}

func subjectSpan(t *testing.T, startHour, startMin, endHour, endMin int) timegrid.Span {
	t.Helper()
	day := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	return timegrid.Span{
		ID:    "event-1",
		Start: day.Add(time.Duration(startHour)*time.Hour + time.Duration(startMin)*time.Minute),
		End:   day.Add(time.Duration(endHour)*time.Hour + time.Duration(endMin)*time.Minute),
	}
}

func pixelForMinute(w timegrid.Window, minuteOfDay int) int {
	return w.PixelAt(minuteOfDay)
}

func TestInterpreterBeginCapturesSubject(t *testing.T) {
	t.Parallel()

	interp := NewInterpreter(testWindow)
	subject := subjectSpan(t, 9, 0, 10, 0)

	if err := interp.Begin(subject, ModeMove, pixelForMinute(testWindow, 9*60)); err != nil {
		t.Fatalf("expected begin to succeed, got %v", err)
	}
	if interp.State() != StateDragging {
		t.Fatalf("expected dragging state, got %s", interp.State())
	}

	ghost, ok := interp.Ghost()
	if !ok {
		t.Fatalf("expected a ghost while dragging")
	}
	if !ghost.Start.Equal(subject.Start) || !ghost.End.Equal(subject.End) {
		t.Fatalf("expected initial ghost to equal the subject, got %v-%v", ghost.Start, ghost.End)
	}
}

func TestInterpreterRejectsSecondSession(t *testing.T) {
	t.Parallel()

	interp := NewInterpreter(testWindow)
	subject := subjectSpan(t, 9, 0, 10, 0)

	if err := interp.Begin(subject, ModeMove, 0); err != nil {
		t.Fatalf("first begin failed: %v", err)
	}
	if err := interp.Begin(subject, ModeResizeEnd, 0); !errors.Is(err, ErrSessionActive) {
		t.Fatalf("expected ErrSessionActive, got %v", err)
	}
}

func TestInterpreterRejectsUnknownMode(t *testing.T) {
	t.Parallel()

	interp := NewInterpreter(testWindow)
	if err := interp.Begin(subjectSpan(t, 9, 0, 10, 0), Mode("wiggle"), 0); !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}
	if interp.State() != StateIdle {
		t.Fatalf("expected interpreter to stay idle, got %s", interp.State())
	}
}

func TestInterpreterMoveShiftsWholeInterval(t *testing.T) {
	t.Parallel()

	interp := NewInterpreter(testWindow)
	subject := subjectSpan(t, 9, 0, 10, 0)
	origin := pixelForMinute(testWindow, 9*60+15)

	if err := interp.Begin(subject, ModeMove, origin); err != nil {
		t.Fatalf("begin failed: %v", err)
	}

	// Drag down by exactly one slot (30 minutes).
	ghost, err := interp.Move(origin + testWindow.SlotPixels)
	if err != nil {
		t.Fatalf("move failed: %v", err)
	}
	if want := subject.Start.Add(30 * time.Minute); !ghost.Start.Equal(want) {
		t.Fatalf("expected ghost start %v, got %v", want, ghost.Start)
	}
	if want := subject.End.Add(30 * time.Minute); !ghost.End.Equal(want) {
		t.Fatalf("expected ghost end %v, got %v", want, ghost.End)
	}
}

func TestInterpreterMovePreservesDurationForAnyDelta(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	subject := subjectSpan(t, 9, 30, 11, 0)
	duration := subject.End.Sub(subject.Start)

	interp := NewInterpreter(testWindow)
	origin := pixelForMinute(testWindow, 9*60+45)
	if err := interp.Begin(subject, ModeMove, origin); err != nil {
		t.Fatalf("begin failed: %v", err)
	}

	for step := 0; step < 500; step++ {
		// Deltas deliberately overshoot the grid in both directions.
		pointer := origin + rng.Intn(4001) - 2000
		ghost, err := interp.Move(pointer)
		if err != nil {
			t.Fatalf("move failed: %v", err)
		}
		if got := ghost.End.Sub(ghost.Start); got != duration {
			t.Fatalf("expected duration %v preserved, got %v at pointer %d", duration, got, pointer)
		}
	}
}

func TestInterpreterMoveDeltaIsClampedByGrid(t *testing.T) {
	t.Parallel()

	interp := NewInterpreter(testWindow)
	subject := subjectSpan(t, 9, 0, 10, 0)
	origin := pixelForMinute(testWindow, 9*60)

	if err := interp.Begin(subject, ModeMove, origin); err != nil {
		t.Fatalf("begin failed: %v", err)
	}

	// A pointer far above the grid clamps to the window start, so the ghost
	// can shift at most from the origin minute back to the window start.
	ghost, err := interp.Move(-10000)
	if err != nil {
		t.Fatalf("move failed: %v", err)
	}
	wantStart := subject.Start.Add(-time.Hour) // 09:00 origin, 08:00 window start
	if !ghost.Start.Equal(wantStart) {
		t.Fatalf("expected clamped ghost start %v, got %v", wantStart, ghost.Start)
	}
}

func TestInterpreterResizeStartNeverInvertsInterval(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	subject := subjectSpan(t, 10, 0, 11, 0)

	interp := NewInterpreter(testWindow)
	origin := pixelForMinute(testWindow, 10*60)
	if err := interp.Begin(subject, ModeResizeStart, origin); err != nil {
		t.Fatalf("begin failed: %v", err)
	}

	for step := 0; step < 500; step++ {
		pointer := origin + rng.Intn(4001) - 2000
		ghost, err := interp.Move(pointer)
		if err != nil {
			t.Fatalf("move failed: %v", err)
		}
		if !ghost.Start.Before(ghost.End) {
			t.Fatalf("resize-start produced inverted interval %v-%v at pointer %d", ghost.Start, ghost.End, pointer)
		}
		if !ghost.End.Equal(subject.End) {
			t.Fatalf("resize-start moved the end edge to %v", ghost.End)
		}
	}
}

func TestInterpreterResizeEndNeverInvertsInterval(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(11))
	subject := subjectSpan(t, 10, 0, 11, 0)

	interp := NewInterpreter(testWindow)
	origin := pixelForMinute(testWindow, 11*60)
	if err := interp.Begin(subject, ModeResizeEnd, origin); err != nil {
		t.Fatalf("begin failed: %v", err)
	}

	for step := 0; step < 500; step++ {
		pointer := origin + rng.Intn(4001) - 2000
		ghost, err := interp.Move(pointer)
		if err != nil {
			t.Fatalf("move failed: %v", err)
		}
		if !ghost.End.After(ghost.Start) {
			t.Fatalf("resize-end produced inverted interval %v-%v at pointer %d", ghost.Start, ghost.End, pointer)
		}
		if !ghost.Start.Equal(subject.Start) {
			t.Fatalf("resize-end moved the start edge to %v", ghost.Start)
		}
	}
}

func TestInterpreterRejectedResizeKeepsPreviousGhost(t *testing.T) {
	t.Parallel()

	interp := NewInterpreter(testWindow)
	subject := subjectSpan(t, 10, 0, 11, 0)
	origin := pixelForMinute(testWindow, 10*60)

	if err := interp.Begin(subject, ModeResizeStart, origin); err != nil {
		t.Fatalf("begin failed: %v", err)
	}

	// Shrink the interval by 30 minutes first.
	if _, err := interp.Move(origin + testWindow.SlotPixels); err != nil {
		t.Fatalf("move failed: %v", err)
	}

	// Then try to drag the start past the end; the candidate is ignored.
	ghost, err := interp.Move(origin + 10*testWindow.SlotPixels)
	if err != nil {
		t.Fatalf("move failed: %v", err)
	}
	if want := subject.Start.Add(30 * time.Minute); !ghost.Start.Equal(want) {
		t.Fatalf("expected rejected candidate to keep ghost start %v, got %v", want, ghost.Start)
	}
}

func TestInterpreterReleaseReturnsFinalGhost(t *testing.T) {
	t.Parallel()

	interp := NewInterpreter(testWindow)
	subject := subjectSpan(t, 9, 0, 10, 0)
	origin := pixelForMinute(testWindow, 9*60)

	if err := interp.Begin(subject, ModeMove, origin); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if _, err := interp.Move(origin + 2*testWindow.SlotPixels); err != nil {
		t.Fatalf("move failed: %v", err)
	}

	final, err := interp.Release()
	if err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if want := subject.Start.Add(time.Hour); !final.Start.Equal(want) {
		t.Fatalf("expected released start %v, got %v", want, final.Start)
	}
	if interp.State() != StateCommitted {
		t.Fatalf("expected committed state, got %s", interp.State())
	}
	if _, ok := interp.Ghost(); ok {
		t.Fatalf("expected ghost to be discarded after release")
	}
	if _, err := interp.Move(origin); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession after release, got %v", err)
	}

	// The interpreter accepts a fresh session after commit.
	if err := interp.Begin(subject, ModeMove, origin); err != nil {
		t.Fatalf("expected new session after release, got %v", err)
	}
}

func TestInterpreterCancelDiscardsGhost(t *testing.T) {
	t.Parallel()

	interp := NewInterpreter(testWindow)
	subject := subjectSpan(t, 9, 0, 10, 0)

	if err := interp.Begin(subject, ModeMove, 0); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if _, err := interp.Move(300); err != nil {
		t.Fatalf("move failed: %v", err)
	}

	interp.Cancel()

	if interp.State() != StateCancelled {
		t.Fatalf("expected cancelled state, got %s", interp.State())
	}
	if _, ok := interp.Ghost(); ok {
		t.Fatalf("expected no ghost after cancel")
	}
	if _, err := interp.Release(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession after cancel, got %v", err)
	}

	// Cancelling again stays a no-op.
	interp.Cancel()
	if interp.State() != StateCancelled {
		t.Fatalf("expected cancel to be idempotent, got %s", interp.State())
	}
}

func TestInterpreterMoveWithoutSession(t *testing.T) {
	t.Parallel()

	interp := NewInterpreter(testWindow)
	if _, err := interp.Move(10); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
	if _, err := interp.Release(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}
