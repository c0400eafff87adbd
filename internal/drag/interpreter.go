package drag

import (
	"errors"
	"time"

	"github.com/example/daygrid/internal/timegrid"
)

var (
	// ErrSessionActive is returned when a drag session is started while another is in progress.
	ErrSessionActive = errors.New("drag: a drag session is already active")
	// ErrNoSession is returned when a pointer event arrives without an active drag session.
	ErrNoSession = errors.New("drag: no active drag session")
	// ErrUnknownMode is returned when a session is started with an unsupported mode.
	ErrUnknownMode = errors.New("drag: unknown drag mode")
)

// Mode identifies how pointer movement is applied to the subject interval.
type Mode string

const (
	// ModeMove shifts the whole interval, preserving its duration.
	ModeMove Mode = "move"
	// ModeResizeStart moves only the start edge of the interval.
	ModeResizeStart Mode = "resize-start"
	// ModeResizeEnd moves only the end edge of the interval.
	ModeResizeEnd Mode = "resize-end"
)

// State tags the lifecycle of the current interaction.
type State string

const (
	// StateIdle indicates no interaction is in progress.
	StateIdle State = "idle"
	// StateDragging indicates a session is active and producing ghost intervals.
	StateDragging State = "dragging"
	// StateCommitted indicates the last session ended with a released interval.
	StateCommitted State = "committed"
	// StateCancelled indicates the last session was abandoned without commit.
	StateCancelled State = "cancelled"
)

// Interpreter turns pointer movement into provisional event intervals. It
// runs one session at a time: pointer-down begins a session, every move
// recomputes the ghost from the original interval and the accumulated
// pointer delta, and pointer-up releases the final ghost for the caller to
// write through the repository. The interpreter itself never touches
// persistence and never mutates the subject interval.
type Interpreter struct {
	window timegrid.Window

	state State
	mode  Mode
	// subject is the original interval; the ghost is always recomputed from
	// it, never from itself, so repeated moves cannot drift.
	subject timegrid.Span
	// originAt is the pointer origin as a clamped clock-of-day minute.
	originAt int
	ghost    timegrid.Span
}

// NewInterpreter constructs an idle interpreter for the given window.
func NewInterpreter(window timegrid.Window) *Interpreter {
	return &Interpreter{window: window, state: StateIdle}
}

// State returns the lifecycle tag of the current or most recent session.
func (i *Interpreter) State() State {
	if i == nil {
		return StateIdle
	}
	return i.state
}

// Begin starts a session for the subject interval at the given pointer
// offset. Beginning while another session is dragging fails with
// ErrSessionActive; completed or cancelled sessions are discarded.
func (i *Interpreter) Begin(subject timegrid.Span, mode Mode, pointerY int) error {
	if i == nil {
		return ErrNoSession
	}
	if i.state == StateDragging {
		return ErrSessionActive
	}
	switch mode {
	case ModeMove, ModeResizeStart, ModeResizeEnd:
	default:
		return ErrUnknownMode
	}

	i.state = StateDragging
	i.mode = mode
	i.subject = subject
	i.originAt = i.window.MinuteAt(pointerY)
	i.ghost = subject
	return nil
}

// Move recomputes the ghost interval for the given pointer offset and
// returns it. Candidates that would invert the interval are ignored and the
// previous ghost stands. The time delta is derived from the pointer's
// clamped grid position, so pointers outside the grid cannot push the ghost
// past the visible window.
func (i *Interpreter) Move(pointerY int) (timegrid.Span, error) {
	if i == nil || i.state != StateDragging {
		return timegrid.Span{}, ErrNoSession
	}

	delta := time.Duration(i.window.MinuteAt(pointerY)-i.originAt) * time.Minute

	switch i.mode {
	case ModeMove:
		i.ghost.Start = i.subject.Start.Add(delta)
		i.ghost.End = i.subject.End.Add(delta)
	case ModeResizeStart:
		candidate := i.subject.Start.Add(delta)
		if candidate.Before(i.ghost.End) {
			i.ghost.Start = candidate
		}
	case ModeResizeEnd:
		candidate := i.subject.End.Add(delta)
		if candidate.After(i.ghost.Start) {
			i.ghost.End = candidate
		}
	}

	return i.ghost, nil
}

// Ghost returns the current provisional interval while a session is active.
func (i *Interpreter) Ghost() (timegrid.Span, bool) {
	if i == nil || i.state != StateDragging {
		return timegrid.Span{}, false
	}
	return i.ghost, true
}

// Mode returns the active session's mode.
func (i *Interpreter) Mode() (Mode, bool) {
	if i == nil || i.state != StateDragging {
		return "", false
	}
	return i.mode, true
}

// Release ends the active session and returns the final ghost interval for
// the caller to persist. The interpreter transitions to StateCommitted; it
// performs no repository call itself.
func (i *Interpreter) Release() (timegrid.Span, error) {
	if i == nil || i.state != StateDragging {
		return timegrid.Span{}, ErrNoSession
	}
	i.state = StateCommitted
	final := i.ghost
	i.ghost = timegrid.Span{}
	return final, nil
}

// Cancel abandons the active session without producing an interval.
// Cancelling when no session is active is a no-op.
func (i *Interpreter) Cancel() {
	if i == nil || i.state != StateDragging {
		return
	}
	i.state = StateCancelled
	i.ghost = timegrid.Span{}
}
