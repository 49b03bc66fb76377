package visibility

import (
	"sync"
	"time"
)

// State of the controls.
type State int

const (
	Hidden State = iota
	// VisibleActive: shown after pointer activity, auto-hide countdown armed,
	// or held open while the pointer is over the controls.
	VisibleActive
	// VisibleIdleCountdown: shown, pointer released the controls, counting down.
	VisibleIdleCountdown
)

func (s State) String() string {
	switch s {
	case Hidden:
		return "hidden"
	case VisibleActive:
		return "visible-active"
	case VisibleIdleCountdown:
		return "visible-idle-countdown"
	default:
		return "unknown"
	}
}

// Visible reports whether the controls are on screen.
func (s State) Visible() bool { return s != Hidden }

// Timer is the per-viewer controls state machine. Each viewer owns exactly
// one; timers are never shared.
type Timer struct {
	mu       sync.Mutex
	state    State
	timeout  time.Duration
	timer    *time.Timer
	gen      uint64 // bumped whenever the countdown is re-armed or cancelled
	held     bool
	closed   bool
	onChange func(State)
}

// New creates a hidden Timer. onChange, if set, is called after every state
// change, outside the timer's lock.
func New(timeout time.Duration, onChange func(State)) *Timer {
	return &Timer{timeout: timeout, onChange: onChange}
}

// State returns the current state.
func (t *Timer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// PointerEnter shows the controls and (re)starts the countdown.
func (t *Timer) PointerEnter() {
	t.transition(func() State {
		t.armLocked()
		return VisibleActive
	})
}

// PointerMove resets the countdown. A move over a hidden viewer shows the
// controls again, as entering would.
func (t *Timer) PointerMove() {
	t.transition(func() State {
		if t.held {
			return VisibleActive
		}
		t.armLocked()
		return VisibleActive
	})
}

// PointerLeave hides the controls immediately.
func (t *Timer) PointerLeave() {
	t.transition(func() State {
		t.held = false
		t.cancelLocked()
		return Hidden
	})
}

// Scroll hides the controls immediately, whatever the current state.
func (t *Timer) Scroll() {
	t.transition(func() State {
		t.held = false
		t.cancelLocked()
		return Hidden
	})
}

// HoldControls keeps the controls open while the pointer is over them.
// Releasing starts the idle countdown.
func (t *Timer) HoldControls(hold bool) {
	t.transition(func() State {
		if t.state == Hidden && !hold {
			return Hidden
		}
		t.held = hold
		if hold {
			t.cancelLocked()
			return VisibleActive
		}
		t.armLocked()
		return VisibleIdleCountdown
	})
}

// Reset hides the controls and cancels any pending countdown, releasing a
// hold. Unlike Close the timer keeps accepting events.
func (t *Timer) Reset() {
	t.transition(func() State {
		t.held = false
		t.cancelLocked()
		return Hidden
	})
}

// Close cancels any pending countdown. Later events are ignored.
func (t *Timer) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked()
	t.closed = true
}

func (t *Timer) transition(next func() State) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	prev := t.state
	t.state = next()
	cur := t.state
	cb := t.onChange
	t.mu.Unlock()

	if cb != nil && prev != cur {
		cb(cur)
	}
}

func (t *Timer) armLocked() {
	t.cancelLocked()
	gen := t.gen
	t.timer = time.AfterFunc(t.timeout, func() { t.expire(gen) })
}

func (t *Timer) cancelLocked() {
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

func (t *Timer) expire(gen uint64) {
	t.transition(func() State {
		if gen != t.gen {
			// re-armed or cancelled after this firing was scheduled
			return t.state
		}
		t.timer = nil
		return Hidden
	})
}
