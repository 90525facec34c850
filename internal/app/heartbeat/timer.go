/*
Package heartbeat provides the per-user repeating timer that drives periodic position broadcasts.

A Timer moves between three states: Idle (nothing scheduled), Armed (sleeping for the
interval) and Fired (callback running). After a fire it re-arms itself when the callback
asks to continue. Every arming carries a generation number; Cancel and Start bump it, so a
fire that was already in flight can never re-arm a timer that has since been canceled.
*/
package heartbeat

import (
	"sync"
	"time"
)

// State is the lifecycle state of a Timer.
type State int

const (
	Idle State = iota
	Armed
	Fired
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	case Fired:
		return "fired"
	default:
		return "unknown"
	}
}

// Timer is a cancelable, self-rescheduling single-shot timer.
// The fire callback must not call Start or Cancel on its own Timer.
type Timer struct {
	fire func() bool

	mu       sync.Mutex
	gen      uint64
	state    State
	interval time.Duration
	timer    *time.Timer

	// firing is closed when the in-flight callback returns.
	firing chan struct{}
}

// New returns an idle Timer. fire reports whether the timer should re-arm.
func New(fire func() bool) *Timer {
	return &Timer{fire: fire}
}

// Start cancels any pending or in-flight fire and arms the timer with interval.
func (t *Timer) Start(interval time.Duration) {
	t.Cancel()

	t.mu.Lock()
	defer t.mu.Unlock()

	t.interval = interval
	t.armLocked()
}

// Cancel returns the timer to Idle. If a callback is running, Cancel waits for it to
// return and guarantees it does not re-arm. Canceling an idle timer is a no-op.
func (t *Timer) Cancel() {
	t.mu.Lock()
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.state = Idle
	done := t.firing
	t.mu.Unlock()

	if done != nil {
		<-done
	}
}

// State returns the current state.
func (t *Timer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Timer) armLocked() {
	t.gen++
	gen := t.gen

	if t.timer != nil {
		t.timer.Stop()
	}

	t.state = Armed
	t.timer = time.AfterFunc(t.interval, func() { t.run(gen) })
}

func (t *Timer) run(gen uint64) {
	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		return
	}
	done := make(chan struct{})
	t.firing = done
	t.state = Fired
	t.timer = nil
	t.mu.Unlock()

	again := t.fire()

	t.mu.Lock()
	defer t.mu.Unlock()

	t.firing = nil
	close(done)

	if gen != t.gen {
		return
	}
	if again {
		t.armLocked()
		return
	}
	t.state = Idle
}
