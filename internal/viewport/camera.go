package viewport

import (
	"sync"
	"time"
)

// SettleDelay is how long the camera must stay still after a movement
// ends before it counts as idle.
const SettleDelay = 150 * time.Millisecond

// Timer is a pending scheduled call.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it via StdAfterFunc.
type AfterFunc func(d time.Duration, f func()) Timer

// StdAfterFunc schedules on the runtime timer.
func StdAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// IdleDetector debounces camera movement events into an idle signal.
//
// It starts idle. OnMovementStart makes it busy immediately and cancels a
// pending transition; OnMovementEnd schedules the transition back to idle
// after SettleDelay. A fire from a timer that was replaced or cancelled is
// ignored, so start/end/start never flickers idle.
type IdleDetector struct {
	mu     sync.Mutex
	idle   bool
	closed bool
	gen    uint64
	timer  Timer

	after  AfterFunc
	delay  time.Duration
	onIdle func()
}

// IdleOption configures an IdleDetector.
type IdleOption func(*IdleDetector)

// WithAfterFunc replaces the timer source.
func WithAfterFunc(after AfterFunc) IdleOption {
	return func(d *IdleDetector) { d.after = after }
}

// WithOnIdle registers a callback run after each transition to idle,
// outside the detector's lock.
func WithOnIdle(fn func()) IdleOption {
	return func(d *IdleDetector) { d.onIdle = fn }
}

// NewIdleDetector creates a detector in the idle state.
func NewIdleDetector(opts ...IdleOption) *IdleDetector {
	d := &IdleDetector{
		idle:  true,
		after: StdAfterFunc,
		delay: SettleDelay,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// IsIdle reports whether the camera has settled.
func (d *IdleDetector) IsIdle() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.idle
}

// OnMovementStart marks the camera as moving.
func (d *IdleDetector) OnMovementStart() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.cancelLocked()
	d.idle = false
}

// OnMovementEnd schedules the transition to idle.
func (d *IdleDetector) OnMovementEnd() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.cancelLocked()
	gen := d.gen
	d.timer = d.after(d.delay, func() { d.settle(gen) })
}

// Close cancels any pending transition. The detector ignores events afterwards.
func (d *IdleDetector) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
	d.closed = true
}

func (d *IdleDetector) settle(gen uint64) {
	d.mu.Lock()
	if d.closed || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.idle = true
	cb := d.onIdle
	d.mu.Unlock()

	if cb != nil {
		cb()
	}
}

// cancelLocked stops the pending timer and invalidates its generation;
// a timer that already fired and is waiting on mu sees a stale gen.
func (d *IdleDetector) cancelLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}
