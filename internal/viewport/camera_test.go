package viewport

import (
	"sort"
	"sync"
	"testing"
	"time"
)

// fakeClock fires scheduled functions only when advanced.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	at      time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{at: c.now + d, fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && t.at <= c.now {
			t.fired = true
			due = append(due, t)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].at < due[j].at })
	c.mu.Unlock()

	for _, t := range due {
		t.fn()
	}
}

func TestIdleDetectorStartsIdle(t *testing.T) {
	d := NewIdleDetector()
	defer d.Close()
	if !d.IsIdle() {
		t.Fatal("expected initial state to be idle")
	}
}

func TestIdleDetectorSettlesAfterDelay(t *testing.T) {
	clock := &fakeClock{}
	idles := 0
	d := NewIdleDetector(WithAfterFunc(clock.AfterFunc), WithOnIdle(func() { idles++ }))

	d.OnMovementStart()
	if d.IsIdle() {
		t.Fatal("expected moving after start")
	}

	d.OnMovementEnd()
	clock.Advance(SettleDelay - time.Millisecond)
	if d.IsIdle() {
		t.Fatal("expected still moving before the settle delay")
	}

	clock.Advance(time.Millisecond)
	if !d.IsIdle() {
		t.Fatal("expected idle once the settle delay elapsed")
	}
	if idles != 1 {
		t.Fatalf("expected 1 idle callback, got %d", idles)
	}
}

func TestIdleDetectorNoFlicker(t *testing.T) {
	clock := &fakeClock{}
	d := NewIdleDetector(WithAfterFunc(clock.AfterFunc))

	d.OnMovementStart()
	for i := 0; i < 10; i++ {
		d.OnMovementEnd()
		clock.Advance(100 * time.Millisecond)
		d.OnMovementStart()
		if d.IsIdle() {
			t.Fatalf("iteration %d: went idle between end and start", i)
		}
		clock.Advance(SettleDelay)
		if d.IsIdle() {
			t.Fatalf("iteration %d: cancelled timer still fired", i)
		}
	}
}

func TestIdleDetectorRepeatedEndRestartsDelay(t *testing.T) {
	clock := &fakeClock{}
	d := NewIdleDetector(WithAfterFunc(clock.AfterFunc))

	d.OnMovementStart()
	d.OnMovementEnd()
	clock.Advance(100 * time.Millisecond)
	d.OnMovementEnd()
	clock.Advance(100 * time.Millisecond)
	if d.IsIdle() {
		t.Fatal("expected the second end to restart the settle delay")
	}
	clock.Advance(50 * time.Millisecond)
	if !d.IsIdle() {
		t.Fatal("expected idle 150ms after the last end")
	}
}

func TestIdleDetectorCloseCancelsPending(t *testing.T) {
	clock := &fakeClock{}
	called := false
	d := NewIdleDetector(WithAfterFunc(clock.AfterFunc), WithOnIdle(func() { called = true }))

	d.OnMovementStart()
	d.OnMovementEnd()
	d.Close()
	clock.Advance(time.Second)

	if d.IsIdle() || called {
		t.Fatal("expected no transition after Close")
	}
}

func TestIdleDetectorStaleFireIgnored(t *testing.T) {
	var pending func()
	after := func(_ time.Duration, f func()) Timer {
		pending = f
		return &fakeTimer{} // Stop has no effect on the captured func
	}
	d := NewIdleDetector(WithAfterFunc(after))

	d.OnMovementStart()
	d.OnMovementEnd()
	stale := pending
	d.OnMovementStart()

	stale()
	if d.IsIdle() {
		t.Fatal("expected a fire from a cancelled timer to be ignored")
	}
}

func TestIdleDetectorRealTimer(t *testing.T) {
	settled := make(chan struct{})
	d := NewIdleDetector(WithOnIdle(func() { close(settled) }))
	defer d.Close()

	start := time.Now()
	d.OnMovementStart()
	d.OnMovementEnd()

	select {
	case <-settled:
	case <-time.After(2 * time.Second):
		t.Fatal("detector never settled")
	}
	if elapsed := time.Since(start); elapsed < SettleDelay {
		t.Fatalf("settled after %v, want at least %v", elapsed, SettleDelay)
	}
	if !d.IsIdle() {
		t.Fatal("expected idle")
	}
}
