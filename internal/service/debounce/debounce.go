// Package debounce collapses bursts of events into a single delayed action.
package debounce

import (
	"sync"
	"time"
)

// Handle cancels a scheduled action. Stop reports whether the action was
// prevented from running.
type Handle interface {
	Stop() bool
}

// Scheduler runs fn once after d unless the returned handle is stopped first.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Handle
}

type realScheduler struct{}

// RealScheduler schedules on the runtime timer.
func RealScheduler() Scheduler {
	return realScheduler{}
}

func (realScheduler) AfterFunc(d time.Duration, fn func()) Handle {
	return time.AfterFunc(d, fn)
}

// Trigger runs its action once the events passed to Notify have been quiet
// for the configured window. It holds at most one pending schedule.
type Trigger struct {
	scheduler Scheduler
	window    time.Duration
	action    func()

	mu      sync.Mutex
	pending Handle
	seq     uint64
	closed  bool
}

func NewTrigger(s Scheduler, window time.Duration, action func()) *Trigger {
	return &Trigger{scheduler: s, window: window, action: action}
}

// Notify records an event and restarts the quiet window.
func (t *Trigger) Notify() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	if t.pending != nil {
		t.pending.Stop()
	}

	t.seq++
	seq := t.seq
	t.pending = t.scheduler.AfterFunc(t.window, func() { t.fire(seq) })
}

// Pending reports whether an action is scheduled.
func (t *Trigger) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending != nil
}

// Cancel drops the pending action, if any.
func (t *Trigger) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

// Close cancels the pending action and ignores later events.
func (t *Trigger) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	t.closed = true
}

func (t *Trigger) stopLocked() {
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
	t.seq++
}

// fire runs the action unless a newer schedule replaced this one. A timer
// that already started firing cannot be stopped, so seq guards it.
func (t *Trigger) fire(seq uint64) {
	t.mu.Lock()
	if seq != t.seq || t.closed {
		t.mu.Unlock()
		return
	}
	t.pending = nil
	t.mu.Unlock()

	t.action()
}
