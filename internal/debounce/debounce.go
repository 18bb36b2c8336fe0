// Package debounce runs a function once input has been quiet for a fixed period.
package debounce

import (
	"sync"
	"time"

	"slidegenie/internal/schedule"
)

// Task holds at most one pending invocation of fn. Each Trigger cancels the
// pending one and schedules a new one delay later.
type Task struct {
	mu      sync.Mutex
	delay   time.Duration
	fn      func()
	sched   schedule.Scheduler
	pending schedule.Timer
	gen     uint64
}

// New returns a Task that calls fn after delay of quiet. A nil scheduler
// uses the wall clock.
func New(delay time.Duration, fn func(), sched schedule.Scheduler) *Task {
	return &Task{delay: delay, fn: fn, sched: schedule.OrSystem(sched)}
}

// Trigger (re)starts the quiet period.
func (t *Task) Trigger() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pending != nil {
		t.pending.Stop()
	}
	t.gen++
	gen := t.gen
	t.pending = t.sched.AfterFunc(t.delay, func() { t.fire(gen) })
}

func (t *Task) fire(gen uint64) {
	t.mu.Lock()
	// a Stop that lost the race leaves a stale callback behind
	if gen != t.gen || t.pending == nil {
		t.mu.Unlock()
		return
	}
	t.pending = nil
	t.mu.Unlock()

	t.fn()
}

// Cancel drops the pending invocation, if any.
func (t *Task) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
	t.gen++
}

// Flush runs the pending invocation now. It reports whether one was pending.
func (t *Task) Flush() bool {
	t.mu.Lock()
	if t.pending == nil {
		t.mu.Unlock()
		return false
	}
	t.pending.Stop()
	t.pending = nil
	t.gen++
	t.mu.Unlock()

	t.fn()
	return true
}

// Pending reports whether an invocation is scheduled.
func (t *Task) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending != nil
}
