// Package schedule abstracts delayed callbacks so timers can be driven by
// hand in tests.
package schedule

import "time"

// Timer is a pending callback.
type Timer interface {
	// Stop cancels the callback. It reports false if it already ran or was stopped.
	Stop() bool
}

// Scheduler runs f on its own goroutine after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// System is the wall-clock scheduler backed by time.AfterFunc.
type System struct{}

func (System) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// OrSystem returns s, or System when s is nil.
func OrSystem(s Scheduler) Scheduler {
	if s == nil {
		return System{}
	}
	return s
}
