// Package clock provides the time source and single-shot scheduler used by channels.
//
// Channels only need "what time is it", "run this after a delay" and "cancel the
// pending run". Keeping that behind an interface lets tests drive refresh timers
// deterministically with Fake instead of sleeping.
package clock

import "time"

// Clock is a time source able to schedule deferred callbacks.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Since returns the time elapsed since t.
	Since(t time.Time) time.Duration

	// AfterFunc waits for the duration to elapse and then calls f in its own goroutine.
	// A non-positive duration schedules f immediately.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending callback created by Clock.AfterFunc.
type Timer interface {
	// Stop prevents the timer from firing.
	//
	// Returns:
	//   - bool: true if the call stopped the timer, false if it already fired or was stopped
	Stop() bool
}

type realClock struct{}

// New returns a Clock backed by the time package.
//
// Returns:
//   - Clock: Wall clock implementation
func New() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) Since(t time.Time) time.Duration {
	return time.Since(t)
}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
