package clock

import (
	"slices"
	"sync"
	"time"
)

// Fake is a manually advanced Clock for tests.
//
// Timers never fire on their own. Advance moves the clock forward and runs every
// timer whose deadline has been reached, in deadline order, synchronously on the
// calling goroutine and outside the fake's lock (so callbacks may schedule new
// timers). A timer scheduled with a non-positive delay fires on the next Advance,
// including Advance(0).
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	seq    uint64
	timers []*fakeTimer
}

type fakeTimer struct {
	clock    *Fake
	deadline time.Time
	seq      uint64
	fn       func()
	stopped  bool
}

var _ Clock = (*Fake)(nil)

// NewFake creates a fake clock starting at the given time.
//
// Parameters:
//   - start: Initial time (zero value is replaced with a fixed reference time)
//
// Returns:
//   - *Fake: Fake clock instance
//
// Example:
//
//	clk := clock.NewFake(time.Time{})
//	clk.AfterFunc(time.Second, func() { fmt.Println("tick") })
//	clk.Advance(time.Second) // prints "tick"
func NewFake(start time.Time) *Fake {
	if start.IsZero() {
		start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}

	return &Fake{now: start}
}

// Now returns the fake current time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.now
}

// Since returns the fake time elapsed since t.
func (f *Fake) Since(t time.Time) time.Duration {
	return f.Now().Sub(t)
}

// AfterFunc schedules fn to run once the fake clock reaches now+d.
func (f *Fake) AfterFunc(d time.Duration, fn func()) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()

	if d < 0 {
		d = 0
	}

	f.seq++
	t := &fakeTimer{clock: f, deadline: f.now.Add(d), seq: f.seq, fn: fn}
	f.timers = append(f.timers, t)

	return t
}

// Advance moves the clock forward by d and fires every due timer.
//
// Parameters:
//   - d: Duration to advance (negative values are treated as zero)
func (f *Fake) Advance(d time.Duration) {
	if d < 0 {
		d = 0
	}

	f.mu.Lock()
	target := f.now.Add(d)
	f.mu.Unlock()

	for {
		f.mu.Lock()
		next := f.popDueLocked(target)
		if next == nil {
			f.now = target
			f.mu.Unlock()

			return
		}
		if next.deadline.After(f.now) {
			f.now = next.deadline
		}
		f.mu.Unlock()

		next.fn()
	}
}

// Pending returns the number of timers that have neither fired nor been stopped.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.timers)
}

// NextDeadline returns the earliest pending deadline.
//
// Returns:
//   - time.Time: Earliest deadline
//   - bool: false when no timer is pending
func (f *Fake) NextDeadline() (time.Time, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.timers) == 0 {
		return time.Time{}, false
	}

	earliest := f.timers[0].deadline
	for _, t := range f.timers[1:] {
		if t.deadline.Before(earliest) {
			earliest = t.deadline
		}
	}

	return earliest, true
}

// popDueLocked removes and returns the earliest timer due at or before target.
func (f *Fake) popDueLocked(target time.Time) *fakeTimer {
	idx := -1
	for i, t := range f.timers {
		if t.deadline.After(target) {
			continue
		}
		if idx == -1 || t.deadline.Before(f.timers[idx].deadline) ||
			(t.deadline.Equal(f.timers[idx].deadline) && t.seq < f.timers[idx].seq) {
			idx = i
		}
	}
	if idx == -1 {
		return nil
	}

	t := f.timers[idx]
	f.timers = slices.Delete(f.timers, idx, idx+1)
	t.stopped = true

	return t
}

func (t *fakeTimer) Stop() bool {
	f := t.clock
	f.mu.Lock()
	defer f.mu.Unlock()

	if t.stopped {
		return false
	}
	t.stopped = true
	f.timers = slices.DeleteFunc(f.timers, func(other *fakeTimer) bool { return other == t })

	return true
}
