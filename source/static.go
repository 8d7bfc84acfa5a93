package source

import (
	"context"
	"sync"

	"github.com/arloliu/coalesce"
)

// StaticValue holds the value served by a Static operation.
type StaticValue struct {
	mu    sync.RWMutex
	value any
}

// Static creates an operation that returns a fixed value regardless of its arguments.
//
// The value can be replaced later with Update, which is useful for simulating
// backend changes in tests.
//
// Parameters:
//   - name: Operation name
//   - value: Initial value
//
// Returns:
//   - *coalesce.Operation: Operation to subscribe to
//   - *StaticValue: Handle to change the served value
//
// Example:
//
//	op, val := source.Static("flags", map[string]bool{"beta": false})
//	sub, _ := mgr.Subscribe(op, nil, coalesce.Options{Interval: time.Second})
//	// Later: flip the flag, picked up on the next refresh
//	val.Update(map[string]bool{"beta": true})
func Static(name string, value any) (*coalesce.Operation, *StaticValue) {
	sv := &StaticValue{value: value}

	op := coalesce.NewOperation(name, func(_ context.Context, _ ...any) (any, error) {
		return sv.Get(), nil
	})

	return op, sv
}

// Get returns the current value.
func (s *StaticValue) Get() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.value
}

// Update replaces the served value.
//
// Parameters:
//   - value: New value
func (s *StaticValue) Update(value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.value = value
}
