package signature

import (
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v4"
)

// DefaultRegistry is the process-wide operation id registry.
//
// It only grows: ids stay assigned for the lifetime of the process. Tests that need
// isolation should create their own registry with NewRegistry.
var DefaultRegistry = NewRegistry()

// Registry assigns stable ids to operation values.
//
// Operation values are used as map keys, so they must be comparable; pointers are
// the expected choice. Registry is safe for concurrent use.
type Registry struct {
	ids  *xsync.Map[any, uint64]
	next atomic.Uint64
}

// NewRegistry creates an empty registry whose first id is 0.
//
// Returns:
//   - *Registry: Empty registry
func NewRegistry() *Registry {
	return &Registry{ids: xsync.NewMap[any, uint64]()}
}

// ID returns the id of op, assigning the next free id on first encounter.
//
// Parameters:
//   - op: Comparable operation identity (typically a pointer)
//
// Returns:
//   - uint64: Stable id for op
func (r *Registry) ID(op any) uint64 {
	if id, ok := r.ids.Load(op); ok {
		return id
	}

	id, _ := r.ids.Compute(op, func(old uint64, loaded bool) (uint64, xsync.ComputeOp) {
		if loaded {
			return old, xsync.CancelOp
		}

		return r.next.Add(1) - 1, xsync.UpdateOp
	})

	return id
}

// Len returns the number of operations seen so far.
func (r *Registry) Len() int {
	return r.ids.Size()
}

// Reset forgets every assigned id and restarts numbering at 0.
//
// Intended for tests; resetting a registry shared with a live manager makes
// new subscriptions for already-seen operations miss their existing channels.
func (r *Registry) Reset() {
	r.ids.Clear()
	r.next.Store(0)
}
