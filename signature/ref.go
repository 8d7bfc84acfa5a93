package signature

import (
	"encoding/json"
	"sync"
)

// Ref is an indirection wrapper around an argument value.
//
// Refs are resolved once, when a subscription is created: the signature and every
// execution of its channel use the value read at that moment. Refs nested in
// types other than []any and map[string]any are not replaced; Value and RefFunc
// encode as their current value so they still sign correctly, but the operation
// receives the wrapper itself.
type Ref interface {
	// Resolve returns the wrapped value. It may itself be a Ref.
	Resolve() any
}

// RefFunc adapts a function to the Ref interface, producing a lazily computed value.
type RefFunc func() any

// Resolve calls the function. A nil RefFunc resolves to nil.
func (f RefFunc) Resolve() any {
	if f == nil {
		return nil
	}

	return f()
}

// MarshalJSON encodes the resolved value.
func (f RefFunc) MarshalJSON() ([]byte, error) {
	return json.Marshal(Resolve(f))
}

// MarshalCBOR encodes the resolved value with the deterministic signature encoding.
func (f RefFunc) MarshalCBOR() ([]byte, error) {
	return marshalCBOR(Resolve(f))
}

// Value is a mutable, concurrency-safe container implementing Ref.
type Value[T any] struct {
	mu sync.RWMutex
	v  T
}

var _ Ref = (*Value[int])(nil)

// NewValue creates a Value holding v.
//
// Example:
//
//	userID := signature.NewValue(42)
//	sub, _ := mgr.Subscribe(fetchUser, []any{userID}, coalesce.Options{})
//	userID.Set(43)
//	sub, _ = mgr.Resubscribe(sub, []any{userID}) // now on the fetchUser(43) channel
func NewValue[T any](v T) *Value[T] {
	return &Value[T]{v: v}
}

// Get returns the current value.
func (r *Value[T]) Get() T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.v
}

// Set replaces the current value.
func (r *Value[T]) Set(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.v = v
}

// Resolve returns the current value as any.
func (r *Value[T]) Resolve() any {
	return r.Get()
}

// MarshalJSON encodes the current value.
func (r *Value[T]) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("null"), nil
	}

	return json.Marshal(Resolve(r))
}

// MarshalCBOR encodes the current value with the deterministic signature encoding.
func (r *Value[T]) MarshalCBOR() ([]byte, error) {
	if r == nil {
		return marshalCBOR(nil)
	}

	return marshalCBOR(Resolve(r))
}

// maxRefDepth bounds ref chains so a self-referencing Ref cannot loop forever.
const maxRefDepth = 64

// Resolve replaces every Ref in v with the value it wraps.
//
// Refs nested inside []any and map[string]any are resolved recursively; other
// container types are returned as-is. The input is never modified.
//
// Parameters:
//   - v: Value possibly containing Refs
//
// Returns:
//   - any: Plain value
func Resolve(v any) any {
	for depth := 0; depth < maxRefDepth; depth++ {
		ref, ok := v.(Ref)
		if !ok {
			break
		}
		v = ref.Resolve()
	}

	switch typed := v.(type) {
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = Resolve(item)
		}

		return out
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, item := range typed {
			out[k] = Resolve(item)
		}

		return out
	default:
		return v
	}
}

// ResolveArgs resolves every argument of a call.
//
// Parameters:
//   - args: Positional arguments
//
// Returns:
//   - []any: New slice of plain values (never nil)
func ResolveArgs(args []any) []any {
	out := make([]any, len(args))
	for i, arg := range args {
		out[i] = Resolve(arg)
	}

	return out
}
