package coalesce

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Action is the remote call wrapped by an Operation.
//
// The engine treats it as opaque: it passes the resolved arguments positionally
// and stores whatever value or error comes back. The context is cancelled when
// the Manager is closed or Config.OperationTimeout elapses.
type Action func(ctx context.Context, args ...any) (any, error)

// Operation is an identity-bearing wrapper around an Action.
//
// Channels are keyed by the Operation pointer plus the encoded arguments, so the
// same *Operation must be reused across Subscribe calls for deduplication to
// happen. Create operations once, typically as package-level variables.
type Operation struct {
	name   string
	action Action
}

// NewOperation creates an Operation.
//
// Parameters:
//   - name: Human readable name used in logs, metrics and snapshots
//   - action: The call to execute
//
// Returns:
//   - *Operation: Operation to pass to Manager.Subscribe
//
// Example:
//
//	var fetchUser = coalesce.NewOperation("fetchUser", func(ctx context.Context, args ...any) (any, error) {
//	    return api.GetUser(ctx, args[0].(int))
//	})
func NewOperation(name string, action Action) *Operation {
	if name == "" {
		name = "anonymous"
	}

	return &Operation{name: name, action: action}
}

// Name returns the operation name.
func (o *Operation) Name() string {
	return o.name
}

// Call invokes the action directly, bypassing deduplication.
func (o *Operation) Call(ctx context.Context, args ...any) (any, error) {
	if o.action == nil {
		return nil, fmt.Errorf("operation %q has no action", o.name)
	}

	return o.action(ctx, args...)
}

// Func0 creates an Operation from a typed function without arguments.
func Func0[R any](name string, fn func(ctx context.Context) (R, error)) *Operation {
	return NewOperation(name, func(ctx context.Context, args ...any) (any, error) {
		if err := checkArgCount(args, 0); err != nil {
			return nil, err
		}

		return fn(ctx)
	})
}

// Func1 creates an Operation from a typed function of one argument.
//
// A call with the wrong argument count or type fails with ErrArgumentMismatch,
// which becomes the error state of the channel.
//
// Example:
//
//	var fetchUser = coalesce.Func1("fetchUser", func(ctx context.Context, id int) (*User, error) {
//	    return api.GetUser(ctx, id)
//	})
func Func1[A, R any](name string, fn func(ctx context.Context, a A) (R, error)) *Operation {
	return NewOperation(name, func(ctx context.Context, args ...any) (any, error) {
		if err := checkArgCount(args, 1); err != nil {
			return nil, err
		}

		a, err := argAt[A](args, 0)
		if err != nil {
			return nil, err
		}

		return fn(ctx, a)
	})
}

// Func2 creates an Operation from a typed function of two arguments.
func Func2[A, B, R any](name string, fn func(ctx context.Context, a A, b B) (R, error)) *Operation {
	return NewOperation(name, func(ctx context.Context, args ...any) (any, error) {
		if err := checkArgCount(args, 2); err != nil {
			return nil, err
		}

		a, err := argAt[A](args, 0)
		if err != nil {
			return nil, err
		}

		b, err := argAt[B](args, 1)
		if err != nil {
			return nil, err
		}

		return fn(ctx, a, b)
	})
}

func checkArgCount(args []any, want int) error {
	if len(args) != want {
		return fmt.Errorf("%w: want %d arguments, got %d", ErrArgumentMismatch, want, len(args))
	}

	return nil
}

// argAt converts args[i] to T. A nil argument yields the zero value of T.
func argAt[T any](args []any, i int) (T, error) {
	var zero T

	if args[i] == nil {
		return zero, nil
	}

	v, ok := args[i].(T)
	if !ok {
		return zero, fmt.Errorf("%w: argument %d is %T, want %T", ErrArgumentMismatch, i, args[i], zero)
	}

	return v, nil
}

// Never disables automatic refresh when used as Options.Interval.
const Never time.Duration = math.MaxInt64

// Options configures a single subscription.
type Options struct {
	// Interval is the refresh period requested by this consumer.
	//
	// The channel refreshes at the smallest interval among its subscriptions.
	// Zero or Never means this consumer does not ask for automatic refresh.
	// Positive values below Config.MinInterval are raised to it.
	Interval time.Duration
}

// refreshes reports whether the options request automatic refresh.
func (o Options) refreshes() bool {
	return o.Interval > 0 && o.Interval != Never
}
