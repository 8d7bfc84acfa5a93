package coalesce

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSubscription_IDsAreMonotonic(t *testing.T) {
	mgr, _ := newTestManager(t)
	op := newTestOp("fetchUser", false)

	var last uint64
	for i := range 5 {
		sub, err := mgr.Subscribe(op.Operation, []any{i}, Options{})
		require.NoError(t, err)
		require.Greater(t, sub.ID(), last)
		last = sub.ID()
	}
}

func TestSubscription_Changed(t *testing.T) {
	t.Run("signals state changes", func(t *testing.T) {
		mgr, _ := newTestManager(t)
		op := newTestOp("fetchUser", true)

		sub, err := mgr.Subscribe(op.Operation, []any{1}, Options{})
		require.NoError(t, err)

		// Loading was pushed on subscribe.
		select {
		case <-sub.Changed():
		case <-time.After(time.Second):
			t.Fatal("expected a change notification")
		}

		op.release()
		require.Eventually(t, func() bool {
			select {
			case <-sub.Changed():
				return sub.Executed()
			default:
				return false
			}
		}, time.Second, time.Millisecond)
	})

	t.Run("coalesces notifications", func(t *testing.T) {
		mgr, _ := newTestManager(t)
		op := newTestOp("fetchUser", false)

		sub, err := mgr.Subscribe(op.Operation, []any{1}, Options{})
		require.NoError(t, err)
		waitSettled(t, sub)

		// Drain whatever is pending from the initial execution.
		select {
		case <-sub.Changed():
		default:
		}

		st := mirror{response: "x", hasResponse: true, executed: true}
		for range 3 {
			sub.apply(st)
		}

		<-sub.Changed()
		select {
		case <-sub.Changed():
			t.Fatal("notifications should coalesce into a single value")
		default:
		}
		require.Equal(t, "x", sub.Response())
	})

	t.Run("closed on unsubscribe", func(t *testing.T) {
		mgr, _ := newTestManager(t)
		op := newTestOp("fetchUser", false)

		sub, err := mgr.Subscribe(op.Operation, []any{1}, Options{})
		require.NoError(t, err)
		waitSettled(t, sub)
		sub.Unsubscribe()

		require.Eventually(t, func() bool {
			_, ok := <-sub.Changed()
			return !ok
		}, time.Second, time.Millisecond)
	})
}

func TestSubscription_Unsubscribe(t *testing.T) {
	mgr, fake := newTestManager(t)
	op := newTestOp("fetchUser", false)

	keep, err := mgr.Subscribe(op.Operation, []any{1}, Options{})
	require.NoError(t, err)
	sub, err := mgr.Subscribe(op.Operation, []any{1}, Options{Interval: time.Second})
	require.NoError(t, err)
	waitSettled(t, sub)

	require.True(t, sub.IsSubscribed())
	require.Equal(t, 1, fake.Pending())

	sub.Unsubscribe()
	sub.Unsubscribe()

	require.False(t, sub.IsSubscribed())
	require.True(t, keep.IsSubscribed())
	require.Equal(t, 1, mgr.Len())
	require.Equal(t, 0, fake.Pending())

	// Detached subscriptions keep their last mirrored state.
	require.Equal(t, "[1]#1", sub.Response())

	// Refresh after unsubscribe is a no-op.
	sub.Refresh()
	require.Equal(t, int32(1), op.calls.Load())
}

func TestSubscription_State(t *testing.T) {
	mgr, _ := newTestManager(t)
	op := newTestOp("fetchUser", true)

	sub, err := mgr.Subscribe(op.Operation, []any{1}, Options{})
	require.NoError(t, err)
	require.Equal(t, StateLoading, sub.State())

	op.release()
	waitSettled(t, sub)
	require.Equal(t, StateReady, sub.State())

	op.fail.Store(true)
	sub.Refresh()
	op.release()
	require.Eventually(t, func() bool { return sub.State() == StateErrored }, time.Second, time.Millisecond)
}

func TestResponseAs(t *testing.T) {
	mgr, _ := newTestManager(t)
	op := Func1("double", func(_ context.Context, n int) (int, error) {
		return n * 2, nil
	})

	sub, err := mgr.Subscribe(op, []any{21}, Options{})
	require.NoError(t, err)

	_, ok := ResponseAs[int](nil)
	require.False(t, ok)

	waitSettled(t, sub)

	n, ok := ResponseAs[int](sub)
	require.True(t, ok)
	require.Equal(t, 42, n)

	_, ok = ResponseAs[string](sub)
	require.False(t, ok)
}
