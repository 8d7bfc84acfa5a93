package coalesce

import (
	"context"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/coalesce/internal/logging"
	"github.com/arloliu/coalesce/signature"
)

// newWallClockManager builds a Manager on the real clock. Inside a synctest
// bubble its timers run on the bubble's virtual time.
func newWallClockManager(t *testing.T, cfg Config) *Manager {
	t.Helper()

	mgr, err := NewManager(&cfg,
		WithRegistry(signature.NewRegistry()),
		WithLogger(logging.NewTest(t)),
	)
	require.NoError(t, err)

	return mgr
}

func TestWallClock_RefreshCadence(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		mgr := newWallClockManager(t, TestConfig())
		defer func() { _ = mgr.Close() }()

		op := newTestOp("fetchUser", false)
		sub, err := mgr.Subscribe(op.Operation, []any{1}, Options{Interval: time.Second})
		require.NoError(t, err)

		synctest.Wait()
		require.Equal(t, "[1]#1", sub.Response())

		time.Sleep(500 * time.Millisecond)
		synctest.Wait()
		require.Equal(t, int32(1), op.calls.Load())

		time.Sleep(600 * time.Millisecond)
		synctest.Wait()
		require.Equal(t, int32(2), op.calls.Load())
		require.Equal(t, "[1]#2", sub.Response())

		time.Sleep(time.Second)
		synctest.Wait()
		require.Equal(t, int32(3), op.calls.Load())
	})
}

func TestWallClock_CadenceFromRequestStart(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		mgr := newWallClockManager(t, TestConfig())
		defer func() { _ = mgr.Close() }()

		op := newTestOp("fetchUser", true)
		sub, err := mgr.Subscribe(op.Operation, []any{1}, Options{Interval: time.Second})
		require.NoError(t, err)

		time.Sleep(600 * time.Millisecond)
		op.release()
		synctest.Wait()
		require.Equal(t, "[1]#1", sub.Response())

		// Next call starts one interval after the first started, not after it finished.
		time.Sleep(500 * time.Millisecond)
		synctest.Wait()
		require.Equal(t, int32(2), op.calls.Load())
		require.True(t, sub.Loading())

		op.release()
		synctest.Wait()
		require.Equal(t, "[1]#2", sub.Response())
	})
}

func TestWallClock_FasterSubscriberShortensInterval(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		mgr := newWallClockManager(t, TestConfig())
		defer func() { _ = mgr.Close() }()

		op := newTestOp("fetchUser", false)
		_, err := mgr.Subscribe(op.Operation, []any{1}, Options{Interval: 10 * time.Second})
		require.NoError(t, err)
		synctest.Wait()

		fast, err := mgr.Subscribe(op.Operation, []any{1}, Options{Interval: time.Second})
		require.NoError(t, err)

		time.Sleep(1100 * time.Millisecond)
		synctest.Wait()
		require.Equal(t, int32(2), op.calls.Load())

		// Leaving restores the longer interval, counted from the last request start.
		fast.Unsubscribe()
		time.Sleep(time.Second)
		synctest.Wait()
		require.Equal(t, int32(2), op.calls.Load())

		time.Sleep(9 * time.Second)
		synctest.Wait()
		require.Equal(t, int32(3), op.calls.Load())
	})
}

func TestWallClock_ErrorSuspendsPolling(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		mgr := newWallClockManager(t, TestConfig())
		defer func() { _ = mgr.Close() }()

		op := newTestOp("fetchUser", false)
		sub, err := mgr.Subscribe(op.Operation, []any{1}, Options{Interval: time.Second})
		require.NoError(t, err)
		synctest.Wait()

		op.fail.Store(true)
		time.Sleep(1100 * time.Millisecond)
		synctest.Wait()
		require.True(t, sub.Errored())
		require.ErrorIs(t, sub.Err(), errBackend)
		require.Equal(t, "[1]#1", sub.Response())

		time.Sleep(time.Hour)
		synctest.Wait()
		require.Equal(t, int32(2), op.calls.Load())

		op.fail.Store(false)
		sub.Refresh()
		synctest.Wait()
		require.False(t, sub.Errored())
		require.Equal(t, "[1]#3", sub.Response())

		time.Sleep(1100 * time.Millisecond)
		synctest.Wait()
		require.Equal(t, int32(4), op.calls.Load())
	})
}

func TestWallClock_UnsubscribeStopsPolling(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		mgr := newWallClockManager(t, TestConfig())
		defer func() { _ = mgr.Close() }()

		op := newTestOp("fetchUser", false)
		sub, err := mgr.Subscribe(op.Operation, []any{1}, Options{Interval: time.Second})
		require.NoError(t, err)
		synctest.Wait()

		sub.Unsubscribe()
		time.Sleep(time.Hour)
		synctest.Wait()
		require.Equal(t, int32(1), op.calls.Load())
	})
}

func TestWallClock_OperationTimeout(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		cfg := TestConfig()
		cfg.OperationTimeout = 5 * time.Second
		mgr := newWallClockManager(t, cfg)
		defer func() { _ = mgr.Close() }()

		op := NewOperation("hang", func(ctx context.Context, _ ...any) (any, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})

		sub, err := mgr.Subscribe(op, nil, Options{})
		require.NoError(t, err)

		time.Sleep(4 * time.Second)
		synctest.Wait()
		require.True(t, sub.Loading())

		time.Sleep(2 * time.Second)
		synctest.Wait()
		require.ErrorIs(t, sub.Err(), context.DeadlineExceeded)
		require.False(t, sub.Loading())
	})
}
