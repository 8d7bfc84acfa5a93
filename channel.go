package coalesce

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/arloliu/coalesce/internal/clock"
	"github.com/arloliu/coalesce/types"
)

// Channel is the shared execution unit behind every Subscription with the same signature.
//
// A Channel owns the cached response, the loading/executed/errored flags, the
// last error and a single refresh timer. Every state change is pushed to all of
// its subscriptions. The Channel lives while at least one subscription is
// attached; the last Unsubscribe removes it from the Manager.
//
// State machine:
//
//	Idle → Loading → Ready | Errored
//	Ready | Errored → Loading (on execute)
//
// Errored never leaves on its own: automatic refresh is suspended until an
// externally triggered execution (Subscription.Refresh or a subscribe on a
// channel that is not loading and never executed).
//
// Thread Safety:
//   - All state is guarded by mu; lock order is Channel, then Subscription
//   - The operation itself runs in its own goroutine outside every lock
type Channel struct {
	mgr       *Manager
	clock     clock.Clock
	signature string
	op        *Operation
	args      []any // resolved at subscribe time, encoded by signature
	info      types.ChannelInfo

	mu            sync.Mutex
	subs          *xsync.Map[uint64, *Subscription]
	response      any
	hasResponse   bool
	loading       bool
	executed      bool
	errored       bool
	err           error
	lastExecution time.Time
	interval      time.Duration
	timer         clock.Timer
	timerGen      uint64
	closed        atomic.Bool
}

func newChannel(mgr *Manager, sig string, op *Operation, args []any) *Channel {
	return &Channel{
		mgr:       mgr,
		clock:     mgr.clock,
		signature: sig,
		op:        op,
		args:      args,
		info:      types.ChannelInfo{Signature: sig, Operation: op.name},
		subs:      xsync.NewMap[uint64, *Subscription](),
	}
}

// Signature returns the deduplication key of the channel.
func (c *Channel) Signature() string {
	return c.signature
}

// Operation returns the operation the channel executes.
func (c *Channel) Operation() *Operation {
	return c.op
}

// Interval returns the effective refresh interval, or 0 when no subscription
// requested automatic refresh.
func (c *Channel) Interval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.interval
}

// State returns the current channel state.
func (c *Channel) State() ChannelState {
	c.mu.Lock()
	defer c.mu.Unlock()

	return types.StateOf(c.loading, c.executed, c.errored)
}

// Snapshot returns a point-in-time copy of the channel state.
func (c *Channel) Snapshot() ChannelSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make([]uint64, 0, c.subs.Size())
	c.subs.Range(func(id uint64, _ *Subscription) bool {
		ids = append(ids, id)
		return true
	})
	slices.Sort(ids)

	snap := ChannelSnapshot{
		Signature:       c.signature,
		Operation:       c.op.name,
		State:           types.StateOf(c.loading, c.executed, c.errored).String(),
		Loading:         c.loading,
		Executed:        c.executed,
		Errored:         c.errored,
		HasResponse:     c.hasResponse,
		Response:        c.response,
		Interval:        c.interval,
		LastExecution:   c.lastExecution,
		SubscriptionIDs: ids,
	}
	if c.err != nil {
		snap.Error = c.err.Error()
	}

	return snap
}

func (c *Channel) isClosed() bool {
	return c.closed.Load()
}

// subscribe attaches a new subscription seeded with the current state.
//
// Returns false when the channel was torn down concurrently; the caller must
// look the signature up again.
func (c *Channel) subscribe(opts Options) (*Subscription, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isClosed() {
		return nil, false
	}

	sub := newSubscription(c, opts, c.mirrorLocked())
	c.subs.Store(sub.id, sub)
	c.mgr.subscriptionAdded(c.info, sub.id)

	if !c.executed && !c.loading {
		c.startLocked()
	}

	c.recomputeLocked()
	c.rescheduleLocked()

	return sub, true
}

// unsubscribe detaches sub; the last one out closes the channel and evicts it.
func (c *Channel) unsubscribe(sub *Subscription) {
	c.mu.Lock()

	if _, ok := c.subs.LoadAndDelete(sub.id); !ok {
		c.mu.Unlock()
		return
	}
	sub.detach()
	c.mgr.subscriptionRemoved(c.info, sub.id)

	if c.subs.Size() > 0 {
		c.recomputeLocked()
		c.rescheduleLocked()
		c.mu.Unlock()

		return
	}

	c.closeLocked()
	c.mu.Unlock()

	c.mgr.deleteChannel(c)
}

// teardown detaches every subscription and closes the channel. Used by Manager.Close.
func (c *Channel) teardown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isClosed() {
		return
	}

	c.subs.Range(func(id uint64, sub *Subscription) bool {
		sub.detach()
		c.mgr.subscriptionRemoved(c.info, id)
		return true
	})
	c.subs.Clear()
	c.closeLocked()
}

func (c *Channel) closeLocked() {
	c.closed.Store(true)
	c.cancelTimerLocked()
}

// refresh executes the operation now, regardless of the current state.
func (c *Channel) refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isClosed() {
		return
	}

	c.startLocked()
}

// startLocked marks the channel loading, reschedules from the request start and
// runs the operation in a new goroutine. Overlapping runs are allowed; the last
// one to complete wins.
func (c *Channel) startLocked() {
	c.loading = true
	c.lastExecution = c.clock.Now()
	c.emitLocked(types.FieldLoading, true)
	c.pushLocked()

	c.rescheduleLocked()

	args := slices.Clone(c.args)
	ctx, cancel := c.mgr.operationContext()

	go func() {
		defer cancel()
		c.run(ctx, args)
	}()
}

func (c *Channel) run(ctx context.Context, args []any) {
	start := time.Now()
	resp, err := c.invoke(ctx, args)
	c.mgr.metrics.RecordExecution(c.op.name, time.Since(start).Seconds(), err == nil)

	c.complete(resp, err)
}

func (c *Channel) invoke(ctx context.Context, args []any) (resp any, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp = nil
			err = fmt.Errorf("%w: %v", ErrOperationPanicked, r)
		}
	}()

	return c.op.Call(ctx, args...)
}

// complete applies the result of one execution.
func (c *Channel) complete(resp any, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isClosed() {
		c.mgr.metrics.RecordDiscardedResult(c.op.name)
		c.mgr.logger.Debug("discarding result of removed channel",
			"signature", c.signature,
			"operation", c.op.name,
		)

		return
	}

	if err == nil {
		c.response = resp
		c.hasResponse = true
		c.emitLocked(types.FieldResponse, resp)

		if c.errored {
			c.errored = false
			c.emitLocked(types.FieldErrored, false)
		}
		if c.err != nil {
			c.err = nil
			c.emitLocked(types.FieldError, nil)
		}

		// Recovery after an error: the run was started while errored, so no
		// tick is pending yet.
		if c.timer == nil {
			c.rescheduleLocked()
		}
	} else {
		c.mgr.logger.Debug("operation failed",
			"signature", c.signature,
			"operation", c.op.name,
			"error", err,
		)

		c.errored = true
		c.err = err
		c.emitLocked(types.FieldErrored, true)
		c.emitLocked(types.FieldError, err)
		c.cancelTimerLocked()
	}

	if !c.executed {
		c.executed = true
		c.emitLocked(types.FieldExecuted, true)
	}
	c.loading = false
	c.emitLocked(types.FieldLoading, false)

	c.pushLocked()
}

// recomputeLocked sets the effective interval to the smallest requested one.
func (c *Channel) recomputeLocked() {
	var interval time.Duration

	c.subs.Range(func(_ uint64, sub *Subscription) bool {
		if sub.opts.refreshes() && (interval == 0 || sub.opts.Interval < interval) {
			interval = sub.opts.Interval
		}
		return true
	})

	c.interval = interval
}

// rescheduleLocked replaces the pending tick with one due interval after the
// last execution start.
func (c *Channel) rescheduleLocked() {
	c.cancelTimerLocked()

	if c.interval <= 0 || c.errored || c.isClosed() {
		return
	}

	delay := c.interval - c.clock.Since(c.lastExecution)
	if delay < 0 {
		delay = 0
	}

	gen := c.timerGen
	c.timer = c.clock.AfterFunc(delay, func() {
		c.tick(gen)
	})
}

func (c *Channel) cancelTimerLocked() {
	c.timerGen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Channel) tick(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// A stale callback lost the race against Stop.
	if gen != c.timerGen || c.isClosed() {
		return
	}
	c.timer = nil

	c.emitLocked(types.FieldRefresh, c.interval)
	c.mgr.metrics.RecordRefresh(c.op.name)

	c.startLocked()
}

func (c *Channel) mirrorLocked() mirror {
	return mirror{
		response:    c.response,
		hasResponse: c.hasResponse,
		loading:     c.loading,
		executed:    c.executed,
		errored:     c.errored,
		err:         c.err,
	}
}

// pushLocked fans the current state out to every subscription.
func (c *Channel) pushLocked() {
	st := c.mirrorLocked()

	c.subs.Range(func(_ uint64, sub *Subscription) bool {
		sub.apply(st)
		return true
	})
}

func (c *Channel) emitLocked(field types.Field, value any) {
	c.mgr.dispatcher.StateChanged(c.info, field, value)
}
