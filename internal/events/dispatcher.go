// Package events delivers engine notifications to a types.Sink off the hot path.
package events

import (
	"sync"

	"github.com/arloliu/coalesce/types"
)

type kind uint8

const (
	kindChannelCreated kind = iota
	kindChannelRemoved
	kindSubscriptionCreated
	kindSubscriptionRemoved
	kindStateChanged
)

type event struct {
	kind  kind
	ch    types.ChannelInfo
	subID uint64
	field types.Field
	value any
}

// Dispatcher forwards notifications to a sink through a bounded queue drained
// by a single goroutine.
//
// Enqueueing never blocks: when the queue is full the notification is dropped
// and counted with RecordEventDropped. Notifications are delivered in the order
// they were enqueued. A sink panic is recovered and logged, and delivery
// continues with the next notification.
type Dispatcher struct {
	sink    types.Sink
	logger  types.Logger
	metrics types.ManagerMetrics

	mu     sync.RWMutex
	closed bool
	queue  chan event
	done   chan struct{}
}

// NewDispatcher creates a dispatcher and starts its delivery goroutine.
//
// A nil sink or a *NopSink yields a dispatcher that discards everything
// without starting a goroutine.
//
// Parameters:
//   - sink: Notification receiver
//   - size: Queue capacity (values below 1 are treated as 1)
//   - logger: Logger for recovered sink panics
//   - metrics: Receives dropped notification counts
//
// Returns:
//   - *Dispatcher: Running dispatcher; call Close to stop it
func NewDispatcher(sink types.Sink, size int, logger types.Logger, metrics types.ManagerMetrics) *Dispatcher {
	d := &Dispatcher{
		sink:    sink,
		logger:  logger,
		metrics: metrics,
		done:    make(chan struct{}),
	}

	if _, nop := sink.(*NopSink); sink == nil || nop {
		d.sink = nil
		close(d.done)

		return d
	}

	if size < 1 {
		size = 1
	}
	d.queue = make(chan event, size)

	go d.run()

	return d
}

// Enabled reports whether notifications are delivered anywhere.
func (d *Dispatcher) Enabled() bool {
	return d.sink != nil
}

// ChannelCreated enqueues an OnChannelCreated notification.
func (d *Dispatcher) ChannelCreated(ch types.ChannelInfo) {
	d.enqueue(event{kind: kindChannelCreated, ch: ch})
}

// ChannelRemoved enqueues an OnChannelRemoved notification.
func (d *Dispatcher) ChannelRemoved(ch types.ChannelInfo) {
	d.enqueue(event{kind: kindChannelRemoved, ch: ch})
}

// SubscriptionCreated enqueues an OnSubscriptionCreated notification.
func (d *Dispatcher) SubscriptionCreated(ch types.ChannelInfo, id uint64) {
	d.enqueue(event{kind: kindSubscriptionCreated, ch: ch, subID: id})
}

// SubscriptionRemoved enqueues an OnSubscriptionRemoved notification.
func (d *Dispatcher) SubscriptionRemoved(ch types.ChannelInfo, id uint64) {
	d.enqueue(event{kind: kindSubscriptionRemoved, ch: ch, subID: id})
}

// StateChanged enqueues an OnStateChanged notification.
func (d *Dispatcher) StateChanged(ch types.ChannelInfo, field types.Field, value any) {
	d.enqueue(event{kind: kindStateChanged, ch: ch, field: field, value: value})
}

// Close stops accepting notifications, delivers what is already queued and
// waits for the delivery goroutine to exit. Safe to call multiple times.
func (d *Dispatcher) Close() {
	if d.sink == nil {
		return
	}

	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	<-d.done
}

func (d *Dispatcher) enqueue(ev event) {
	if d.sink == nil {
		return
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return
	}

	select {
	case d.queue <- ev:
	default:
		d.metrics.RecordEventDropped()
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)

	for ev := range d.queue {
		d.deliver(ev)
	}
}

func (d *Dispatcher) deliver(ev event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Warn("sink panicked",
				"kind", int(ev.kind),
				"signature", ev.ch.Signature,
				"panic", r,
			)
		}
	}()

	switch ev.kind {
	case kindChannelCreated:
		d.sink.OnChannelCreated(ev.ch)
	case kindChannelRemoved:
		d.sink.OnChannelRemoved(ev.ch)
	case kindSubscriptionCreated:
		d.sink.OnSubscriptionCreated(ev.ch, ev.subID)
	case kindSubscriptionRemoved:
		d.sink.OnSubscriptionRemoved(ev.ch, ev.subID)
	case kindStateChanged:
		d.sink.OnStateChanged(ev.ch, ev.field, ev.value)
	}
}
