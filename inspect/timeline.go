package inspect

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/puzpuzpuz/xsync/v4"

	"github.com/arloliu/coalesce/internal/logging"
	"github.com/arloliu/coalesce/types"
)

// Event kinds recorded by a Timeline.
const (
	KindChannelCreated      = "channel.created"
	KindChannelRemoved      = "channel.removed"
	KindSubscriptionCreated = "subscription.created"
	KindSubscriptionRemoved = "subscription.removed"
	KindStateChanged        = "state.changed"
)

// DefaultTimelineSize is used by NewTimeline when size is not positive.
const DefaultTimelineSize = 512

const clientQueueSize = 64

// Event is one entry of the timeline.
type Event struct {
	Seq            uint64          `json:"seq"`
	Time           time.Time       `json:"time"`
	Kind           string          `json:"kind"`
	Signature      string          `json:"signature"`
	Operation      string          `json:"operation"`
	SubscriptionID uint64          `json:"subscriptionId,omitempty"`
	Field          string          `json:"field,omitempty"`
	Value          json.RawMessage `json:"value,omitempty"`
}

// Timeline records manager events and broadcasts them to live clients.
//
// Timeline implements types.Sink. The manager delivers events from a single
// dispatcher goroutine; Timeline never blocks it: a client whose queue is full
// misses the event, which is counted by Dropped.
type Timeline struct {
	logger types.Logger

	mu     sync.RWMutex
	ring   []Event
	next   int
	filled bool
	seq    uint64

	clients *xsync.Map[string, *client]
	dropped atomic.Uint64
}

type client struct {
	id   string
	send chan []byte
}

var _ types.Sink = (*Timeline)(nil)

// NewTimeline creates a timeline keeping the last size events.
//
// Parameters:
//   - size: Ring buffer capacity (DefaultTimelineSize when <= 0)
//   - logger: Logger for client lifecycle messages (nop when nil)
//
// Returns:
//   - *Timeline: Ready to pass to coalesce.WithSink
func NewTimeline(size int, logger types.Logger) *Timeline {
	if size <= 0 {
		size = DefaultTimelineSize
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Timeline{
		logger:  logger,
		ring:    make([]Event, size),
		clients: xsync.NewMap[string, *client](),
	}
}

// OnChannelCreated implements types.Sink.
func (t *Timeline) OnChannelCreated(ch types.ChannelInfo) {
	t.record(Event{Kind: KindChannelCreated, Signature: ch.Signature, Operation: ch.Operation})
}

// OnChannelRemoved implements types.Sink.
func (t *Timeline) OnChannelRemoved(ch types.ChannelInfo) {
	t.record(Event{Kind: KindChannelRemoved, Signature: ch.Signature, Operation: ch.Operation})
}

// OnSubscriptionCreated implements types.Sink.
func (t *Timeline) OnSubscriptionCreated(ch types.ChannelInfo, subscriptionID uint64) {
	t.record(Event{
		Kind:           KindSubscriptionCreated,
		Signature:      ch.Signature,
		Operation:      ch.Operation,
		SubscriptionID: subscriptionID,
	})
}

// OnSubscriptionRemoved implements types.Sink.
func (t *Timeline) OnSubscriptionRemoved(ch types.ChannelInfo, subscriptionID uint64) {
	t.record(Event{
		Kind:           KindSubscriptionRemoved,
		Signature:      ch.Signature,
		Operation:      ch.Operation,
		SubscriptionID: subscriptionID,
	})
}

// OnStateChanged implements types.Sink.
func (t *Timeline) OnStateChanged(ch types.ChannelInfo, field types.Field, value any) {
	t.record(Event{
		Kind:      KindStateChanged,
		Signature: ch.Signature,
		Operation: ch.Operation,
		Field:     field.String(),
		Value:     encodeValue(value),
	})
}

// Events returns the buffered events, oldest first.
func (t *Timeline) Events() []Event {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.filled {
		return append([]Event(nil), t.ring[:t.next]...)
	}

	out := make([]Event, 0, len(t.ring))
	out = append(out, t.ring[t.next:]...)
	out = append(out, t.ring[:t.next]...)

	return out
}

// Clients returns the number of connected stream clients.
func (t *Timeline) Clients() int {
	return t.clients.Size()
}

// Dropped returns how many messages were not delivered to slow clients.
func (t *Timeline) Dropped() uint64 {
	return t.dropped.Load()
}

func (t *Timeline) record(ev Event) {
	t.mu.Lock()
	t.seq++
	ev.Seq = t.seq
	ev.Time = time.Now()
	t.ring[t.next] = ev
	t.next++
	if t.next == len(t.ring) {
		t.next = 0
		t.filled = true
	}
	t.mu.Unlock()

	t.broadcast(ev)
}

func (t *Timeline) broadcast(ev Event) {
	if t.clients.Size() == 0 {
		return
	}

	data, err := json.Marshal(ev)
	if err != nil {
		t.logger.Warn("failed to marshal timeline event", "seq", ev.Seq, "error", err)
		return
	}

	t.clients.Range(func(_ string, c *client) bool {
		select {
		case c.send <- data:
		default:
			t.dropped.Add(1)
		}
		return true
	})
}

// attach registers a stream client. The returned detach function must be called exactly once.
func (t *Timeline) attach() (*client, func()) {
	c := &client{
		id:   gonanoid.Must(10),
		send: make(chan []byte, clientQueueSize),
	}
	t.clients.Store(c.id, c)
	t.logger.Debug("timeline client attached", "client", c.id)

	return c, func() {
		t.clients.Delete(c.id)
		t.logger.Debug("timeline client detached", "client", c.id)
	}
}

// encodeValue renders a state value as JSON. Errors become their message;
// values that cannot be marshaled fall back to their fmt representation.
func encodeValue(value any) json.RawMessage {
	switch v := value.(type) {
	case nil:
		return nil
	case error:
		value = v.Error()
	case time.Duration:
		value = v.String()
	}

	data, err := json.Marshal(value)
	if err != nil {
		data, _ = json.Marshal(fmt.Sprintf("%v", value))
	}

	return data
}
