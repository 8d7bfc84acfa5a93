package coalesce

import (
	"sync"
	"sync/atomic"

	"github.com/arloliu/coalesce/types"
)

// subscriptionSeq issues process-unique subscription ids.
var subscriptionSeq atomic.Uint64

// mirror is the channel state pushed to every subscription on each change.
type mirror struct {
	response    any
	hasResponse bool
	loading     bool
	executed    bool
	errored     bool
	err         error
}

// carried holds state inherited from a previous subscription by Resubscribe.
type carried struct {
	response    any
	hasResponse bool
	executed    bool
}

// Subscription is one consumer's handle on a shared Channel.
//
// All getters read state mirrored from the Channel; a Subscription never mutates
// the Channel except through Refresh and Unsubscribe.
//
// Thread Safety:
//   - All methods are safe for concurrent use
//   - Unsubscribe is idempotent
type Subscription struct {
	id        uint64
	signature string
	opts      Options

	mu      sync.RWMutex
	ch      *Channel
	state   mirror
	carry   *carried
	changed chan struct{}
	done    bool
}

func newSubscription(ch *Channel, opts Options, seed mirror) *Subscription {
	return &Subscription{
		id:        subscriptionSeq.Add(1),
		signature: ch.signature,
		opts:      opts,
		ch:        ch,
		state:     seed,
		changed:   make(chan struct{}, 1),
	}
}

// ID returns the process-unique subscription id.
func (s *Subscription) ID() uint64 {
	return s.id
}

// Signature returns the signature of the channel this subscription belongs to.
func (s *Subscription) Signature() string {
	return s.signature
}

// Options returns the effective options, after the interval floor was applied.
func (s *Subscription) Options() Options {
	return s.opts
}

// Response returns the last successful response, or nil before the first success.
func (s *Subscription) Response() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state.response
}

// HasResponse reports whether a successful response is available.
func (s *Subscription) HasResponse() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state.hasResponse
}

// Loading reports whether an execution is in flight.
func (s *Subscription) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state.loading
}

// Executed reports whether at least one execution has completed.
func (s *Subscription) Executed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state.executed
}

// Errored reports whether the latest execution failed.
func (s *Subscription) Errored() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state.errored
}

// Err returns the error of the latest execution, or nil if it succeeded.
func (s *Subscription) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state.err
}

// State returns the channel state as seen by this subscription.
func (s *Subscription) State() ChannelState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return stateOf(s.state)
}

// IsSubscribed reports whether the subscription is still attached to its channel.
func (s *Subscription) IsSubscribed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.ch != nil
}

// Changed returns a channel that receives a value whenever the mirrored state changes.
//
// Notifications coalesce: several changes between two reads produce a single
// value. The channel is closed once the subscription is detached.
//
// Example:
//
//	for range sub.Changed() {
//	    render(sub.Response(), sub.Err())
//	}
func (s *Subscription) Changed() <-chan struct{} {
	return s.changed
}

// Refresh triggers an execution of the channel's operation.
//
// This is the way to resume automatic refresh after an error. It is a no-op once
// the subscription is detached.
func (s *Subscription) Refresh() {
	if ch := s.channel(); ch != nil {
		ch.refresh()
	}
}

// Unsubscribe detaches the subscription from its channel.
//
// When it was the last subscription, the channel is removed and its cached state
// dropped. Calling Unsubscribe more than once is a no-op.
func (s *Subscription) Unsubscribe() {
	if ch := s.channel(); ch != nil {
		ch.unsubscribe(s)
	}
}

func (s *Subscription) channel() *Channel {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.ch
}

// apply stores state pushed by the channel and signals Changed.
func (s *Subscription) apply(st mirror) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return
	}

	s.state = s.mergeCarryLocked(st)
	s.notifyLocked()
}

// inherit seeds the subscription with the response and executed flag of a previous
// subscription until its own channel produces a response.
func (s *Subscription) inherit(c carried) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done || s.state.hasResponse {
		return
	}

	s.carry = &c
	s.state = s.mergeCarryLocked(s.state)
	s.notifyLocked()
}

func (s *Subscription) mergeCarryLocked(st mirror) mirror {
	if s.carry == nil {
		return st
	}

	if st.hasResponse {
		s.carry = nil
		return st
	}

	if s.carry.hasResponse {
		st.response = s.carry.response
		st.hasResponse = true
	}
	st.executed = st.executed || s.carry.executed

	return st
}

// detach severs the back-reference and closes Changed. Called by the channel
// while holding its lock.
func (s *Subscription) detach() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return
	}

	s.done = true
	s.ch = nil
	close(s.changed)
}

func (s *Subscription) notifyLocked() {
	select {
	case s.changed <- struct{}{}:
	default:
	}
}

// ResponseAs returns the subscription response converted to T.
//
// Returns false when no response is available yet or it is not a T.
//
// Example:
//
//	user, ok := coalesce.ResponseAs[*User](sub)
func ResponseAs[T any](sub *Subscription) (T, bool) {
	var zero T
	if sub == nil || !sub.HasResponse() {
		return zero, false
	}

	v, ok := sub.Response().(T)

	return v, ok
}

func stateOf(st mirror) ChannelState {
	return types.StateOf(st.loading, st.executed, st.errored)
}
