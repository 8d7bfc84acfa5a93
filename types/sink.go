package types

// Field identifies which piece of channel state changed in a Sink notification.
type Field int

const (
	// FieldLoading reports the loading flag; the value is a bool.
	FieldLoading Field = iota

	// FieldExecuted reports the executed flag; the value is a bool.
	FieldExecuted

	// FieldErrored reports the errored flag; the value is a bool.
	FieldErrored

	// FieldError reports the captured operation error; the value is an error or nil.
	FieldError

	// FieldResponse reports a new successful response; the value is the response.
	FieldResponse

	// FieldRefresh reports that the refresh timer fired; the value is the
	// effective interval as a time.Duration.
	FieldRefresh
)

// String returns the string representation of the field.
func (f Field) String() string {
	switch f {
	case FieldLoading:
		return "Loading"
	case FieldExecuted:
		return "Executed"
	case FieldErrored:
		return "Errored"
	case FieldError:
		return "Error"
	case FieldResponse:
		return "Response"
	case FieldRefresh:
		return "Refresh"
	default:
		return "Unknown"
	}
}

// ChannelInfo identifies a channel in Sink notifications.
type ChannelInfo struct {
	// Signature is the deduplication key of the channel.
	Signature string `json:"signature"`

	// Operation is the name of the operation the channel executes.
	Operation string `json:"operation"`
}

// Sink receives channel and subscription lifecycle notifications.
//
// Sinks are advisory: the engine never depends on them for correct operation.
// Notifications are delivered asynchronously and in order by a single dispatcher
// goroutine. A slow sink causes notifications to be dropped rather than blocking
// the engine, and a panicking sink is recovered and logged.
//
// Implementations must not assume they are called from the goroutine that caused
// the event, and should return quickly.
type Sink interface {
	// OnChannelCreated is called when a channel is registered for a new signature.
	OnChannelCreated(ch ChannelInfo)

	// OnChannelRemoved is called when the last subscription leaves a channel, or when
	// the manager is closed.
	OnChannelRemoved(ch ChannelInfo)

	// OnSubscriptionCreated is called when a subscription attaches to a channel.
	OnSubscriptionCreated(ch ChannelInfo, subscriptionID uint64)

	// OnSubscriptionRemoved is called when a subscription detaches from a channel.
	OnSubscriptionRemoved(ch ChannelInfo, subscriptionID uint64)

	// OnStateChanged is called for every state transition fanned out by a channel.
	OnStateChanged(ch ChannelInfo, field Field, value any)
}

// SinkFuncs adapts a set of optional callbacks to the Sink interface.
//
// Nil callbacks are skipped, so only the notifications of interest need to be set.
//
// Example:
//
//	sink := &coalesce.SinkFuncs{
//	    StateChanged: func(ch coalesce.ChannelInfo, field coalesce.Field, value any) {
//	        log.Printf("%s %s=%v", ch.Operation, field, value)
//	    },
//	}
//	mgr, _ := coalesce.NewManager(&cfg, coalesce.WithSink(sink))
type SinkFuncs struct {
	ChannelCreated      func(ch ChannelInfo)
	ChannelRemoved      func(ch ChannelInfo)
	SubscriptionCreated func(ch ChannelInfo, subscriptionID uint64)
	SubscriptionRemoved func(ch ChannelInfo, subscriptionID uint64)
	StateChanged        func(ch ChannelInfo, field Field, value any)
}

var _ Sink = (*SinkFuncs)(nil)

// OnChannelCreated invokes ChannelCreated when set.
func (s *SinkFuncs) OnChannelCreated(ch ChannelInfo) {
	if s.ChannelCreated != nil {
		s.ChannelCreated(ch)
	}
}

// OnChannelRemoved invokes ChannelRemoved when set.
func (s *SinkFuncs) OnChannelRemoved(ch ChannelInfo) {
	if s.ChannelRemoved != nil {
		s.ChannelRemoved(ch)
	}
}

// OnSubscriptionCreated invokes SubscriptionCreated when set.
func (s *SinkFuncs) OnSubscriptionCreated(ch ChannelInfo, subscriptionID uint64) {
	if s.SubscriptionCreated != nil {
		s.SubscriptionCreated(ch, subscriptionID)
	}
}

// OnSubscriptionRemoved invokes SubscriptionRemoved when set.
func (s *SinkFuncs) OnSubscriptionRemoved(ch ChannelInfo, subscriptionID uint64) {
	if s.SubscriptionRemoved != nil {
		s.SubscriptionRemoved(ch, subscriptionID)
	}
}

// OnStateChanged invokes StateChanged when set.
func (s *SinkFuncs) OnStateChanged(ch ChannelInfo, field Field, value any) {
	if s.StateChanged != nil {
		s.StateChanged(ch, field, value)
	}
}
