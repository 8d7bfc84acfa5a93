package events

import "github.com/arloliu/coalesce/types"

// NopSink implements types.Sink with no-op callbacks.
//
// This is the default sink used when none is configured, eliminating the need
// for nil checks throughout the codebase.
type NopSink struct{}

var _ types.Sink = (*NopSink)(nil)

// NewNop creates a new no-op sink.
func NewNop() *NopSink {
	return &NopSink{}
}

// OnChannelCreated is a no-op implementation.
func (s *NopSink) OnChannelCreated(types.ChannelInfo) {}

// OnChannelRemoved is a no-op implementation.
func (s *NopSink) OnChannelRemoved(types.ChannelInfo) {}

// OnSubscriptionCreated is a no-op implementation.
func (s *NopSink) OnSubscriptionCreated(types.ChannelInfo, uint64) {}

// OnSubscriptionRemoved is a no-op implementation.
func (s *NopSink) OnSubscriptionRemoved(types.ChannelInfo, uint64) {}

// OnStateChanged is a no-op implementation.
func (s *NopSink) OnStateChanged(types.ChannelInfo, types.Field, any) {}
