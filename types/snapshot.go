package types

import "time"

// ChannelSnapshot is a point-in-time copy of a channel's state.
//
// Snapshots back the inspector endpoints and are safe to serialize; the error is
// flattened to its message.
type ChannelSnapshot struct {
	Signature       string        `json:"signature"`
	Operation       string        `json:"operation"`
	State           string        `json:"state"`
	Loading         bool          `json:"loading"`
	Executed        bool          `json:"executed"`
	Errored         bool          `json:"errored"`
	Error           string        `json:"error,omitempty"`
	HasResponse     bool          `json:"hasResponse"`
	Response        any           `json:"response,omitempty"`
	Interval        time.Duration `json:"interval"`
	LastExecution   time.Time     `json:"lastExecution"`
	SubscriptionIDs []uint64      `json:"subscriptionIds"`
}
