package types

// ChannelState represents the lifecycle state of a channel.
//
// States progress as follows:
//
//	Idle → Loading → Ready | Errored
//
// Ready and Errored re-enter Loading whenever the operation executes again.
// Errored never leaves on its own: automatic refresh is suspended until an
// execution is triggered from outside (a new subscriber on an idle channel or
// an explicit refresh).
type ChannelState int

const (
	// StateIdle indicates the operation has never been executed.
	StateIdle ChannelState = iota

	// StateLoading indicates an execution is in flight.
	StateLoading

	// StateReady indicates the latest execution succeeded.
	StateReady

	// StateErrored indicates the latest execution failed.
	StateErrored
)

// String returns the string representation of the state.
func (s ChannelState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateLoading:
		return "Loading"
	case StateReady:
		return "Ready"
	case StateErrored:
		return "Errored"
	default:
		return "Unknown"
	}
}

// StateOf derives the channel state from the individual status flags.
//
// Loading takes precedence over the outcome of the previous execution, so a
// refreshing channel reports Loading even when it already holds a response.
//
// Parameters:
//   - loading: An execution is in flight
//   - executed: At least one execution has completed
//   - errored: The latest completed execution failed
//
// Returns:
//   - ChannelState: The derived state
func StateOf(loading, executed, errored bool) ChannelState {
	switch {
	case loading:
		return StateLoading
	case !executed:
		return StateIdle
	case errored:
		return StateErrored
	default:
		return StateReady
	}
}
