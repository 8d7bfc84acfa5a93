package types

// MetricsCollector defines methods for recording operational metrics.
//
// Implementations should be non-blocking and handle failures gracefully.
// Methods are called from engine goroutines and must be safe for concurrent use.
//
// This interface composes smaller, domain-focused interfaces for better modularity.
type MetricsCollector interface {
	ManagerMetrics
	ChannelMetrics
}

// ManagerMetrics defines metrics for registry-level bookkeeping.
type ManagerMetrics interface {
	// SetActiveChannels sets the number of live channels (gauge metric).
	//
	// Parameters:
	//   - count: Current number of channels in the registry
	SetActiveChannels(count int)

	// SetActiveSubscriptions sets the number of live subscriptions (gauge metric).
	//
	// Parameters:
	//   - count: Current number of subscriptions across all channels
	SetActiveSubscriptions(count int)

	// RecordEventDropped records a sink notification dropped because the
	// dispatch queue was full.
	RecordEventDropped()
}

// ChannelMetrics defines metrics for operation executions.
type ChannelMetrics interface {
	// RecordExecution records one completed execution of an operation.
	//
	// Parameters:
	//   - operation: Operation name
	//   - duration: Time taken in seconds
	//   - success: true if the operation returned without error
	RecordExecution(operation string, duration float64, success bool)

	// RecordRefresh records an execution started by the refresh timer.
	//
	// Parameters:
	//   - operation: Operation name
	RecordRefresh(operation string)

	// RecordDiscardedResult records a result that arrived after its channel was removed.
	//
	// Parameters:
	//   - operation: Operation name
	RecordDiscardedResult(operation string)
}
