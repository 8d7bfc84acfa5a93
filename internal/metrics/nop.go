// Package metrics provides types.MetricsCollector implementations.
package metrics

import "github.com/arloliu/coalesce/types"

// NopMetrics implements a no-op metrics collector.
//
// All metrics are discarded. It is the default collector and the embedded base of
// PrometheusCollector.
type NopMetrics struct{}

var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNop creates a new no-op metrics collector.
//
// Returns:
//   - *NopMetrics: A new no-op metrics collector instance
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// ManagerMetrics implementation

// SetActiveChannels discards the active channel gauge.
func (n *NopMetrics) SetActiveChannels(_ /* count */ int) {
	// No-op
}

// SetActiveSubscriptions discards the active subscription gauge.
func (n *NopMetrics) SetActiveSubscriptions(_ /* count */ int) {
	// No-op
}

// RecordEventDropped discards the dropped event counter.
func (n *NopMetrics) RecordEventDropped() {
	// No-op
}

// ChannelMetrics implementation

// RecordExecution discards the execution metric.
func (n *NopMetrics) RecordExecution(_ /* operation */ string, _ /* duration */ float64, _ /* success */ bool) {
	// No-op
}

// RecordRefresh discards the refresh counter.
func (n *NopMetrics) RecordRefresh(_ /* operation */ string) {
	// No-op
}

// RecordDiscardedResult discards the late result counter.
func (n *NopMetrics) RecordDiscardedResult(_ /* operation */ string) {
	// No-op
}
