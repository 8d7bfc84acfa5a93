package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/arloliu/coalesce/types"
)

// PrometheusCollector implements types.MetricsCollector backed by Prometheus.
//
// Collectors are created and registered lazily on first use, so constructing a
// PrometheusCollector never panics on duplicate registration until it is
// actually exercised.
type PrometheusCollector struct {
	*NopMetrics

	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	activeChannels      prometheus.Gauge
	activeSubscriptions prometheus.Gauge
	eventsDropped       prometheus.Counter
	executions          *prometheus.CounterVec
	executionDuration   *prometheus.HistogramVec
	refreshes           *prometheus.CounterVec
	discardedResults    *prometheus.CounterVec
}

var _ types.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheus creates a new Prometheus-backed metrics collector.
//
// Parameters:
//   - reg: Prometheus registerer interface (uses prometheus.DefaultRegisterer if nil)
//   - namespace: Prometheus metrics namespace (defaults to "coalesce" if empty)
//
// Returns:
//   - *PrometheusCollector: A MetricsCollector implementation using Prometheus
//
// Example:
//
//	reg := prometheus.NewRegistry()
//	mgr, _ := coalesce.NewManager(&cfg, coalesce.WithMetrics(metrics.NewPrometheus(reg, "")))
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "coalesce"
	}

	return &PrometheusCollector{NopMetrics: NewNop(), reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.activeChannels = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "manager",
			Name:      "channels_active",
			Help:      "Current number of live deduplicated channels.",
		})

		p.activeSubscriptions = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "manager",
			Name:      "subscriptions_active",
			Help:      "Current number of live subscriptions across all channels.",
		})

		p.eventsDropped = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "manager",
			Name:      "sink_events_dropped_total",
			Help:      "Observability events dropped because the dispatch queue was full.",
		})

		p.executions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "channel",
			Name:      "executions_total",
			Help:      "Completed operation executions by operation and result (success, failure).",
		}, []string{"operation", "result"})

		p.executionDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "channel",
			Name:      "execution_duration_seconds",
			Help:      "Latency of operation executions in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms .. ~10s
		}, []string{"operation"})

		p.refreshes = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "channel",
			Name:      "refreshes_total",
			Help:      "Executions started by the refresh timer.",
		}, []string{"operation"})

		p.discardedResults = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "channel",
			Name:      "discarded_results_total",
			Help:      "Results that arrived after their channel was removed.",
		}, []string{"operation"})

		p.reg.MustRegister(p.activeChannels)
		p.reg.MustRegister(p.activeSubscriptions)
		p.reg.MustRegister(p.eventsDropped)
		p.reg.MustRegister(p.executions)
		p.reg.MustRegister(p.executionDuration)
		p.reg.MustRegister(p.refreshes)
		p.reg.MustRegister(p.discardedResults)
	})
}

// ManagerMetrics implementation

// SetActiveChannels sets the live channel gauge.
func (p *PrometheusCollector) SetActiveChannels(count int) {
	p.ensureRegistered()
	p.activeChannels.Set(float64(count))
}

// SetActiveSubscriptions sets the live subscription gauge.
func (p *PrometheusCollector) SetActiveSubscriptions(count int) {
	p.ensureRegistered()
	p.activeSubscriptions.Set(float64(count))
}

// RecordEventDropped increments the dropped sink event counter.
func (p *PrometheusCollector) RecordEventDropped() {
	p.ensureRegistered()
	p.eventsDropped.Inc()
}

// ChannelMetrics implementation

// RecordExecution counts the execution and observes its latency.
func (p *PrometheusCollector) RecordExecution(operation string, duration float64, success bool) {
	p.ensureRegistered()

	result := "success"
	if !success {
		result = "failure"
	}
	p.executions.WithLabelValues(operation, result).Inc()
	p.executionDuration.WithLabelValues(operation).Observe(duration)
}

// RecordRefresh counts a timer-driven execution.
func (p *PrometheusCollector) RecordRefresh(operation string) {
	p.ensureRegistered()
	p.refreshes.WithLabelValues(operation).Inc()
}

// RecordDiscardedResult counts a result that arrived after teardown.
func (p *PrometheusCollector) RecordDiscardedResult(operation string) {
	p.ensureRegistered()
	p.discardedResults.WithLabelValues(operation).Inc()
}
