package coalesce

import (
	"github.com/arloliu/coalesce/internal/clock"
	"github.com/arloliu/coalesce/signature"
)

// Option configures a Manager with optional dependencies.
type Option func(*managerOptions)

// managerOptions holds optional Manager configuration.
type managerOptions struct {
	logger    Logger
	metrics   MetricsCollector
	sink      Sink
	generator *signature.Generator
	registry  *signature.Registry
	clock     clock.Clock
}

// WithLogger sets a logger.
//
// Parameters:
//   - logger: Logger implementation
//
// Returns:
//   - Option: Functional option for NewManager
//
// Example:
//
//	logger := coalesce.NewSlogLogger(slog.Default())
//	mgr, _ := coalesce.NewManager(&cfg, coalesce.WithLogger(logger))
func WithLogger(logger Logger) Option {
	return func(o *managerOptions) {
		o.logger = logger
	}
}

// WithMetrics sets a metrics collector.
//
// Parameters:
//   - metrics: MetricsCollector implementation
//
// Returns:
//   - Option: Functional option for NewManager
//
// Example:
//
//	collector := coalesce.NewPrometheusMetrics(prometheus.DefaultRegisterer, "")
//	mgr, _ := coalesce.NewManager(&cfg, coalesce.WithMetrics(collector))
func WithMetrics(metrics MetricsCollector) Option {
	return func(o *managerOptions) {
		o.metrics = metrics
	}
}

// WithSink sets the observability sink.
//
// The sink receives channel and subscription lifecycle notifications
// asynchronously. It never affects engine behavior.
//
// Parameters:
//   - sink: Sink implementation (see SinkFuncs for a callback adapter)
//
// Returns:
//   - Option: Functional option for NewManager
func WithSink(sink Sink) Option {
	return func(o *managerOptions) {
		o.sink = sink
	}
}

// WithSignatureGenerator overrides the generator built from Config.Signature.
//
// Parameters:
//   - gen: Preconfigured signature generator
//
// Returns:
//   - Option: Functional option for NewManager
func WithSignatureGenerator(gen *signature.Generator) Option {
	return func(o *managerOptions) {
		o.generator = gen
	}
}

// WithRegistry sets the operation id registry used for signatures.
//
// Defaults to signature.DefaultRegistry. Tests inject a fresh registry to keep
// operation ids independent between test cases. Ignored when
// WithSignatureGenerator is also given.
//
// Parameters:
//   - reg: Operation id registry
//
// Returns:
//   - Option: Functional option for NewManager
func WithRegistry(reg *signature.Registry) Option {
	return func(o *managerOptions) {
		o.registry = reg
	}
}

func withClock(c clock.Clock) Option {
	return func(o *managerOptions) {
		o.clock = c
	}
}
