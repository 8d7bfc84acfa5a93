package coalesce

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/arloliu/coalesce/internal/logging"
	"github.com/arloliu/coalesce/internal/metrics"
)

// NewSlogLogger adapts a *slog.Logger (slog.Default when nil) to Logger.
func NewSlogLogger(logger *slog.Logger) Logger {
	return logging.NewSlog(logger)
}

// NewZapLogger adapts a *zap.Logger (no-op when nil) to Logger.
func NewZapLogger(logger *zap.Logger) Logger {
	return logging.NewZap(logger)
}

// NewPrometheusMetrics creates a MetricsCollector backed by Prometheus.
//
// Collectors are registered lazily on first use.
//
// Parameters:
//   - reg: Registerer (prometheus.DefaultRegisterer when nil)
//   - namespace: Metric namespace ("coalesce" when empty)
//
// Returns:
//   - MetricsCollector: Collector to pass to WithMetrics
func NewPrometheusMetrics(reg prometheus.Registerer, namespace string) MetricsCollector {
	return metrics.NewPrometheus(reg, namespace)
}
