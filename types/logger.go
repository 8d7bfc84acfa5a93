package types

// Logger defines methods for structured logging.
//
// All methods accept a message followed by alternating key-value pairs. The
// internal/logging package ships adapters for log/slog and zap, a no-op logger
// used by default, and a logger writing to testing.T.
type Logger interface {
	// Debug logs a message at DebugLevel.
	Debug(msg string, keysAndValues ...any)

	// Info logs a message at InfoLevel.
	Info(msg string, keysAndValues ...any)

	// Warn logs a message at WarnLevel.
	Warn(msg string, keysAndValues ...any)

	// Error logs a message at ErrorLevel.
	Error(msg string, keysAndValues ...any)

	// Fatal logs a message at FatalLevel and terminates the process.
	//
	// The engine itself never calls Fatal; it exists for parity with common loggers
	// so applications can share one logger value.
	Fatal(msg string, keysAndValues ...any)
}
