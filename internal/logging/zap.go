package logging

import (
	"go.uber.org/zap"

	"github.com/arloliu/coalesce/types"
)

// ZapLogger implements types.Logger on top of a zap.SugaredLogger.
//
// Messages go through the sugared "w" methods (Debugw, Infow, ...) so key-value
// pairs become structured zap fields.
type ZapLogger struct {
	logger *zap.SugaredLogger
}

var _ types.Logger = (*ZapLogger)(nil)

// NewZap wraps a zap logger.
//
// Parameters:
//   - logger: Base zap logger (zap.NewNop() when nil)
//
// Returns:
//   - *ZapLogger: Logger forwarding to the sugared form of logger
//
// Example:
//
//	base, _ := zap.NewProduction()
//	defer base.Sync()
//	mgr, _ := coalesce.NewManager(&cfg, coalesce.WithLogger(logging.NewZap(base)))
func NewZap(logger *zap.Logger) *ZapLogger {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ZapLogger{logger: logger.Sugar()}
}

// Debug logs a debug-level message with optional key-value pairs.
func (l *ZapLogger) Debug(msg string, keysAndValues ...any) {
	l.logger.Debugw(msg, keysAndValues...)
}

// Info logs an info-level message with optional key-value pairs.
func (l *ZapLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Infow(msg, keysAndValues...)
}

// Warn logs a warning-level message with optional key-value pairs.
func (l *ZapLogger) Warn(msg string, keysAndValues ...any) {
	l.logger.Warnw(msg, keysAndValues...)
}

// Error logs an error-level message with optional key-value pairs.
func (l *ZapLogger) Error(msg string, keysAndValues ...any) {
	l.logger.Errorw(msg, keysAndValues...)
}

// Fatal logs a fatal-level message; zap exits the process afterwards.
func (l *ZapLogger) Fatal(msg string, keysAndValues ...any) {
	l.logger.Fatalw(msg, keysAndValues...)
}
