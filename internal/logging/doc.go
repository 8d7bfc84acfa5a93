// Package logging provides types.Logger implementations.
//
// Adapters:
//   - NopLogger: discards everything (the engine default)
//   - SlogLogger: log/slog
//   - ZapLogger: go.uber.org/zap sugared logger
//   - TestLogger: routes output to testing.T
package logging
