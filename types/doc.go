// Package types defines the shared types and interfaces of the coalesce library.
//
// The root package re-exports everything defined here through type aliases, so most
// callers never import this package directly. Internal packages (events dispatching,
// metrics, logging) depend on types instead of the root package to avoid import cycles.
//
// Contents:
//   - ChannelState: lifecycle state of a deduplicated channel
//   - Sink, SinkFuncs, Field: observability call-outs for channel lifecycle and state changes
//   - MetricsCollector: operational metrics recorded by the engine
//   - Logger: structured logging interface
//   - ChannelInfo, ChannelSnapshot: read-only views used by sinks and inspectors
//   - Sentinel errors for misuse detection
package types
