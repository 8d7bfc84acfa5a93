package types

import "errors"

// Sentinel errors for the coalesce library.
//
// These errors provide type-safe error checking using errors.Is() and errors.As().
// Components wrap them with context using fmt.Errorf("%s: %w", msg, err).
//
// Two families exist and are never mixed:
//   - Misuse errors are returned synchronously by public entry points
//   - Operation errors are never returned; they are captured into channel state
//     and observed through Subscription.Err()

// Manager errors - misuse detected by the public API.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNilOperation is returned when Subscribe is called without an operation.
	ErrNilOperation = errors.New("operation is required")

	// ErrInvalidInterval is returned when a subscription requests a negative interval.
	ErrInvalidInterval = errors.New("invalid refresh interval")

	// ErrManagerClosed is returned when Subscribe is called after Close.
	ErrManagerClosed = errors.New("manager closed")

	// ErrNilSubscription is returned when Resubscribe is called without a subscription.
	ErrNilSubscription = errors.New("subscription is required")
)

// Signature errors - argument encoding failures.
var (
	// ErrUnencodableArgs is returned when operation arguments cannot be serialized
	// into a signature (for example channels or functions).
	ErrUnencodableArgs = errors.New("arguments cannot be encoded")

	// ErrUnknownEncoding is returned when a signature encoding name is not supported.
	ErrUnknownEncoding = errors.New("unknown signature encoding")
)

// Operation errors - captured into channel state, never returned by the API.
var (
	// ErrOperationPanicked wraps a value recovered from a panicking operation.
	ErrOperationPanicked = errors.New("operation panicked")

	// ErrArgumentMismatch is captured when a typed operation receives arguments
	// of the wrong count or type.
	ErrArgumentMismatch = errors.New("operation argument mismatch")
)
