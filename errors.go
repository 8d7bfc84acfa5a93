package coalesce

import "github.com/arloliu/coalesce/types"

// Sentinel errors re-exported from the types package.
//
// Misuse errors are returned synchronously by the Manager. Operation errors are
// never returned; they are captured into channel state and read via Subscription.Err.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = types.ErrInvalidConfig

	// ErrNilOperation is returned when Subscribe is called without an operation.
	ErrNilOperation = types.ErrNilOperation

	// ErrInvalidInterval is returned when a subscription requests a negative interval.
	ErrInvalidInterval = types.ErrInvalidInterval

	// ErrManagerClosed is returned when Subscribe is called after Close.
	ErrManagerClosed = types.ErrManagerClosed

	// ErrNilSubscription is returned when Resubscribe is called without a subscription.
	ErrNilSubscription = types.ErrNilSubscription

	// ErrUnencodableArgs is returned when arguments cannot be encoded into a signature.
	ErrUnencodableArgs = types.ErrUnencodableArgs

	// ErrUnknownEncoding is returned for an unsupported signature encoding.
	ErrUnknownEncoding = types.ErrUnknownEncoding

	// ErrOperationPanicked is captured when an operation panics.
	ErrOperationPanicked = types.ErrOperationPanicked

	// ErrArgumentMismatch is captured when a typed operation receives wrong arguments.
	ErrArgumentMismatch = types.ErrArgumentMismatch
)
