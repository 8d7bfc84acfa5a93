// Package source provides ready-made operations backed by common data stores.
//
// Each constructor returns a *coalesce.Operation to pass to Manager.Subscribe.
// Create them once and reuse the pointer: channels are keyed by operation
// identity.
//
//   - Static: Fixed value, useful for tests and defaults
//   - NATSKV: Value of a NATS JetStream KV key
//   - NATSRequest: Reply to a NATS request
//   - RedisGet: Redis string value
//   - RedisHGetAll: Redis hash
//
// A missing key fails with ErrKeyNotFound and an unreachable backend with
// ErrUnavailable; either becomes the error state of the channel.
//
// WatchKV turns NATS KV updates into immediate refreshes, so subscriptions
// backed by NATSKV can poll slowly and still react to writes.
package source
