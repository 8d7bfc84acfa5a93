// Package kvutil provides helpers for NATS JetStream KeyValue buckets backing coalesce sources.
package kvutil

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// DefaultAttempts is used by EnsureBucket when attempts is not positive.
const DefaultAttempts = 3

const baseBackoff = 10 * time.Millisecond

// EnsureBucket opens a KV bucket, creating it when it does not exist yet.
//
// Several processes may race to create the same bucket; losing the race
// (ErrBucketExists) falls back to opening it. Transient failures are retried
// with exponential backoff (10ms, 20ms, 40ms, ...).
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - js: JetStream handle
//   - cfg: Bucket configuration, used only when the bucket must be created
//   - attempts: Maximum number of attempts (DefaultAttempts when <= 0)
//
// Returns:
//   - jetstream.KeyValue: The bucket
//   - error: Last error once every attempt failed, or the context error
//
// Example:
//
//	kv, err := kvutil.EnsureBucket(ctx, js, jetstream.KeyValueConfig{
//	    Bucket:  "config",
//	    History: 1,
//	}, 0)
func EnsureBucket(
	ctx context.Context,
	js jetstream.KeyValueManager,
	cfg jetstream.KeyValueConfig,
	attempts int,
) (jetstream.KeyValue, error) {
	if attempts <= 0 {
		attempts = DefaultAttempts
	}

	var lastErr error

	for attempt := range attempts {
		kv, err := openOrCreate(ctx, js, cfg)
		if err == nil {
			return kv, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, fmt.Errorf("context cancelled while ensuring bucket %s: %w", cfg.Bucket, ctx.Err())
		}

		if attempt < attempts-1 {
			backoff := baseBackoff << uint(attempt) //nolint:gosec // attempt is small and non-negative
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return nil, fmt.Errorf("failed to ensure bucket %s after %d attempts: %w", cfg.Bucket, attempts, lastErr)
}

func openOrCreate(ctx context.Context, js jetstream.KeyValueManager, cfg jetstream.KeyValueConfig) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, cfg.Bucket)
	if err == nil {
		return kv, nil
	}
	if !errors.Is(err, jetstream.ErrBucketNotFound) {
		return nil, err
	}

	kv, err = js.CreateKeyValue(ctx, cfg)
	if err == nil {
		return kv, nil
	}
	if errors.Is(err, jetstream.ErrBucketExists) {
		return js.KeyValue(ctx, cfg.Bucket)
	}

	return nil, err
}

// Seed writes initial values into a bucket, skipping keys that already exist.
//
// Parameters:
//   - ctx: Context for cancellation
//   - kv: Target bucket
//   - values: Key to value map
//
// Returns:
//   - int: Number of keys written
//   - error: First failure other than an existing key
func Seed(ctx context.Context, kv jetstream.KeyValue, values map[string][]byte) (int, error) {
	written := 0
	for key, val := range values {
		_, err := kv.Create(ctx, key, val)
		if err != nil {
			if errors.Is(err, jetstream.ErrKeyExists) {
				continue
			}

			return written, fmt.Errorf("failed to seed %s/%s: %w", kv.Bucket(), key, err)
		}
		written++
	}

	return written, nil
}
