package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/arloliu/coalesce"
	"github.com/arloliu/coalesce/internal/natsutil"
)

// NATSKV creates an operation reading a key from a JetStream KV bucket.
//
// Arguments: key (string). Response: the value ([]byte).
//
// Parameters:
//   - name: Operation name
//   - kv: KV bucket handle
//
// Returns:
//   - *coalesce.Operation: Operation to subscribe to
//
// Example:
//
//	kv, _ := js.KeyValue(ctx, "config")
//	getConfig := source.NATSKV("config", kv)
//	sub, _ := mgr.Subscribe(getConfig, []any{"service.limits"}, coalesce.Options{Interval: 30 * time.Second})
func NATSKV(name string, kv jetstream.KeyValue) *coalesce.Operation {
	return coalesce.Func1(name, func(ctx context.Context, key string) ([]byte, error) {
		entry, err := kv.Get(ctx, key)
		if err != nil {
			if errors.Is(err, jetstream.ErrKeyNotFound) {
				return nil, fmt.Errorf("%w: %s/%s", ErrKeyNotFound, kv.Bucket(), key)
			}

			return nil, wrapNATSError(fmt.Sprintf("failed to get %s/%s", kv.Bucket(), key), err)
		}

		return entry.Value(), nil
	})
}

// NATSRequest creates an operation performing a NATS request/reply call.
//
// Arguments: subject (string), payload ([]byte, may be nil). Response: the reply data ([]byte).
// The request is bounded by the operation context, so configure
// Config.OperationTimeout when responders may be absent.
//
// Parameters:
//   - name: Operation name
//   - nc: NATS connection
//
// Returns:
//   - *coalesce.Operation: Operation to subscribe to
func NATSRequest(name string, nc *nats.Conn) *coalesce.Operation {
	return coalesce.Func2(name, func(ctx context.Context, subject string, payload []byte) ([]byte, error) {
		msg, err := nc.RequestWithContext(ctx, subject, payload)
		if err != nil {
			return nil, wrapNATSError("request "+subject+" failed", err)
		}

		return msg.Data, nil
	})
}

// Refresher is implemented by *coalesce.Subscription.
type Refresher interface {
	Refresh()
}

// WatchKV refreshes subscriptions whenever keys matching a pattern change in a KV bucket.
//
// It blocks until ctx is cancelled or the watcher fails. The initial values
// replayed by the watcher are skipped; only later updates and deletes trigger
// a refresh.
//
// Parameters:
//   - ctx: Context controlling the watch lifetime
//   - kv: KV bucket to watch
//   - keys: Key or wildcard pattern (for example "service.>")
//   - targets: Subscriptions to refresh on change
//
// Returns:
//   - error: nil when ctx is cancelled, otherwise the watch error
//
// Example:
//
//	go func() {
//	    _ = source.WatchKV(ctx, kv, "service.limits", sub)
//	}()
func WatchKV(ctx context.Context, kv jetstream.KeyValue, keys string, targets ...Refresher) error {
	watcher, err := kv.Watch(ctx, keys, jetstream.UpdatesOnly())
	if err != nil {
		return fmt.Errorf("failed to watch %s/%s: %w", kv.Bucket(), keys, err)
	}
	defer func() { _ = watcher.Stop() }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case entry, ok := <-watcher.Updates():
			if !ok {
				return nil
			}
			if entry == nil {
				continue
			}

			for _, t := range targets {
				t.Refresh()
			}
		}
	}
}

// wrapNATSError tags connectivity failures with ErrUnavailable.
func wrapNATSError(msg string, err error) error {
	if natsutil.IsConnectivityError(err) {
		return fmt.Errorf("%s: %w: %w", msg, ErrUnavailable, err)
	}

	return fmt.Errorf("%s: %w", msg, err)
}
