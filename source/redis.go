package source

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/redis/go-redis/v9"

	"github.com/arloliu/coalesce"
)

// RedisGetter is the subset of redis.Cmdable used by RedisGet.
type RedisGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisHashGetter is the subset of redis.Cmdable used by RedisHGetAll.
type RedisHashGetter interface {
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
}

// RedisGet creates an operation reading a Redis string key.
//
// Arguments: key (string). Response: the value (string).
//
// Parameters:
//   - name: Operation name
//   - client: Redis client (*redis.Client, *redis.ClusterClient, ...)
//
// Returns:
//   - *coalesce.Operation: Operation to subscribe to
//
// Example:
//
//	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	getQuota := source.RedisGet("quota", rdb)
//	sub, _ := mgr.Subscribe(getQuota, []any{"quota:tenant-7"}, coalesce.Options{Interval: 10 * time.Second})
func RedisGet(name string, client RedisGetter) *coalesce.Operation {
	return coalesce.Func1(name, func(ctx context.Context, key string) (string, error) {
		val, err := client.Get(ctx, key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return "", fmt.Errorf("%w: %s", ErrKeyNotFound, key)
			}

			return "", wrapRedisError("redis GET "+key+" failed", err)
		}

		return val, nil
	})
}

// RedisHGetAll creates an operation reading every field of a Redis hash.
//
// Arguments: key (string). Response: the fields (map[string]string).
// Redis reports a missing hash as empty, which is surfaced as ErrKeyNotFound.
//
// Parameters:
//   - name: Operation name
//   - client: Redis client
//
// Returns:
//   - *coalesce.Operation: Operation to subscribe to
func RedisHGetAll(name string, client RedisHashGetter) *coalesce.Operation {
	return coalesce.Func1(name, func(ctx context.Context, key string) (map[string]string, error) {
		fields, err := client.HGetAll(ctx, key).Result()
		if err != nil {
			return nil, wrapRedisError("redis HGETALL "+key+" failed", err)
		}
		if len(fields) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
		}

		return fields, nil
	})
}

// wrapRedisError tags network failures with ErrUnavailable.
func wrapRedisError(msg string, err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, redis.ErrClosed) {
		return fmt.Errorf("%s: %w: %w", msg, ErrUnavailable, err)
	}

	return fmt.Errorf("%s: %w", msg, err)
}
