package usage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisKeyTTL bounds the lifetime of counter keys. Daily counters are only
// ever read on the day they are written, so anything beyond 48h is garbage;
// the TTL replaces explicit compaction for this backend.
const redisKeyTTL = 48 * time.Hour

// RedisStore is a CounterStore backed by Redis. Increments use INCR and are
// atomic across processes, unlike the in-memory store.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a CounterStore over the given Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

var _ CounterStore = (*RedisStore)(nil)

// Read returns the count for the key, or 0 if absent.
func (r *RedisStore) Read(ctx context.Context, key string) (int, error) {
	n, err := r.client.Get(ctx, key).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return n, nil
}

// Increment atomically adds one to the key's count and returns the new value.
// The TTL is set only when the key is first created.
func (r *RedisStore) Increment(ctx context.Context, key string) (int, error) {
	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, redisKeyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return int(incr.Val()), nil
}

// Delete removes the given keys.
func (r *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

// PruneBefore is a no-op for Redis: key TTLs already bound growth.
func (r *RedisStore) PruneBefore(_ context.Context, _ string) (int, error) {
	return 0, nil
}
