package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"listmgmt/internal/lists/models"
)

var (
	redisOpDurationMs = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "listmgmt_cache_redis_op_duration_ms",
		Help:    "Latency of lookaside cache operations in milliseconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 100},
	}, []string{"op"})
)

const (
	presentMarker   = "1"
	tombstoneMarker = "0"

	// deleteBatchSize bounds the number of keys per DEL round-trip.
	deleteBatchSize = 500
)

// claimScript sets the present marker unless the key already holds one.
// A tombstone counts as absent. Returns 1 when this call set the marker.
var claimScript = redis.NewScript(`
local v = redis.call('GET', KEYS[1])
if v and v ~= ARGV[2] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[1])
return 1
`)

// RedisCache is the shared lookaside cache. Every primitive is a single
// atomic Redis command or script, so concurrent engines on many hosts agree
// on who claimed a key.
type RedisCache struct {
	client       redis.UniversalClient
	tombstoneTTL time.Duration
}

// RedisOption configures a RedisCache.
type RedisOption func(*RedisCache)

// WithTombstoneTTL sets how long removal markers live. Zero keeps them
// until explicitly overwritten.
func WithTombstoneTTL(ttl time.Duration) RedisOption {
	return func(c *RedisCache) {
		c.tombstoneTTL = ttl
	}
}

// NewRedis constructs a Redis-backed cache. The client lifecycle is owned
// by the caller.
func NewRedis(client redis.UniversalClient, opts ...RedisOption) *RedisCache {
	c := &RedisCache{client: client, tombstoneTTL: DefaultTombstoneTTL}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func (c *RedisCache) Lookup(ctx context.Context, key string) (models.CacheState, error) {
	defer observe("lookup", time.Now())
	v, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return models.CacheMiss, nil
	}
	if err != nil {
		return models.CacheMiss, fmt.Errorf("redis get %s: %w", key, err)
	}
	return stateOf(v), nil
}

func (c *RedisCache) Claim(ctx context.Context, key string) (bool, error) {
	defer observe("claim", time.Now())
	n, err := claimScript.Run(ctx, c.client, []string{key}, presentMarker, tombstoneMarker).Int()
	if err != nil {
		return false, fmt.Errorf("redis claim %s: %w", key, err)
	}
	return n == 1, nil
}

func (c *RedisCache) Backfill(ctx context.Context, key string) error {
	defer observe("backfill", time.Now())
	if err := c.client.SetNX(ctx, key, presentMarker, 0).Err(); err != nil {
		return fmt.Errorf("redis setnx %s: %w", key, err)
	}
	return nil
}

// Tombstone swaps the key to a removal marker with SET ... GET and returns
// the state it held before.
func (c *RedisCache) Tombstone(ctx context.Context, key string) (models.CacheState, error) {
	defer observe("tombstone", time.Now())
	prev, err := c.client.SetArgs(ctx, key, tombstoneMarker, redis.SetArgs{
		TTL: c.tombstoneTTL,
		Get: true,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return models.CacheMiss, nil
	}
	if err != nil {
		return models.CacheMiss, fmt.Errorf("redis tombstone %s: %w", key, err)
	}
	return stateOf(prev), nil
}

func (c *RedisCache) Restore(ctx context.Context, key string) error {
	defer observe("restore", time.Now())
	if err := c.client.Set(ctx, key, presentMarker, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes keys in batches using a pipeline.
func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	defer observe("delete", time.Now())
	pipe := c.client.Pipeline()
	for start := 0; start < len(keys); start += deleteBatchSize {
		end := min(start+deleteBatchSize, len(keys))
		pipe.Del(ctx, keys[start:end]...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Health pings the server.
func (c *RedisCache) Health(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// stateOf maps a stored marker to a state. Any non-tombstone value counts as
// present so markers written by older deployments stay meaningful.
func stateOf(v string) models.CacheState {
	if v == tombstoneMarker {
		return models.CacheTombstone
	}
	return models.CachePresent
}

func observe(op string, start time.Time) {
	redisOpDurationMs.WithLabelValues(op).Observe(float64(time.Since(start).Microseconds()) / 1000.0)
}
