// Package cache provides the Redis-backed verification cache. Public
// certificate verification is the one read-heavy endpoint of the system, so
// lookups are served from Redis with a short TTL and fall back to the store
// on any miss or cache failure.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"certo/internal/certification/service"
)

const (
	// Redis key prefix for cached verification results.
	verificationKeyPrefix = "cert:verify:"

	// DefaultTTL keeps entries short-lived; correctness never depends on
	// invalidation because validity is recomputed against the clock on
	// every hit.
	DefaultTTL = 5 * time.Minute
)

// RedisCache implements service.VerificationCache over go-redis. Cache
// failures degrade to store lookups and are logged at debug level; the
// verification endpoint must keep answering when Redis is down.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// Option configures a RedisCache.
type Option func(*RedisCache)

func WithTTL(ttl time.Duration) Option {
	return func(c *RedisCache) { c.ttl = ttl }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *RedisCache) { c.logger = logger }
}

// NewRedis constructs the verification cache.
func NewRedis(client *redis.Client, opts ...Option) *RedisCache {
	c := &RedisCache{
		client: client,
		ttl:    DefaultTTL,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RedisCache) Get(ctx context.Context, folio string) (*service.VerificationResult, bool) {
	raw, err := c.client.Get(ctx, verificationKeyPrefix+folio).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.DebugContext(ctx, "verification cache read failed", "folio", folio, "error", err)
		}
		return nil, false
	}
	var result service.VerificationResult
	if err := json.Unmarshal(raw, &result); err != nil {
		// A corrupt entry is dropped so the next lookup repopulates it.
		c.client.Del(ctx, verificationKeyPrefix+folio)
		return nil, false
	}
	return &result, true
}

func (c *RedisCache) Set(ctx context.Context, folio string, result *service.VerificationResult) {
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, verificationKeyPrefix+folio, raw, c.ttl).Err(); err != nil {
		c.logger.DebugContext(ctx, "verification cache write failed", "folio", folio, "error", err)
	}
}

func (c *RedisCache) Invalidate(ctx context.Context, folio string) {
	if err := c.client.Del(ctx, verificationKeyPrefix+folio).Err(); err != nil {
		c.logger.DebugContext(ctx, "verification cache invalidation failed", "folio", folio, "error", err)
	}
}
