package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "catalog:name:"

// CachedSource remembers positive lookups of the wrapped source in Redis.
// Misses and errors are never cached, and a failing cache falls back to the
// wrapped source.
type CachedSource struct {
	next   Source
	client redis.Cmdable
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedSource(next Source, client redis.Cmdable, ttl time.Duration, logger *zap.Logger) *CachedSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedSource{next: next, client: client, ttl: ttl, logger: logger}
}

func (c *CachedSource) Name() string { return c.next.Name() }

func (c *CachedSource) Lookup(ctx context.Context, q Query) (string, error) {
	if q.empty() {
		return "", nil
	}
	key := cacheKey(c.next.Name(), q)

	name, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil && name != "":
		return name, nil
	case err != nil && !errors.Is(err, redis.Nil):
		c.logger.Warn("catalog cache read failed", zap.String("key", key), zap.Error(err))
	}

	name, err = c.next.Lookup(ctx, q)
	if err != nil || name == "" {
		return name, err
	}
	if err := c.client.Set(ctx, key, name, c.ttl).Err(); err != nil {
		c.logger.Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
	return name, nil
}

func cacheKey(source string, q Query) string {
	return cacheKeyPrefix + source + ":" + q.SKU + ":" + q.ProductID
}

var _ Source = (*CachedSource)(nil)
