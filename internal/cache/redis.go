package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/qlp-hq/production-scheduler/internal/logger"
)

// RedisCache is the Cache backend for a multi-worker deployment: every
// optimizer worker process shares the same memoized critical-path
// remainders for a given input graph.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to addr. Unlike the run store, a failed ping
// here is returned to the caller: callers are expected to fall back to
// NewMemoryCache themselves rather than silently degrading inside this
// constructor (this cache's whole purpose is cross-process sharing, so
// a caller that asked for Redis specifically needs to know it didn't
// get it).
func NewRedisCache(ctx context.Context, addr string) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	logger.Logger.Info("connected to cache backend", zap.String("addr", addr))
	return &RedisCache{client: client}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

var _ Cache = (*RedisCache)(nil)
