package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const scanBatch = 200

type RedisConfig struct {
	URL          string
	PingInterval time.Duration
}

// RedisClient tracks connectivity so callers can skip the cache without
// paying a network timeout on every request.
type RedisClient struct {
	rdb       *redis.Client
	log       *zap.Logger
	connected atomic.Bool
}

func NewRedisClient(ctx context.Context, cfg RedisConfig, log *zap.Logger) (*RedisClient, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	c := &RedisClient{rdb: redis.NewClient(opts), log: log}
	if err := c.Ping(ctx); err != nil {
		log.Warn("redis unavailable at startup, serving from store", zap.Error(err))
	}
	return c, nil
}

func (c *RedisClient) IsConnected() bool { return c.connected.Load() }

func (c *RedisClient) Ping(ctx context.Context) error {
	err := c.rdb.Ping(ctx).Err()
	c.setConnected(err == nil)
	return err
}

// Watch pings on every interval until ctx is done.
func (c *RedisClient) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			pctx, cancel := context.WithTimeout(ctx, interval)
			_ = c.Ping(pctx)
			cancel()
		}
	}
}

func (c *RedisClient) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		c.fail(err)
		return nil, false, err
	}
	return b, true, nil
}

func (c *RedisClient) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		c.fail(err)
		return err
	}
	return nil
}

func (c *RedisClient) Delete(ctx context.Context, keyOrPattern string) error {
	if !strings.Contains(keyOrPattern, "*") {
		if err := c.rdb.Del(ctx, keyOrPattern).Err(); err != nil {
			c.fail(err)
			return err
		}
		return nil
	}

	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, keyOrPattern, scanBatch).Result()
		if err != nil {
			c.fail(err)
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				c.fail(err)
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (c *RedisClient) Close() error { return c.rdb.Close() }

func (c *RedisClient) fail(err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return
	}
	c.setConnected(false)
}

func (c *RedisClient) setConnected(ok bool) {
	if prev := c.connected.Swap(ok); prev != ok {
		c.log.Info("redis connectivity changed", zap.Bool("connected", ok))
	}
}
