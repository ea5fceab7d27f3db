package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/haguru/notedly/internal/interfaces"
)

const (
	redisKeyPrefix     = "notedly:ratelimit:"
	redisPingTimeout   = 2 * time.Second
	redisAllowTimeout  = 250 * time.Millisecond
	defaultRedisWindow = time.Minute
)

// RedisRateLimiter counts requests per client in fixed windows shared by all
// instances. Redis failures let the request through.
type RedisRateLimiter struct {
	client  redis.Cmdable
	closer  func() error
	logger  interfaces.Logger
	limit   int
	window  time.Duration
	timeout time.Duration
}

// NewRedisRateLimiter connects to addr and allows limit requests per window.
func NewRedisRateLimiter(addr, password string, db, limit int, window time.Duration, logger interfaces.Logger) (*RedisRateLimiter, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}

	rl := newRedisRateLimiter(client, limit, window, logger)
	rl.closer = client.Close
	return rl, nil
}

func newRedisRateLimiter(client redis.Cmdable, limit int, window time.Duration, logger interfaces.Logger) *RedisRateLimiter {
	if window <= 0 {
		window = defaultRedisWindow
	}
	return &RedisRateLimiter{
		client:  client,
		logger:  logger,
		limit:   limit,
		window:  window,
		timeout: redisAllowTimeout,
	}
}

func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) bool {
	if rl.limit <= 0 {
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, rl.timeout)
	defer cancel()

	redisKey := redisKeyPrefix + key
	counter, err := rl.client.Incr(ctx, redisKey).Result()
	if err != nil {
		rl.logger.Error("redis rate limiter error", "op", "incr", "error", err)
		return true
	}
	allowed := counter <= int64(rl.limit)
	switch {
	case counter == 1:
		rl.expire(ctx, redisKey)
	case !allowed:
		// A lost EXPIRE leaves a counter that never resets.
		ttl, err := rl.client.TTL(ctx, redisKey).Result()
		if err != nil {
			rl.logger.Error("redis rate limiter error", "op", "ttl", "error", err)
		} else if ttl < 0 {
			rl.logger.Warn("redis rate limiter key had no expiry", "key", redisKey)
			rl.expire(ctx, redisKey)
		}
	}
	return allowed
}

func (rl *RedisRateLimiter) expire(ctx context.Context, redisKey string) {
	if err := rl.client.Expire(ctx, redisKey, rl.window).Err(); err != nil {
		rl.logger.Error("redis rate limiter error", "op", "expire", "error", err)
	}
}

func (rl *RedisRateLimiter) Close() error {
	if rl.closer == nil {
		return nil
	}
	return rl.closer()
}
