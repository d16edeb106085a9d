// Package ratelimit implements a fixed-window request limiter.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"bhesbhusa/internal/config"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter decides whether a caller identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// incrWithTTL increments the window counter and sets its expiry on first use.
var incrWithTTL = goredis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("PTTL", KEYS[1])}
`)

type redisLimiter struct {
	client goredis.Scripter
	limit  int
	window time.Duration
	prefix string
}

// NewRedisLimiter allows limit requests per key in each window.
func NewRedisLimiter(client goredis.Scripter, limit int, window time.Duration) Limiter {
	return &redisLimiter{client: client, limit: limit, window: window, prefix: "ratelimit:"}
}

func (l *redisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	windowStart := time.Now().UnixMilli() / l.window.Milliseconds()
	redisKey := fmt.Sprintf("%s%s:%d", l.prefix, key, windowStart)

	res, err := incrWithTTL.Run(ctx, l.client, []string{redisKey}, l.window.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{Allowed: true, Limit: l.limit, Remaining: l.limit}, fmt.Errorf("rate limit check failed: %w", err)
	}

	count, ttl := int(res[0]), time.Duration(res[1])*time.Millisecond
	if ttl < 0 {
		ttl = l.window
	}

	d := Decision{Limit: l.limit, Remaining: l.limit - count}
	if d.Remaining < 0 {
		d.Remaining = 0
	}
	if count > l.limit {
		d.RetryAfter = ttl
		return d, nil
	}
	d.Allowed = true
	return d, nil
}

// noopLimiter allows every request.
type noopLimiter struct{}

func (noopLimiter) Allow(context.Context, string) (Decision, error) {
	return Decision{Allowed: true}, nil
}

// New returns a Redis-backed limiter when enabled, otherwise one that allows everything.
// The returned close function releases the Redis client.
func New(ctx context.Context, cfg config.RateLimitConfig, logger zerolog.Logger) (Limiter, func() error, error) {
	logger = logger.With().Str("component", "ratelimit").Logger()

	if !cfg.Enabled {
		logger.Info().Msg("rate limiting disabled")
		return noopLimiter{}, func() error { return nil }, nil
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}

	logger.Info().
		Str("addr", cfg.RedisAddr).
		Int("requests", cfg.Requests).
		Dur("window", cfg.Window).
		Msg("redis rate limiter connected")

	return NewRedisLimiter(client, cfg.Requests, cfg.Window), client.Close, nil
}
