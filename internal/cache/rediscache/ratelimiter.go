package rediscache

import (
	"context"
	"time"

	"github.com/BearBump/GLExpress/internal/cache"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// TTL ставится только на первом INCR окна, иначе постоянный поток запросов
// продлевал бы окно бесконечно.
var fixedWindow = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return {n, redis.call('PTTL', KEYS[1])}
`)

// RateLimiter: счётчик фиксированного окна в Redis.
type RateLimiter struct {
	c *redis.Client
}

func NewRateLimiter(addr string) *RateLimiter {
	return &RateLimiter{
		c: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

func (rl *RateLimiter) Allow(ctx context.Context, key string, limit int64, window time.Duration) (cache.RateDecision, error) {
	if window <= 0 {
		return cache.RateDecision{}, errors.Errorf("rate limit window must be positive, got %s", window)
	}
	res, err := fixedWindow.Run(ctx, rl.c, []string{KeyPrefix + key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return cache.RateDecision{}, errors.Wrapf(err, "redis ratelimit %s", key)
	}
	if len(res) != 2 {
		return cache.RateDecision{}, errors.Errorf("redis ratelimit %s: unexpected reply %v", key, res)
	}

	n, ttl := res[0], time.Duration(res[1])*time.Millisecond
	if ttl < 0 {
		ttl = window
	}
	return cache.RateDecision{Allowed: n <= limit, Count: n, RetryAfter: ttl}, nil
}

func (rl *RateLimiter) Close() error {
	return rl.c.Close()
}
