package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateDecision is the outcome of one Allow call.
type RateDecision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// RateLimiter counts hits per key in fixed windows shared by every API instance.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (RateDecision, error)
}

type redisRateLimiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

func NewRedisRateLimiter(client *redis.Client, prefix string, limit int, window time.Duration) RateLimiter {
	return &redisRateLimiter{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
	}
}

// INCR and set the expiry on the first hit of a window in one round trip.
var incrWindowScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {n, redis.call("PTTL", KEYS[1])}
`)

func (l *redisRateLimiter) Allow(ctx context.Context, key string) (RateDecision, error) {
	redisKey := fmt.Sprintf("ratelimit:%s:%s", l.prefix, key)

	res, err := incrWindowScript.Run(ctx, l.client, []string{redisKey}, l.window.Milliseconds()).Int64Slice()
	if err != nil {
		return RateDecision{}, fmt.Errorf("rate limit incr: %w", err)
	}
	if len(res) != 2 {
		return RateDecision{}, fmt.Errorf("rate limit incr: unexpected reply %v", res)
	}

	count, ttl := int(res[0]), time.Duration(res[1])*time.Millisecond
	if ttl < 0 {
		ttl = l.window
	}

	if count > l.limit {
		return RateDecision{Allowed: false, Remaining: 0, RetryAfter: ttl}, nil
	}
	return RateDecision{Allowed: true, Remaining: l.limit - count}, nil
}
