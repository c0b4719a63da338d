// Package ratelimit caps how many generations a session may request per window.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"ghostwriter-workers/internal/common/clock"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "ghostwriter:ratelimit:"

	DefaultMaxRequests = 5
	DefaultWindow      = 15 * time.Minute
)

type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter is a sliding-window limiter backed by one redis sorted set per key,
// scored by request time in milliseconds.
type Limiter struct {
	redis       redis.Cmdable
	clock       clock.Clock
	maxRequests int
	window      time.Duration
}

func NewLimiter(rdb redis.Cmdable, clk clock.Clock, maxRequests int, window time.Duration) *Limiter {
	if maxRequests <= 0 {
		maxRequests = DefaultMaxRequests
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &Limiter{redis: rdb, clock: clk, maxRequests: maxRequests, window: window}
}

// reserveScript trims the window, then adds ARGV[5] when it is already a member
// or the window has room. Returns {allowed, used, oldest score}.
var reserveScript = redis.NewScript(`
local key = KEYS[1]
redis.call('zremrangebyscore', key, '-inf', '(' .. ARGV[2])
local used = redis.call('zcard', key)
if redis.call('zscore', key, ARGV[5]) then
  return {1, used, 0}
end
if used >= tonumber(ARGV[3]) then
  local oldest = redis.call('zrange', key, 0, 0, 'WITHSCORES')
  local score = 0
  if oldest[2] then
    score = tonumber(oldest[2])
  end
  return {0, used, score}
end
redis.call('zadd', key, ARGV[1], ARGV[5])
redis.call('pexpire', key, ARGV[4])
return {1, used + 1, 0}
`)

// Allow records a request for key when it fits in the window.
func (l *Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	return l.Reserve(ctx, key, strconv.FormatInt(l.clock.Now().UnixMilli(), 10)+"-"+uuid.NewString())
}

// Reserve records a request for key under token when it fits in the window.
// Reserving a token that already holds a slot admits it again without using
// another one, so retries of the same request share a slot.
func (l *Limiter) Reserve(ctx context.Context, key, token string) (Decision, error) {
	now := l.clock.Now()
	nowMs := now.UnixMilli()
	windowStart := nowMs - l.window.Milliseconds()

	res, err := reserveScript.Run(ctx, l.redis, []string{keyPrefix + key},
		nowMs, windowStart, l.maxRequests, l.window.Milliseconds(), token).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("reserve rate limit slot: %w", err)
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("reserve rate limit slot: unexpected reply %v", res)
	}

	used := int(res[1])
	if res[0] == 1 {
		remaining := l.maxRequests - used
		if remaining < 0 {
			remaining = 0
		}
		return Decision{Allowed: true, Remaining: remaining}, nil
	}

	retryAfter := l.window
	if res[2] > 0 {
		retryAfter = time.UnixMilli(res[2]).Add(l.window).Sub(now)
	}
	if retryAfter < time.Second {
		retryAfter = time.Second
	}
	return Decision{Allowed: false, Remaining: 0, RetryAfter: retryAfter}, nil
}

// Release gives back the slot held by token, if any.
func (l *Limiter) Release(ctx context.Context, key, token string) error {
	if err := l.redis.ZRem(ctx, keyPrefix+key, token).Err(); err != nil {
		return fmt.Errorf("release rate limit slot: %w", err)
	}
	return nil
}

// Used reports how many requests for key are inside the current window.
func (l *Limiter) Used(ctx context.Context, key string) (int, error) {
	windowStart := l.clock.Now().UnixMilli() - l.window.Milliseconds()
	n, err := l.redis.ZCount(ctx, keyPrefix+key, strconv.FormatInt(windowStart, 10), "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("count rate limit window: %w", err)
	}
	return int(n), nil
}

// Reset forgets all requests recorded for key.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	if err := l.redis.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("reset rate limit: %w", err)
	}
	return nil
}
