package ratelimit

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const allowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`

type evaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// RedisLimiter is a fixed-window counter shared by every instance of the service
type RedisLimiter struct {
	client  evaler
	window  time.Duration
	max     int
	prefix  string
	timeout time.Duration
}

// NewRedisLimiter allows max hits per key within window
func NewRedisLimiter(client *redis.Client, window time.Duration, max int) *RedisLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &RedisLimiter{
		client:  client,
		window:  window,
		max:     max,
		prefix:  "otp:rl:",
		timeout: 500 * time.Millisecond,
	}
}

// Allow counts a hit for key. Redis failures fail open and are returned for logging.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l == nil || l.client == nil {
		return true, nil
	}
	normalized := normalizeKey(key)
	if normalized == "" {
		return false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	seconds := int(l.window.Seconds())
	if seconds <= 0 {
		seconds = 60
	}
	count, err := l.client.Eval(ctx, allowScript, []string{l.prefix + normalized}, seconds).Int()
	if err != nil {
		return true, err
	}
	return count <= l.max, nil
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
