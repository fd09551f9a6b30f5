package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "provenance:rl:"

// allowScript increments the window counter and starts its expiry on the
// first hit. It returns {count, ttl_ms}.
var allowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {current, ttl}
`)

// RedisStore implements Store with a fixed window counter per key.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Allow(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (*Result, error) {
	windowMS := window.Milliseconds()
	if windowMS <= 0 {
		return nil, fmt.Errorf("ratelimit: invalid window %s", window)
	}
	vals, err := allowScript.Run(ctx, s.client, []string{redisKeyPrefix + key}, windowMS).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("ratelimit: redis allow: %w", err)
	}
	if len(vals) != 2 {
		return nil, fmt.Errorf("ratelimit: unexpected redis reply of %d values", len(vals))
	}

	count := int(vals[0])
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return &Result{
		Allowed:   count <= limit,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   now.Add(time.Duration(vals[1]) * time.Millisecond),
	}, nil
}
