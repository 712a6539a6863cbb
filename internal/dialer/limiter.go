package dialer

import (
	"context"
	"time"

	"voice-recorder/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter enforces the provider's outbound call cap across process
// restarts (and any future second instance) using a shared fixed window.
type RedisRateLimiter struct {
	rdb    *redis.Client
	key    string
	limit  int
	window time.Duration
}

func NewRedisRateLimiter(rdb *redis.Client, key string, callsPerWindow int, window time.Duration) *RedisRateLimiter {
	if key == "" {
		key = "dialer:outbound_calls"
	}
	if callsPerWindow <= 0 {
		callsPerWindow = 1
	}
	if window <= 0 {
		window = time.Second
	}
	return &RedisRateLimiter{rdb: rdb, key: key, limit: callsPerWindow, window: window}
}

func (l *RedisRateLimiter) Allow(ctx context.Context) (bool, error) {
	return utils.AllowRate(ctx, l.rdb, l.key, l.limit, l.window)
}
