package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds connection settings for RedisLimiter.
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
	Prefix   string
}

// RedisLimiter is a fixed-window limiter shared by every replica through
// Redis. Each window is a counter key that expires with the window.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

// incrWithExpiry bumps the counter and starts its TTL on first use.
var incrWithExpiry = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

// NewRedisLimiter connects to Redis and verifies the connection.
func NewRedisLimiter(ctx context.Context, cfg RedisConfig, limit int, window time.Duration) (*RedisLimiter, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address required")
	}
	if window <= 0 {
		window = time.Minute
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "paydesk:ratelimit:"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisLimiter{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
	}, nil
}

// Allow counts one attempt for key. Redis errors allow the request.
func (l *RedisLimiter) Allow(ctx context.Context, key string) error {
	if l.limit <= 0 {
		return nil
	}

	n, err := incrWithExpiry.Run(ctx, l.client, []string{l.prefix + key}, l.window.Milliseconds()).Int64()
	if err != nil {
		slog.Warn("rate limiter unavailable, allowing request", "error", err)
		return nil
	}
	if n > int64(l.limit) {
		return ErrTooManyRequests
	}
	return nil
}

// Close releases the Redis connection.
func (l *RedisLimiter) Close() error {
	return l.client.Close()
}
