package rediscache

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RateLimiter считает запросы в фиксированном окне. Счётчик общий для всех
// процессов, которые ходят к перевозчику с одним ключом.
type RateLimiter struct {
	c *redis.Client
}

func NewRateLimiter(addr string) *RateLimiter {
	return &RateLimiter{c: redis.NewClient(&redis.Options{Addr: addr})}
}

// Allow: TTL ставим только первому запросу окна, иначе окно бы сдвигалось.
func (rl *RateLimiter) Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error) {
	n, err := rl.c.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, errors.Wrap(err, "redis ratelimit incr")
	}
	if n == 1 {
		if err := rl.c.Expire(ctx, key, window).Err(); err != nil {
			return false, n, errors.Wrap(err, "redis ratelimit expire")
		}
	}
	return n <= limit, n, nil
}

func (rl *RateLimiter) Close() error {
	return rl.c.Close()
}
