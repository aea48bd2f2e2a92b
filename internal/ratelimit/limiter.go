package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Counter increments the hit counter of key and returns the new value and
// the time left in the current window.
type Counter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// RedisCounter is a fixed-window counter on INCR and PEXPIRE.
type RedisCounter struct {
	client redis.Cmdable
}

func NewRedisCounter(client redis.Cmdable) *RedisCounter {
	if client == nil {
		return nil
	}
	return &RedisCounter{client: client}
}

func (r *RedisCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		ttl = pipe.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("rate limit counter: %w", err)
	}

	left := ttl.Val()
	if left < 0 {
		// first hit of the window
		if err := r.client.PExpire(ctx, key, window).Err(); err != nil {
			return 0, 0, fmt.Errorf("rate limit expire: %w", err)
		}
		left = window
	}
	return incr.Val(), left, nil
}

// Result describes one limiter decision.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter allows at most max hits per key within window.
type Limiter struct {
	counter Counter
	prefix  string
	max     int
	window  time.Duration
}

func NewLimiter(counter Counter, prefix string, max int, window time.Duration) (*Limiter, error) {
	if counter == nil {
		return nil, errors.New("rate limiter counter is nil")
	}
	if max <= 0 {
		return nil, errors.New("rate limit must be positive")
	}
	if window <= 0 {
		return nil, errors.New("rate limit window must be positive")
	}
	return &Limiter{counter: counter, prefix: prefix, max: max, window: window}, nil
}

func (l *Limiter) Allow(ctx context.Context, key string) (Result, error) {
	if key == "" {
		return Result{}, errors.New("rate limiter key is empty")
	}
	count, left, err := l.counter.Hit(ctx, l.prefix+key, l.window)
	if err != nil {
		return Result{}, err
	}

	res := Result{Limit: l.max, Remaining: l.max - int(count)}
	if res.Remaining < 0 {
		res.Remaining = 0
	}
	if count > int64(l.max) {
		res.RetryAfter = left
		return res, nil
	}
	res.Allowed = true
	return res, nil
}
