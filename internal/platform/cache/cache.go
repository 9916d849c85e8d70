package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) error
	// Incr bumps a fixed-window counter and returns its new value.
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
	// CompareAndSwap replaces key only while it still holds old, where a nil
	// old means absent. A nil data deletes the key.
	CompareAndSwap(ctx context.Context, key string, old, data []byte, ttl time.Duration) (bool, error)
	Close() error
}

func GetJSON[T any](ctx context.Context, c Cache, key string) (T, bool, error) {
	var zero T
	raw, err := c.Get(ctx, key)
	if errors.Is(err, ErrMiss) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, err
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, false, err
	}
	return out, true, nil
}

func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, raw, ttl)
}

// RateLimiter allows at most Limit hits per key per Window.
type RateLimiter struct {
	cache  Cache
	Limit  int
	Window time.Duration
}

func NewRateLimiter(c Cache, limit int, window time.Duration) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{cache: c, Limit: limit, Window: window}
}

// Allow fails open when the backing store errors.
func (l *RateLimiter) Allow(ctx context.Context, key string) bool {
	if l == nil || l.cache == nil || l.Limit <= 0 {
		return true
	}
	n, err := l.cache.Incr(ctx, "ratelimit:"+key, l.Window)
	if err != nil {
		return true
	}
	return n <= int64(l.Limit)
}
