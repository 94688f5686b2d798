package ratelimit

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter enforces fixed-window request limits per identifier, backed by
// redis so limits hold across instances. It fails open: when redis is
// unavailable the request proceeds and a warning is logged, because the
// quota accountant is the correctness gate and this is only a shield.
type Limiter struct {
	client    *redis.Client
	prefix    string
	perMinute int
	perDay    int
}

// New creates a limiter. Zero or negative limits disable the window.
func New(client *redis.Client, prefix string, perMinute, perDay int) *Limiter {
	if prefix == "" {
		prefix = "voxnote:ratelimit"
	}
	return &Limiter{
		client:    client,
		prefix:    prefix,
		perMinute: perMinute,
		perDay:    perDay,
	}
}

// Allow reports whether the identifier may make another request now.
func (l *Limiter) Allow(ctx context.Context, identifier string) (bool, error) {
	if l.perMinute > 0 {
		key := fmt.Sprintf("%s:minute:%s", l.prefix, identifier)
		allowed, err := l.checkWindow(ctx, key, l.perMinute, time.Minute)
		if err != nil {
			log.Printf("Warning: rate limit check failed, allowing request: %v", err)
			return true, nil
		}
		if !allowed {
			return false, nil
		}
	}

	if l.perDay > 0 {
		key := fmt.Sprintf("%s:day:%s", l.prefix, identifier)
		allowed, err := l.checkWindow(ctx, key, l.perDay, 24*time.Hour)
		if err != nil {
			log.Printf("Warning: rate limit check failed, allowing request: %v", err)
			return true, nil
		}
		if !allowed {
			return false, nil
		}
	}

	return true, nil
}

// checkWindow increments the window counter and sets its expiry on first use.
func (l *Limiter) checkWindow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, window).Err(); err != nil {
			return false, err
		}
	}
	return count <= int64(limit), nil
}

// Remaining returns how many requests are left in the minute window.
func (l *Limiter) Remaining(ctx context.Context, identifier string) (int, error) {
	if l.perMinute <= 0 {
		return -1, nil
	}
	key := fmt.Sprintf("%s:minute:%s", l.prefix, identifier)
	count, err := l.client.Get(ctx, key).Int()
	if err == redis.Nil {
		return l.perMinute, nil
	}
	if err != nil {
		return 0, err
	}
	remaining := l.perMinute - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}
