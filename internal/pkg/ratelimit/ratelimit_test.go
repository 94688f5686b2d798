package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, perMinute, perDay int) (*Limiter, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return New(client, "test:ratelimit", perMinute, perDay), mr
}

func TestAllow_MinuteWindow(t *testing.T) {
	limiter, _ := newTestLimiter(t, 5, 0)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		allowed, err := limiter.Allow(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should pass", i+1)
	}

	allowed, err := limiter.Allow(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.False(t, allowed, "sixth request in the window must be rejected")
}

func TestAllow_WindowExpires(t *testing.T) {
	limiter, mr := newTestLimiter(t, 2, 0)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, err := limiter.Allow(ctx, "bob@example.com")
		require.NoError(t, err)
		require.True(t, allowed)
	}
	allowed, err := limiter.Allow(ctx, "bob@example.com")
	require.NoError(t, err)
	require.False(t, allowed)

	mr.FastForward(61 * time.Second)

	allowed, err = limiter.Allow(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.True(t, allowed, "a new window should open after expiry")
}

func TestAllow_DayWindow(t *testing.T) {
	limiter, _ := newTestLimiter(t, 0, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, "carol@example.com")
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := limiter.Allow(ctx, "carol@example.com")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestAllow_IdentifiersAreIndependent(t *testing.T) {
	limiter, _ := newTestLimiter(t, 1, 0)
	ctx := context.Background()

	allowed, err := limiter.Allow(ctx, "dave@example.com")
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = limiter.Allow(ctx, "eve@example.com")
	require.NoError(t, err)
	assert.True(t, allowed, "one identifier's limit must not affect another")
}

func TestAllow_FailsOpenWhenRedisDown(t *testing.T) {
	limiter, mr := newTestLimiter(t, 1, 1)
	ctx := context.Background()

	mr.Close()

	allowed, err := limiter.Allow(ctx, "frank@example.com")
	require.NoError(t, err)
	assert.True(t, allowed, "an unreachable backend must not block requests")
}

func TestRemaining(t *testing.T) {
	limiter, _ := newTestLimiter(t, 5, 0)
	ctx := context.Background()

	remaining, err := limiter.Remaining(ctx, "grace@example.com")
	require.NoError(t, err)
	assert.Equal(t, 5, remaining)

	_, err = limiter.Allow(ctx, "grace@example.com")
	require.NoError(t, err)

	remaining, err = limiter.Remaining(ctx, "grace@example.com")
	require.NoError(t, err)
	assert.Equal(t, 4, remaining)
}
