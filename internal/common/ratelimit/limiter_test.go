package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ghostwriter-workers/internal/common/clock"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, max int, window time.Duration) (*Limiter, *clock.Fake) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	clk := clock.NewFake(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))
	return NewLimiter(rdb, clk, max, window), clk
}

func TestLimiter_AllowsUpToMax(t *testing.T) {
	limiter, clk := newTestLimiter(t, 3, 15*time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := limiter.Allow(ctx, "session-1")
		require.NoError(t, err)
		assert.True(t, d.Allowed, "request %d", i)
		assert.Equal(t, 2-i, d.Remaining)
		clk.Advance(time.Minute)
	}

	d, err := limiter.Allow(ctx, "session-1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	// oldest request was 3 minutes ago, so it leaves the window in 12 minutes
	assert.Equal(t, 12*time.Minute, d.RetryAfter)
}

func TestLimiter_WindowSlides(t *testing.T) {
	limiter, clk := newTestLimiter(t, 2, 15*time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		d, err := limiter.Allow(ctx, "session-1")
		require.NoError(t, err)
		require.True(t, d.Allowed)
	}

	d, err := limiter.Allow(ctx, "session-1")
	require.NoError(t, err)
	require.False(t, d.Allowed)

	clk.Advance(15*time.Minute + time.Millisecond)

	d, err = limiter.Allow(ctx, "session-1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	limiter, _ := newTestLimiter(t, 1, time.Minute)
	ctx := context.Background()

	d, err := limiter.Allow(ctx, "a")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = limiter.Allow(ctx, "b")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = limiter.Allow(ctx, "a")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
}

func TestLimiter_Reset(t *testing.T) {
	limiter, _ := newTestLimiter(t, 1, time.Minute)
	ctx := context.Background()

	_, err := limiter.Allow(ctx, "a")
	require.NoError(t, err)
	require.NoError(t, limiter.Reset(ctx, "a"))

	d, err := limiter.Allow(ctx, "a")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestLimiter_ConcurrentRequestsNeverExceedMax(t *testing.T) {
	limiter, _ := newTestLimiter(t, 5, 15*time.Minute)
	ctx := context.Background()

	var allowed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := limiter.Allow(ctx, "session-1")
			if assert.NoError(t, err) && d.Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(5), allowed.Load())
	used, err := limiter.Used(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, 5, used)
}

func TestLimiter_ReserveSameTokenSharesSlot(t *testing.T) {
	limiter, _ := newTestLimiter(t, 2, 15*time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := limiter.Reserve(ctx, "session-1", "job-7")
		require.NoError(t, err)
		assert.True(t, d.Allowed, "attempt %d", i)
		assert.Equal(t, 1, d.Remaining)
	}

	used, err := limiter.Used(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, 1, used)
}

func TestLimiter_ReserveHeldTokenAdmittedWhenFull(t *testing.T) {
	limiter, _ := newTestLimiter(t, 2, 15*time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		d, err := limiter.Reserve(ctx, "session-1", fmt.Sprintf("job-%d", i))
		require.NoError(t, err)
		require.True(t, d.Allowed)
	}

	d, err := limiter.Reserve(ctx, "session-1", "job-2")
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	d, err = limiter.Reserve(ctx, "session-1", "job-0")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
}

func TestLimiter_Release(t *testing.T) {
	limiter, _ := newTestLimiter(t, 1, 15*time.Minute)
	ctx := context.Background()

	d, err := limiter.Reserve(ctx, "session-1", "job-1")
	require.NoError(t, err)
	require.True(t, d.Allowed)

	require.NoError(t, limiter.Release(ctx, "session-1", "job-1"))
	used, err := limiter.Used(ctx, "session-1")
	require.NoError(t, err)
	assert.Zero(t, used)

	d, err = limiter.Reserve(ctx, "session-1", "job-2")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	// releasing an unknown token is a no-op
	require.NoError(t, limiter.Release(ctx, "session-1", "job-missing"))
}

func TestLimiter_RedisError(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mr.Close()

	limiter := NewLimiter(rdb, clock.NewFake(time.Now()), 1, time.Minute)
	_, err := limiter.Allow(context.Background(), "a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}

func TestNewLimiter_Defaults(t *testing.T) {
	limiter := NewLimiter(nil, nil, 0, 0)
	assert.Equal(t, DefaultMaxRequests, limiter.maxRequests)
	assert.Equal(t, DefaultWindow, limiter.window)
}
