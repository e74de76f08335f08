package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitEnforcesMinInterval(t *testing.T) {
	limiter := NewDomainRateLimiter(&Config{
		MinInterval:       50 * time.Millisecond,
		MaxBackoff:        time.Second,
		BackoffMultiplier: 2.0,
	})
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, limiter.Wait(ctx, "example.com"))
	require.NoError(t, limiter.Wait(ctx, "example.com"))
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond, "second request should wait for min interval")
}

func TestWaitIndependentDomains(t *testing.T) {
	limiter := NewDomainRateLimiter(&Config{
		MinInterval:       200 * time.Millisecond,
		MaxBackoff:        time.Second,
		BackoffMultiplier: 2.0,
	})
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, limiter.Wait(ctx, "a.com"))
	require.NoError(t, limiter.Wait(ctx, "b.com"))
	assert.Less(t, time.Since(start), 150*time.Millisecond, "different domains should not block each other")
}

func TestBackoffAfterFailure(t *testing.T) {
	limiter := NewDomainRateLimiter(&Config{
		MinInterval:       10 * time.Millisecond,
		MaxBackoff:        500 * time.Millisecond,
		BackoffMultiplier: 2.0,
	})
	ctx := context.Background()

	require.NoError(t, limiter.Wait(ctx, "flaky.com"))
	limiter.ReportFailure("flaky.com")

	start := time.Now()
	require.NoError(t, limiter.Wait(ctx, "flaky.com"))
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond, "failure should extend the delay")

	limiter.ReportSuccess("flaky.com")
	_, errors := limiter.Stats("flaky.com")
	assert.Equal(t, int64(1), errors)
}

func TestWaitCancellation(t *testing.T) {
	limiter := NewDomainRateLimiter(&Config{
		MinInterval:       10 * time.Second,
		MaxBackoff:        time.Minute,
		BackoffMultiplier: 2.0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	require.NoError(t, limiter.Wait(ctx, "slow.com"))
	err := limiter.Wait(ctx, "slow.com")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
