package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/folio/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilComponentsDegradeGracefully(t *testing.T) {
	ctx := context.Background()

	limiter := NewExportLimiter(nil, config.Config{ExportRatePerMinute: 6, ExportBurst: 3})
	assert.False(t, limiter.Enabled())
	ok, wait, err := limiter.Allow(ctx, "author", "1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, wait)

	locker := NewLocker(nil)
	assert.Nil(t, locker)
	_, _, err = locker.TryLock(ctx, "k", time.Second)
	assert.Error(t, err)
	assert.NoError(t, locker.Release(ctx, "k", "token"))

	var bucket *TokenBucket
	_, err = bucket.Allow(ctx, "k", 1, 1)
	assert.Error(t, err)
}

func TestEvaluateRetryAfter(t *testing.T) {
	res := evaluate(false, 0.5, 0.1)
	assert.False(t, res.Allowed)
	assert.Equal(t, 5*time.Second, res.RetryAfter)

	res = evaluate(true, 2.7, 0.1)
	assert.True(t, res.Allowed)
	assert.Equal(t, 2, res.Remaining)
	assert.Zero(t, res.RetryAfter)
}

func TestBucketTTL(t *testing.T) {
	assert.Equal(t, 60*time.Second, bucketTTL(0.1, 3))
	assert.Equal(t, time.Second, bucketTTL(100, 1))
}

func TestWithLockRunsUnguardedWithoutRedis(t *testing.T) {
	var locker *Locker
	called := false
	err := locker.WithLock(context.Background(), "payout:author:1", time.Second, func() error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}
