package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterAllowsBurstThenRefuses(t *testing.T) {
	l := NewMemoryLimiter(3, time.Minute)
	defer l.Stop()

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(context.Background(), "u1")
		require.NoError(t, err)
		assert.True(t, ok, "request %d within the limit should pass", i+1)
	}

	ok, err := l.Allow(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryLimiterIsolatesUsers(t *testing.T) {
	l := NewMemoryLimiter(1, time.Minute)
	defer l.Stop()

	ok, err := l.Allow(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.Allow(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	// A different user has their own bucket
	ok, err = l.Allow(context.Background(), "u2")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryLimiterStopSignalsCleanup(t *testing.T) {
	l := NewMemoryLimiter(1, time.Minute)
	l.Stop()

	select {
	case <-l.stopCleanup:
	default:
		t.Fatal("cleanup goroutine was not signalled to stop")
	}
}

func TestTokenBucketRefills(t *testing.T) {
	b := newTokenBucket(2, 100*time.Millisecond)

	assert.True(t, b.consume(1))
	assert.True(t, b.consume(1))
	assert.False(t, b.consume(1))

	time.Sleep(120 * time.Millisecond)
	assert.True(t, b.consume(1))
}
