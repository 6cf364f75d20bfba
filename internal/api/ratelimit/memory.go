package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter decides whether a caller may perform another request right now.
type Limiter interface {
	Allow(ctx context.Context, userID string) (bool, error)
}

// MemoryLimiter implements Limiter using in-memory token buckets, one per
// user. Suitable for a single instance; use RedisLimiter when running more
// than one replica.
type MemoryLimiter struct {
	mu          sync.RWMutex
	buckets     map[string]*tokenBucket
	limit       int
	window      time.Duration
	cleanup     *time.Ticker
	stopCleanup chan struct{}
}

// NewMemoryLimiter creates an in-memory limiter allowing `limit` requests
// per user per window. A background goroutine drops idle buckets.
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	l := &MemoryLimiter{
		buckets:     make(map[string]*tokenBucket),
		limit:       limit,
		window:      window,
		cleanup:     time.NewTicker(5 * time.Minute),
		stopCleanup: make(chan struct{}),
	}

	go l.cleanupUnusedBuckets()

	return l
}

// Stop stops the background cleanup goroutine. Call this when shutting down.
func (l *MemoryLimiter) Stop() {
	l.cleanup.Stop()
	close(l.stopCleanup)
}

// Allow checks if a request is allowed and consumes a token if available.
func (l *MemoryLimiter) Allow(_ context.Context, userID string) (bool, error) {
	l.mu.Lock()
	bucket, exists := l.buckets[userID]
	if !exists {
		bucket = newTokenBucket(float64(l.limit), l.window)
		l.buckets[userID] = bucket
	}
	l.mu.Unlock()

	return bucket.consume(1), nil
}

// cleanupUnusedBuckets periodically removes buckets that haven't been used recently.
func (l *MemoryLimiter) cleanupUnusedBuckets() {
	for {
		select {
		case <-l.cleanup.C:
			l.mu.Lock()
			now := time.Now()
			for key, bucket := range l.buckets {
				bucket.mu.Lock()
				// Remove buckets that haven't been used in 2x their window duration
				if now.Sub(bucket.lastRefill) > bucket.windowDuration*2 {
					delete(l.buckets, key)
				}
				bucket.mu.Unlock()
			}
			l.mu.Unlock()
		case <-l.stopCleanup:
			return
		}
	}
}
