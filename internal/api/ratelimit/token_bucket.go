package ratelimit

import (
	"sync"
	"time"
)

// tokenBucket represents a single token bucket for rate limiting.
type tokenBucket struct {
	mu             sync.Mutex
	tokens         float64
	lastRefill     time.Time
	capacity       float64
	refillRate     float64 // tokens per second
	windowDuration time.Duration
}

// consume attempts to consume the requested number of tokens.
// Returns true if tokens were available and consumed, false otherwise.
func (tb *tokenBucket) consume(tokens float64) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()

	// Refill tokens based on elapsed time
	elapsed := now.Sub(tb.lastRefill).Seconds()
	tokensToAdd := elapsed * tb.refillRate
	tb.tokens = min(tb.capacity, tb.tokens+tokensToAdd)
	tb.lastRefill = now

	if tb.tokens >= tokens {
		tb.tokens -= tokens
		return true
	}

	return false
}

func newTokenBucket(capacity float64, windowDuration time.Duration) *tokenBucket {
	// Refill rate is capacity / window duration in seconds
	return &tokenBucket{
		tokens:         capacity,
		lastRefill:     time.Now(),
		capacity:       capacity,
		refillRate:     capacity / windowDuration.Seconds(),
		windowDuration: windowDuration,
	}
}
