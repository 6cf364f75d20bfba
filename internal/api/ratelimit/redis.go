package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter implements Limiter on Redis so rate limits hold across
// multiple server instances. Bucket state lives in a Redis hash per user and
// expires shortly after the window passes; a Lua script keeps the
// refill-and-consume step atomic.
type RedisLimiter struct {
	client    *redis.Client
	keyPrefix string
	limit     int
	window    time.Duration
}

// NewRedisLimiter creates a Redis-backed limiter allowing `limit` requests
// per user per window. keyPrefix defaults to "rate_limit:" if empty.
func NewRedisLimiter(client *redis.Client, keyPrefix string, limit int, window time.Duration) *RedisLimiter {
	if keyPrefix == "" {
		keyPrefix = "rate_limit:"
	}

	return &RedisLimiter{
		client:    client,
		keyPrefix: keyPrefix,
		limit:     limit,
		window:    window,
	}
}

// Allow checks if a request is allowed and consumes a token if available.
func (r *RedisLimiter) Allow(ctx context.Context, userID string) (bool, error) {
	capacity := float64(r.limit)
	refillRate := capacity / r.window.Seconds()
	now := time.Now().UnixNano()

	// The script atomically:
	// 1. Gets or initializes bucket state
	// 2. Refills tokens based on elapsed time
	// 3. Consumes a token if available
	// 4. Updates bucket state and expiration
	script := `
		local key = KEYS[1]
		local capacity = tonumber(ARGV[1])
		local refillRate = tonumber(ARGV[2])
		local now = tonumber(ARGV[3])
		local tokensToConsume = tonumber(ARGV[4])
		local windowSeconds = tonumber(ARGV[5])

		local bucketData = redis.call('HMGET', key, 'tokens', 'lastRefill')
		local tokensStr = bucketData[1]
		local lastRefillStr = bucketData[2]

		local tokens
		local lastRefill
		if tokensStr == false or tokensStr == nil then
			tokens = capacity
			lastRefill = now
		else
			tokens = tonumber(tokensStr)
			if tokens == nil then
				tokens = capacity
			end
			lastRefill = tonumber(lastRefillStr)
			if lastRefill == nil then
				lastRefill = now
			end
		end

		-- nanoseconds to seconds
		local elapsed = (now - lastRefill) / 1000000000

		if elapsed > 0 then
			local tokensToAdd = elapsed * refillRate
			tokens = math.min(capacity, tokens + tokensToAdd)
		end

		if tokens >= tokensToConsume then
			tokens = tokens - tokensToConsume
			redis.call('HSET', key, 'tokens', tostring(tokens), 'lastRefill', tostring(now))
			redis.call('EXPIRE', key, math.ceil(windowSeconds * 1.1))
			return 1
		else
			-- Update lastRefill even if we can't consume (for accurate refill calculation)
			redis.call('HSET', key, 'tokens', tostring(tokens), 'lastRefill', tostring(now))
			redis.call('EXPIRE', key, math.ceil(windowSeconds * 1.1))
			return 0
		end
	`

	result, err := r.client.Eval(ctx, script, []string{r.keyPrefix + userID},
		capacity,
		refillRate,
		now,
		1.0,
		r.window.Seconds(),
	).Result()
	if err != nil {
		return false, fmt.Errorf("redis rate limit check failed: %w", err)
	}

	allowed := result.(int64) == 1
	return allowed, nil
}

// Ping checks if the Redis connection is healthy.
func (r *RedisLimiter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis client connection.
func (r *RedisLimiter) Close() error {
	return r.client.Close()
}
