/**
 * @description
 * Redis-backed sliding-window counter for per-account withdrawal rate
 * limiting. The INCR/PEXPIRE script runs atomically on the Redis side, so
 * concurrent withdrawals across service instances share one window.
 *
 * @dependencies
 * - github.com/redis/go-redis/v9: Redis client with Lua script support.
 */

package app

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var withdrawalRateLimitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  ttl = tonumber(ARGV[1])
end
return {current, ttl}
`)

// RedisWithdrawalRateLimiter implements distributed per-account rate limiting
// for withdrawal and transfer operations using Redis.
type RedisWithdrawalRateLimiter struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisWithdrawalRateLimiter(client redis.UniversalClient, prefix string) *RedisWithdrawalRateLimiter {
	trimmedPrefix := strings.TrimSpace(prefix)
	if trimmedPrefix == "" {
		trimmedPrefix = "corebank:rate_limit"
	}
	trimmedPrefix = strings.TrimSuffix(trimmedPrefix, ":")

	return &RedisWithdrawalRateLimiter{
		client: client,
		prefix: trimmedPrefix,
	}
}

// key builds the counter key for one scope and account under the configured
// prefix.
func (r *RedisWithdrawalRateLimiter) key(scope, accountNumber string) string {
	return fmt.Sprintf("%s:%s:%s", r.prefix, scope, accountNumber)
}

// ConsumeRateLimit counts one operation against the account's window and
// reports the running count plus the retry-after hint once the window fills.
func (r *RedisWithdrawalRateLimiter) ConsumeRateLimit(
	ctx context.Context,
	scope string,
	accountNumber string,
	limit int,
	window time.Duration,
) (count int, retryAfterSeconds int, err error) {
	if r == nil || r.client == nil || limit <= 0 || window <= 0 {
		return 0, 0, nil
	}

	normalizedScope := strings.TrimSpace(scope)
	normalizedAccount := strings.TrimSpace(accountNumber)
	if normalizedScope == "" || normalizedAccount == "" {
		return 0, 0, nil
	}

	windowMs := window.Milliseconds()
	if windowMs < 1000 {
		windowMs = 1000
	}

	key := r.key(normalizedScope, normalizedAccount)
	rawResult, err := withdrawalRateLimitScript.Run(ctx, r.client, []string{key}, windowMs).Result()
	if err != nil {
		return 0, 0, err
	}

	values, ok := rawResult.([]interface{})
	if !ok || len(values) != 2 {
		return 0, 0, fmt.Errorf("unexpected redis limiter response shape: %T", rawResult)
	}

	currentCount, ok := values[0].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("unexpected redis limiter count type: %T", values[0])
	}

	ttlMs, ok := values[1].(int64)
	if !ok {
		return int(currentCount), 0, fmt.Errorf("unexpected redis limiter ttl type: %T", values[1])
	}
	if ttlMs < 0 {
		ttlMs = windowMs
	}

	retryAfter := int(math.Ceil(float64(ttlMs) / 1000.0))
	if retryAfter < 1 {
		retryAfter = 1
	}

	return int(currentCount), retryAfter, nil
}
