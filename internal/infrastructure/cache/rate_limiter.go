package cache

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// redisRateLimiter enforces a sliding-window limit with a Redis sorted
// set per key. Members are request timestamps; expired members fall out
// of the window on every check.
type redisRateLimiter struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisRateLimiter builds a Redis-backed sliding window limiter.
func NewRedisRateLimiter(client *redis.Client, logger *zap.Logger) RateLimiter {
	return &redisRateLimiter{
		client: client,
		logger: logger,
	}
}

func (r *redisRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	windowStart := now.Add(-window)
	redisKey := RateLimitKeyPrefix + key

	pipe := r.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "-inf", strconv.FormatInt(windowStart.UnixNano(), 10))
	countCmd := pipe.ZCard(ctx, redisKey)
	member := fmt.Sprintf("%d-%d", now.UnixNano(), now.Nanosecond()%1000)
	pipe.ZAdd(ctx, redisKey, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: member,
	})
	pipe.Expire(ctx, redisKey, window+time.Minute)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}

	if countCmd.Val() >= int64(limit) {
		// The member was added optimistically; take it back out so a
		// rejected request does not consume budget.
		r.client.ZRem(ctx, redisKey, member)
		r.logger.Debug("rate limit exceeded",
			zap.String("key", key),
			zap.Int("limit", limit),
			zap.Duration("window", window))
		return false, nil
	}

	return true, nil
}

func (r *redisRateLimiter) Remaining(ctx context.Context, key string, limit int, window time.Duration) (int, error) {
	windowStart := time.Now().Add(-window)
	redisKey := RateLimitKeyPrefix + key

	if err := r.client.ZRemRangeByScore(ctx, redisKey, "-inf", strconv.FormatInt(windowStart.UnixNano(), 10)).Err(); err != nil {
		return 0, fmt.Errorf("rate limit cleanup failed: %w", err)
	}

	count, err := r.client.ZCard(ctx, redisKey).Result()
	if err != nil {
		return 0, fmt.Errorf("rate limit count failed: %w", err)
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

func (r *redisRateLimiter) Reset(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, RateLimitKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("rate limit reset failed: %w", err)
	}
	return nil
}

// localRateLimiter is the in-process fallback used when Redis is not
// configured. Counts are per key and per process, so it only bounds a
// single instance.
type localRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewLocalRateLimiter builds a token-bucket limiter kept in memory.
func NewLocalRateLimiter() RateLimiter {
	return &localRateLimiter{
		limiters: make(map[string]*rate.Limiter),
	}
}

func (l *localRateLimiter) limiter(key string, limit int, window time.Duration) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[key]
	if !ok {
		perSecond := rate.Limit(float64(limit) / window.Seconds())
		lim = rate.NewLimiter(perSecond, limit)
		l.limiters[key] = lim
	}
	return lim
}

func (l *localRateLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	return l.limiter(key, limit, window).Allow(), nil
}

func (l *localRateLimiter) Remaining(_ context.Context, key string, limit int, window time.Duration) (int, error) {
	tokens := int(l.limiter(key, limit, window).Tokens())
	if tokens < 0 {
		tokens = 0
	}
	return tokens, nil
}

func (l *localRateLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.limiters, key)
	return nil
}
