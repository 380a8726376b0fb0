package cache

import (
	"context"
	"fmt"
	"time"
)

// Key prefixes keep the engine's keys out of each other's way when the
// same Redis database is shared.
const (
	TaxRateKeyPrefix   = "taxrate:"
	RateLimitKeyPrefix = "ratelimit:"
)

// Cache is a thin key-value store with TTL support. The only consumer
// today is the tax-rate lookup decorator, so the surface stays small.
type Cache interface {
	// Get retrieves a raw string value by key
	Get(ctx context.Context, key string) (string, error)

	// Set stores a value with a TTL (zero TTL means no expiry)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Delete removes a key
	Delete(ctx context.Context, key string) error

	// Exists checks whether a key is present
	Exists(ctx context.Context, key string) (bool, error)

	// GetJSON retrieves and unmarshals JSON data into dest
	GetJSON(ctx context.Context, key string, dest interface{}) error

	// SetJSON marshals value and stores it with a TTL
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Close releases the underlying connection
	Close() error
}

// RateLimiter limits request rates per key over a sliding window.
type RateLimiter interface {
	// Allow reports whether one more request fits under the limit
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)

	// Remaining returns how many requests are left in the current window
	Remaining(ctx context.Context, key string, limit int, window time.Duration) (int, error)

	// Reset clears the counter for a key
	Reset(ctx context.Context, key string) error
}

// ErrCacheKeyNotFound is returned when a key is absent from the cache.
type ErrCacheKeyNotFound struct {
	Key string
}

func (e ErrCacheKeyNotFound) Error() string {
	return fmt.Sprintf("cache key not found: %s", e.Key)
}
