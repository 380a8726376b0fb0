package cache

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/leaseworks/lease-engine/internal/domain/contract"
	domainerrors "github.com/leaseworks/lease-engine/internal/domain/errors"
	"github.com/leaseworks/lease-engine/internal/domain/values"
)

// DefaultTaxRateTTL bounds how stale a cached percentage can get. Tax
// rates change rarely, so an hour is generous.
const DefaultTaxRateTTL = time.Hour

// TaxRateCache is a read-through decorator over a TaxRateLookup source.
// Cache failures degrade to the source rather than failing the lookup.
type TaxRateCache struct {
	cache  Cache
	source contract.TaxRateLookup
	ttl    time.Duration
	logger *zap.Logger
}

// NewTaxRateCache builds the decorator. A zero ttl falls back to
// DefaultTaxRateTTL.
func NewTaxRateCache(cache Cache, source contract.TaxRateLookup, ttl time.Duration, logger *zap.Logger) *TaxRateCache {
	if ttl <= 0 {
		ttl = DefaultTaxRateTTL
	}
	return &TaxRateCache{
		cache:  cache,
		source: source,
		ttl:    ttl,
		logger: logger,
	}
}

// GetTaxRate resolves the percentage from the cache first and falls
// through to the source on a miss. The none reference never touches
// either store.
func (c *TaxRateCache) GetTaxRate(ctx context.Context, ref values.TaxRateRef) (values.TaxPercentage, error) {
	if ref.IsNone() {
		return values.ZeroTaxPercentage, nil
	}

	key := TaxRateKeyPrefix + ref.ID().String()

	raw, err := c.cache.Get(ctx, key)
	if err == nil {
		pct, parseErr := parsePercentage(raw)
		if parseErr == nil {
			return pct, nil
		}
		// A corrupt entry is dropped and refetched.
		c.logger.Warn("evicting corrupt tax rate cache entry",
			zap.String("key", key),
			zap.Error(parseErr))
		_ = c.cache.Delete(ctx, key)
	} else if notFound := (ErrCacheKeyNotFound{}); !errors.As(err, &notFound) {
		c.logger.Warn("tax rate cache read failed",
			zap.String("key", key),
			zap.Error(err))
	}

	pct, err := c.source.GetTaxRate(ctx, ref)
	if err != nil {
		return values.TaxPercentage{}, err
	}

	if setErr := c.cache.Set(ctx, key, pct.Value().String(), c.ttl); setErr != nil {
		c.logger.Warn("tax rate cache write failed",
			zap.String("key", key),
			zap.Error(setErr))
	}

	return pct, nil
}

// Invalidate drops a cached percentage after a rate changes.
func (c *TaxRateCache) Invalidate(ctx context.Context, ref values.TaxRateRef) error {
	if ref.IsNone() {
		return nil
	}
	if err := c.cache.Delete(ctx, TaxRateKeyPrefix+ref.ID().String()); err != nil {
		return domainerrors.NewInternalError("tax rate cache invalidation failed").WithCause(err)
	}
	return nil
}

func parsePercentage(raw string) (values.TaxPercentage, error) {
	dec, err := decimal.NewFromString(raw)
	if err != nil {
		return values.TaxPercentage{}, err
	}
	return values.NewTaxPercentage(dec)
}
