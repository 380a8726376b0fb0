package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	domainerrors "github.com/leaseworks/lease-engine/internal/domain/errors"
	"github.com/leaseworks/lease-engine/internal/domain/values"
)

// TaxRateRepository resolves configured tax rates. It implements the
// recalculator's lookup; the cache layer decorates it for hot reads.
type TaxRateRepository struct {
	pool *pgxpool.Pool
}

func NewTaxRateRepository(pool *pgxpool.Pool) *TaxRateRepository {
	return &TaxRateRepository{pool: pool}
}

func (r *TaxRateRepository) GetTaxRate(ctx context.Context, ref values.TaxRateRef) (values.TaxPercentage, error) {
	if ref.IsNone() {
		return values.ZeroTaxPercentage, nil
	}

	var pct decimal.Decimal
	err := r.pool.QueryRow(ctx, `
		SELECT percentage FROM tax_rates WHERE id = $1 AND active = TRUE`, ref.ID(),
	).Scan(&pct)
	if err != nil {
		return values.ZeroTaxPercentage, translateError(err, domainerrors.ErrTaxRateNotFound)
	}

	p, err := values.NewTaxPercentage(pct)
	if err != nil {
		return values.ZeroTaxPercentage, domainerrors.NewInternalError("corrupt tax percentage").WithCause(err)
	}
	return p, nil
}
