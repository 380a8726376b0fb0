package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	domainerrors "github.com/leaseworks/lease-engine/internal/domain/errors"
	"github.com/leaseworks/lease-engine/internal/domain/values"
)

// InvoiceRepository reads invoice balances for the allocation engine. The
// engine never writes invoices; settling them belongs to the billing system.
type InvoiceRepository struct {
	pool *pgxpool.Pool
}

func NewInvoiceRepository(pool *pgxpool.Pool) *InvoiceRepository {
	return &InvoiceRepository{pool: pool}
}

func (r *InvoiceRepository) OutstandingBalance(ctx context.Context, invoiceRef uuid.UUID) (values.Money, error) {
	var (
		total    decimal.Decimal
		paid     decimal.Decimal
		currency string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT total_amount, paid_amount, currency FROM invoices WHERE id = $1`, invoiceRef,
	).Scan(&total, &paid, &currency)
	if err != nil {
		return values.Money{}, translateError(err, domainerrors.ErrInvoiceNotFound)
	}

	outstanding := values.Round2(total.Sub(paid))
	if outstanding.IsNegative() {
		outstanding = decimal.Zero
	}
	return values.MustNewMoney(outstanding, currency), nil
}
