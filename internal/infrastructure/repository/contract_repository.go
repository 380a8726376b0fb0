package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/leaseworks/lease-engine/internal/domain/approval"
	"github.com/leaseworks/lease-engine/internal/domain/contract"
	domainerrors "github.com/leaseworks/lease-engine/internal/domain/errors"
	"github.com/leaseworks/lease-engine/internal/domain/values"
)

// ContractRepository persists contract drafts and their line items.
type ContractRepository struct {
	pool *pgxpool.Pool
}

func NewContractRepository(pool *pgxpool.Pool) *ContractRepository {
	return &ContractRepository{pool: pool}
}

func (r *ContractRepository) Create(ctx context.Context, c *contract.Contract) error {
	err := pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO contracts (
				id, number, company_id, currency,
				approval_status, approval_comment, approval_reason, decided_by, decided_at,
				created_at, updated_at, version
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			c.ID, c.Number, c.CompanyID, c.Currency,
			int(c.Approval.Status), c.Approval.Comment, c.Approval.Reason,
			c.Approval.DecidedBy, c.Approval.DecidedAt,
			c.CreatedAt, c.UpdatedAt, c.Version,
		)
		if err != nil {
			return err
		}
		return insertLineItems(ctx, tx, c.ID, c.LineItems)
	})
	return translateError(err, domainerrors.ErrDocumentNotFound)
}

func (r *ContractRepository) GetByID(ctx context.Context, id uuid.UUID) (*contract.Contract, error) {
	var (
		c         contract.Contract
		status    int
		decidedBy *uuid.UUID
		decidedAt *time.Time
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, number, company_id, currency,
		       approval_status, approval_comment, approval_reason, decided_by, decided_at,
		       created_at, updated_at, version
		FROM contracts WHERE id = $1`, id,
	).Scan(
		&c.ID, &c.Number, &c.CompanyID, &c.Currency,
		&status, &c.Approval.Comment, &c.Approval.Reason, &decidedBy, &decidedAt,
		&c.CreatedAt, &c.UpdatedAt, &c.Version,
	)
	if err != nil {
		return nil, translateError(err, domainerrors.ErrDocumentNotFound)
	}
	c.Approval.Status = approval.Status(status)
	c.Approval.DecidedBy = decidedBy
	c.Approval.DecidedAt = decidedAt

	items, err := r.loadLineItems(ctx, id, c.Currency)
	if err != nil {
		return nil, err
	}
	c.LineItems = items
	return &c, nil
}

// Update writes the contract and replaces its line items. The version check
// serializes concurrent edits of one document: a stale version is rejected.
func (r *ContractRepository) Update(ctx context.Context, c *contract.Contract) error {
	err := pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE contracts SET
				number = $2, currency = $3,
				approval_status = $4, approval_comment = $5, approval_reason = $6,
				decided_by = $7, decided_at = $8,
				updated_at = $9, version = version + 1
			WHERE id = $1 AND version = $10`,
			c.ID, c.Number, c.Currency,
			int(c.Approval.Status), c.Approval.Comment, c.Approval.Reason,
			c.Approval.DecidedBy, c.Approval.DecidedAt,
			time.Now(), c.Version,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domainerrors.ErrStaleDocument
		}
		c.Version++

		if _, err := tx.Exec(ctx, `DELETE FROM line_items WHERE contract_id = $1`, c.ID); err != nil {
			return err
		}
		return insertLineItems(ctx, tx, c.ID, c.LineItems)
	})
	if domainerrors.IsType(err, domainerrors.ErrorTypeConflict) {
		return err
	}
	return translateError(err, domainerrors.ErrDocumentNotFound)
}

func (r *ContractRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM line_items WHERE contract_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM contracts WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domainerrors.ErrDocumentNotFound
		}
		return nil
	})
	if domainerrors.IsType(err, domainerrors.ErrorTypeNotFound) {
		return err
	}
	return translateError(err, domainerrors.ErrDocumentNotFound)
}

func insertLineItems(ctx context.Context, tx pgx.Tx, contractID uuid.UUID, items []contract.LineItem) error {
	for i := range items {
		li := &items[i]
		var taxRateID *uuid.UUID
		if !li.TaxRate.IsNone() {
			id := li.TaxRate.ID()
			taxRateID = &id
		}
		var fromDate, toDate *time.Time
		if !li.FromDate.IsZero() {
			fromDate = &li.FromDate
		}
		if !li.ToDate.IsZero() {
			toDate = &li.ToDate
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO line_items (
				id, contract_id, kind, description,
				base_amount, period_multiplier, tax_rate_id,
				derived_annual_amount, tax_percentage, tax_amount, total_amount,
				from_date, to_date, duration_days, duration_months, duration_years,
				created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
			li.ID, contractID, int(li.Kind), li.Description,
			li.BaseAmount.Amount(), li.PeriodMultiplier, taxRateID,
			li.DerivedAnnualAmount.Amount(), li.TaxPercentage.Value(), li.TaxAmount.Amount(), li.TotalAmount.Amount(),
			fromDate, toDate, li.DurationDays, li.DurationMonths, li.DurationYears,
			li.CreatedAt, li.UpdatedAt,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *ContractRepository) loadLineItems(ctx context.Context, contractID uuid.UUID, currency string) ([]contract.LineItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, kind, description,
		       base_amount, period_multiplier, tax_rate_id,
		       derived_annual_amount, tax_percentage, tax_amount, total_amount,
		       from_date, to_date, duration_days, duration_months, duration_years,
		       created_at, updated_at
		FROM line_items WHERE contract_id = $1 ORDER BY created_at`, contractID)
	if err != nil {
		return nil, translateError(err, domainerrors.ErrLineItemNotFound)
	}
	defer rows.Close()

	var items []contract.LineItem
	for rows.Next() {
		var (
			li        contract.LineItem
			kind      int
			base      decimal.Decimal
			taxRateID *uuid.UUID
			annual    decimal.Decimal
			taxPct    decimal.Decimal
			taxAmt    decimal.Decimal
			total     decimal.Decimal
			fromDate  *time.Time
			toDate    *time.Time
		)
		if err := rows.Scan(
			&li.ID, &kind, &li.Description,
			&base, &li.PeriodMultiplier, &taxRateID,
			&annual, &taxPct, &taxAmt, &total,
			&fromDate, &toDate, &li.DurationDays, &li.DurationMonths, &li.DurationYears,
			&li.CreatedAt, &li.UpdatedAt,
		); err != nil {
			return nil, translateError(err, domainerrors.ErrLineItemNotFound)
		}

		li.Kind = contract.ItemKind(kind)
		li.BaseAmount = values.MustNewMoney(base, currency)
		li.DerivedAnnualAmount = values.MustNewMoney(annual, currency)
		li.TaxAmount = values.MustNewMoney(taxAmt, currency)
		li.TotalAmount = values.MustNewMoney(total, currency)

		li.TaxRate = values.NoTax
		if taxRateID != nil {
			ref, err := values.NewTaxRateRef(*taxRateID)
			if err != nil {
				return nil, domainerrors.NewInternalError("corrupt tax rate reference").WithCause(err)
			}
			li.TaxRate = ref
		}
		pct, err := values.NewTaxPercentage(taxPct)
		if err != nil {
			return nil, domainerrors.NewInternalError("corrupt tax percentage").WithCause(err)
		}
		li.TaxPercentage = pct

		if fromDate != nil {
			li.FromDate = *fromDate
		}
		if toDate != nil {
			li.ToDate = *toDate
		}
		items = append(items, li)
	}
	return items, rows.Err()
}
