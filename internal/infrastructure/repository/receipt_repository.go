package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/leaseworks/lease-engine/internal/domain/approval"
	domainerrors "github.com/leaseworks/lease-engine/internal/domain/errors"
	"github.com/leaseworks/lease-engine/internal/domain/receipt"
	"github.com/leaseworks/lease-engine/internal/domain/values"
)

// ReceiptRepository persists receipts and their invoice allocations.
type ReceiptRepository struct {
	pool *pgxpool.Pool
}

func NewReceiptRepository(pool *pgxpool.Pool) *ReceiptRepository {
	return &ReceiptRepository{pool: pool}
}

func (r *ReceiptRepository) Create(ctx context.Context, rec *receipt.Receipt) error {
	err := pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO receipts (
				id, number, contract_id, payer_id, method, currency,
				received_amount, security_deposit, penalty, discount, net_amount,
				approval_status, approval_comment, approval_reason, decided_by, decided_at,
				payment_status, is_posted,
				bank_name, deposit_date, clearance_date, status_reason,
				created_at, updated_at, version
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			          $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)`,
			rec.ID, rec.Number, rec.ContractID, rec.PayerID, int(rec.Method), rec.Currency(),
			rec.ReceivedAmount.Amount(), rec.SecurityDeposit.Amount(), rec.Penalty.Amount(),
			rec.Discount.Amount(), rec.NetAmount.Amount(),
			int(rec.Approval.Status), rec.Approval.Comment, rec.Approval.Reason,
			rec.Approval.DecidedBy, rec.Approval.DecidedAt,
			int(rec.Payment), rec.IsPosted,
			rec.BankName, rec.DepositDate, rec.ClearanceDate, rec.StatusReason,
			rec.CreatedAt, rec.UpdatedAt, rec.Version,
		)
		if err != nil {
			return err
		}
		return insertAllocations(ctx, tx, rec.ID, rec.Allocations)
	})
	return translateError(err, domainerrors.ErrDocumentNotFound)
}

func (r *ReceiptRepository) GetByID(ctx context.Context, id uuid.UUID) (*receipt.Receipt, error) {
	var (
		rec       receipt.Receipt
		method    int
		status    int
		payment   int
		currency  string
		received  decimal.Decimal
		deposit   decimal.Decimal
		penalty   decimal.Decimal
		discount  decimal.Decimal
		net       decimal.Decimal
		decidedBy *uuid.UUID
		decidedAt *time.Time
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, number, contract_id, payer_id, method, currency,
		       received_amount, security_deposit, penalty, discount, net_amount,
		       approval_status, approval_comment, approval_reason, decided_by, decided_at,
		       payment_status, is_posted,
		       bank_name, deposit_date, clearance_date, status_reason,
		       created_at, updated_at, version
		FROM receipts WHERE id = $1`, id,
	).Scan(
		&rec.ID, &rec.Number, &rec.ContractID, &rec.PayerID, &method, &currency,
		&received, &deposit, &penalty, &discount, &net,
		&status, &rec.Approval.Comment, &rec.Approval.Reason, &decidedBy, &decidedAt,
		&payment, &rec.IsPosted,
		&rec.BankName, &rec.DepositDate, &rec.ClearanceDate, &rec.StatusReason,
		&rec.CreatedAt, &rec.UpdatedAt, &rec.Version,
	)
	if err != nil {
		return nil, translateError(err, domainerrors.ErrDocumentNotFound)
	}

	rec.Method = receipt.PaymentMethod(method)
	rec.Payment = receipt.PaymentStatus(payment)
	rec.Approval.Status = approval.Status(status)
	rec.Approval.DecidedBy = decidedBy
	rec.Approval.DecidedAt = decidedAt
	rec.ReceivedAmount = values.MustNewMoney(received, currency)
	rec.SecurityDeposit = values.MustNewMoney(deposit, currency)
	rec.Penalty = values.MustNewMoney(penalty, currency)
	rec.Discount = values.MustNewMoney(discount, currency)
	rec.NetAmount = values.MustNewMoney(net, currency)

	allocations, err := r.loadAllocations(ctx, id, currency)
	if err != nil {
		return nil, err
	}
	rec.Allocations = allocations
	return &rec, nil
}

// Update writes the receipt and replaces its allocations under the optimistic
// version check.
func (r *ReceiptRepository) Update(ctx context.Context, rec *receipt.Receipt) error {
	err := pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE receipts SET
				received_amount = $2, security_deposit = $3, penalty = $4,
				discount = $5, net_amount = $6,
				approval_status = $7, approval_comment = $8, approval_reason = $9,
				decided_by = $10, decided_at = $11,
				payment_status = $12, is_posted = $13,
				bank_name = $14, deposit_date = $15, clearance_date = $16, status_reason = $17,
				updated_at = $18, version = version + 1
			WHERE id = $1 AND version = $19`,
			rec.ID,
			rec.ReceivedAmount.Amount(), rec.SecurityDeposit.Amount(), rec.Penalty.Amount(),
			rec.Discount.Amount(), rec.NetAmount.Amount(),
			int(rec.Approval.Status), rec.Approval.Comment, rec.Approval.Reason,
			rec.Approval.DecidedBy, rec.Approval.DecidedAt,
			int(rec.Payment), rec.IsPosted,
			rec.BankName, rec.DepositDate, rec.ClearanceDate, rec.StatusReason,
			time.Now(), rec.Version,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domainerrors.ErrStaleDocument
		}
		rec.Version++

		if _, err := tx.Exec(ctx, `DELETE FROM allocations WHERE receipt_id = $1`, rec.ID); err != nil {
			return err
		}
		return insertAllocations(ctx, tx, rec.ID, rec.Allocations)
	})
	if domainerrors.IsType(err, domainerrors.ErrorTypeConflict) {
		return err
	}
	return translateError(err, domainerrors.ErrDocumentNotFound)
}

func (r *ReceiptRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM allocations WHERE receipt_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM receipts WHERE id = $1`, id)
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

func insertAllocations(ctx context.Context, tx pgx.Tx, receiptID uuid.UUID, allocations []receipt.Allocation) error {
	for i := range allocations {
		a := &allocations[i]
		_, err := tx.Exec(ctx, `
			INSERT INTO allocations (receipt_id, invoice_ref, amount, notes)
			VALUES ($1, $2, $3, $4)`,
			receiptID, a.InvoiceRef, a.Amount.Amount(), a.Notes,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *ReceiptRepository) loadAllocations(ctx context.Context, receiptID uuid.UUID, currency string) ([]receipt.Allocation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT invoice_ref, amount, notes
		FROM allocations WHERE receipt_id = $1 ORDER BY invoice_ref`, receiptID)
	if err != nil {
		return nil, translateError(err, domainerrors.ErrDocumentNotFound)
	}
	defer rows.Close()

	var allocations []receipt.Allocation
	for rows.Next() {
		var (
			a      receipt.Allocation
			amount decimal.Decimal
		)
		if err := rows.Scan(&a.InvoiceRef, &amount, &a.Notes); err != nil {
			return nil, translateError(err, domainerrors.ErrDocumentNotFound)
		}
		a.Amount = values.MustNewMoney(amount, currency)
		allocations = append(allocations, a)
	}
	return allocations, rows.Err()
}
