package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	domainerrors "github.com/leaseworks/lease-engine/internal/domain/errors"
	"github.com/leaseworks/lease-engine/internal/domain/ledger"
	"github.com/leaseworks/lease-engine/internal/domain/receipt"
	"github.com/leaseworks/lease-engine/internal/domain/values"
)

// PostingRepository persists ledger entries. The posting table is append
// only: reversal inserts offsetting rows and flags originals, never deletes.
type PostingRepository struct {
	pool   *pgxpool.Pool
	prefix string
}

// NewPostingRepository creates the repository. The prefix names the voucher
// series, e.g. "LV" yields numbers like LV-2026-000123.
func NewPostingRepository(pool *pgxpool.Pool, prefix string) *PostingRepository {
	if prefix == "" {
		prefix = "LV"
	}
	return &PostingRepository{pool: pool, prefix: prefix}
}

// NextVoucherNumber draws the next number of the year's voucher sequence.
// The upsert makes the counter safe under concurrent posting.
func (r *PostingRepository) NextVoucherNumber(ctx context.Context, date time.Time) (string, error) {
	if date.IsZero() {
		date = time.Now()
	}
	year := date.Year()

	var n int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO voucher_sequences (year, last_no) VALUES ($1, 1)
		ON CONFLICT (year) DO UPDATE SET last_no = voucher_sequences.last_no + 1
		RETURNING last_no`, year,
	).Scan(&n)
	if err != nil {
		return "", translateError(err, domainerrors.ErrPostingNotFound)
	}
	return fmt.Sprintf("%s-%d-%06d", r.prefix, year, n), nil
}

// RecordPosting writes the voucher legs and the receipt's posted flag in one
// transaction.
func (r *PostingRepository) RecordPosting(ctx context.Context, rec *receipt.Receipt, voucher *ledger.Voucher) error {
	err := pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if err := insertPostings(ctx, tx, voucher.Entries); err != nil {
			return err
		}
		return setPostedFlag(ctx, tx, rec)
	})
	if domainerrors.IsType(err, domainerrors.ErrorTypeConflict) {
		return err
	}
	return translateError(err, domainerrors.ErrPostingNotFound)
}

// GetPosting loads one ledger entry by id.
func (r *PostingRepository) GetPosting(ctx context.Context, postingID uuid.UUID) (ledger.Posting, error) {
	var (
		p        ledger.Posting
		account  string
		debit    decimal.Decimal
		credit   decimal.Decimal
		currency string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, document_id, voucher_no, date, account,
		       debit_amount, credit_amount, currency, narration,
		       is_reversed, reversal_reason, created_at
		FROM postings
		WHERE id = $1`, postingID,
	).Scan(
		&p.ID, &p.DocumentID, &p.VoucherNo, &p.Date, &account,
		&debit, &credit, &currency, &p.Narration,
		&p.IsReversed, &p.ReversalReason, &p.CreatedAt,
	)
	if err != nil {
		return ledger.Posting{}, translateError(err, domainerrors.ErrPostingNotFound)
	}
	p.Account = ledger.AccountRef(account)
	p.DebitAmount = values.MustNewMoney(debit, currency)
	p.CreditAmount = values.MustNewMoney(credit, currency)
	return p, nil
}

// ActivePostings loads the non-reversed entries of a document.
func (r *PostingRepository) ActivePostings(ctx context.Context, documentID uuid.UUID) ([]ledger.Posting, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, document_id, voucher_no, date, account,
		       debit_amount, credit_amount, currency, narration,
		       is_reversed, reversal_reason, created_at
		FROM postings
		WHERE document_id = $1 AND is_reversed = FALSE
		ORDER BY created_at`, documentID)
	if err != nil {
		return nil, translateError(err, domainerrors.ErrPostingNotFound)
	}
	defer rows.Close()

	var postings []ledger.Posting
	for rows.Next() {
		var (
			p        ledger.Posting
			account  string
			debit    decimal.Decimal
			credit   decimal.Decimal
			currency string
		)
		if err := rows.Scan(
			&p.ID, &p.DocumentID, &p.VoucherNo, &p.Date, &account,
			&debit, &credit, &currency, &p.Narration,
			&p.IsReversed, &p.ReversalReason, &p.CreatedAt,
		); err != nil {
			return nil, translateError(err, domainerrors.ErrPostingNotFound)
		}
		p.Account = ledger.AccountRef(account)
		p.DebitAmount = values.MustNewMoney(debit, currency)
		p.CreditAmount = values.MustNewMoney(credit, currency)
		postings = append(postings, p)
	}
	return postings, rows.Err()
}

// RecordReversal writes the offsetting voucher, flags the original entries,
// and clears the receipt's posted flag, all in one transaction.
func (r *PostingRepository) RecordReversal(ctx context.Context, rec *receipt.Receipt, voucher *ledger.Voucher, reversed []ledger.Posting) error {
	err := pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if err := insertPostings(ctx, tx, voucher.Entries); err != nil {
			return err
		}
		for i := range reversed {
			tag, err := tx.Exec(ctx, `
				UPDATE postings SET is_reversed = TRUE, reversal_reason = $2
				WHERE id = $1 AND is_reversed = FALSE`,
				reversed[i].ID, reversed[i].ReversalReason,
			)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return domainerrors.ErrPostingNotFound
			}
		}
		return setPostedFlag(ctx, tx, rec)
	})
	if domainerrors.IsType(err, domainerrors.ErrorTypeConflict) ||
		domainerrors.IsType(err, domainerrors.ErrorTypeNotFound) {
		return err
	}
	return translateError(err, domainerrors.ErrPostingNotFound)
}

func insertPostings(ctx context.Context, tx pgx.Tx, entries []ledger.Posting) error {
	for i := range entries {
		p := &entries[i]
		_, err := tx.Exec(ctx, `
			INSERT INTO postings (
				id, document_id, voucher_no, date, account,
				debit_amount, credit_amount, currency, narration,
				is_reversed, reversal_reason, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			p.ID, p.DocumentID, p.VoucherNo, p.Date, string(p.Account),
			p.DebitAmount.Amount(), p.CreditAmount.Amount(), p.DebitAmount.Currency(),
			p.Narration, p.IsReversed, p.ReversalReason, p.CreatedAt,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// setPostedFlag persists the receipt's posting state under the version check.
func setPostedFlag(ctx context.Context, tx pgx.Tx, rec *receipt.Receipt) error {
	tag, err := tx.Exec(ctx, `
		UPDATE receipts SET is_posted = $2, updated_at = $3, version = version + 1
		WHERE id = $1 AND version = $4`,
		rec.ID, rec.IsPosted, time.Now(), rec.Version,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainerrors.ErrStaleDocument
	}
	rec.Version++
	return nil
}
