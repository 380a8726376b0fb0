package ledger

import (
	"time"

	"github.com/google/uuid"

	domainerrors "github.com/leaseworks/lease-engine/internal/domain/errors"
	"github.com/leaseworks/lease-engine/internal/domain/validation"
	"github.com/leaseworks/lease-engine/internal/domain/values"
)

// PostableDocument is the slice of a financial document the ledger needs:
// its identity and posted flag. Editing protection lives with the approval
// gate; the ledger only refuses double posting.
type PostableDocument interface {
	DocumentID() uuid.UUID
	Posted() bool
	MarkPosted()
	ClearPosted()
}

// PostRequest describes one posting action: a single amount moved between
// the two accounts of the fixed posting model.
type PostRequest struct {
	Date          time.Time
	DebitAccount  AccountRef
	CreditAccount AccountRef
	Amount        values.Money
	Narration     string
}

// Post builds the balanced voucher for a document and flips its posted flag.
// The two legs share the supplied voucher number and always balance by
// construction. Persisting the legs atomically is the storage layer's job.
func Post(doc PostableDocument, req PostRequest, voucherNo string) (*Voucher, error) {
	if doc.Posted() {
		return nil, domainerrors.NewAlreadyPostedError("document is already posted")
	}
	if voucherNo == "" {
		return nil, domainerrors.NewValidationError("EMPTY_VOUCHER", "voucher number is required")
	}
	if req.DebitAccount == req.CreditAccount {
		return nil, domainerrors.NewValidationError("SAME_ACCOUNT", "debit and credit accounts must differ")
	}
	if err := validation.ValidatePositiveAmount("posting amount", req.Amount.Amount()); err != nil {
		return nil, domainerrors.NewValidationError("INVALID_AMOUNT", err.Error())
	}

	date := req.Date
	if date.IsZero() {
		date = time.Now()
	}
	amount := req.Amount.Round()
	zero := values.Zero(amount.Currency())
	now := time.Now()

	voucher := &Voucher{
		No:   voucherNo,
		Date: date,
		Entries: []Posting{
			{
				ID:           uuid.New(),
				DocumentID:   doc.DocumentID(),
				VoucherNo:    voucherNo,
				Date:         date,
				Account:      req.DebitAccount,
				DebitAmount:  amount,
				CreditAmount: zero,
				Narration:    req.Narration,
				CreatedAt:    now,
			},
			{
				ID:           uuid.New(),
				DocumentID:   doc.DocumentID(),
				VoucherNo:    voucherNo,
				Date:         date,
				Account:      req.CreditAccount,
				DebitAmount:  zero,
				CreditAmount: amount,
				Narration:    req.Narration,
				CreatedAt:    now,
			},
		},
	}

	doc.MarkPosted()
	return voucher, nil
}

// Reverse builds the offsetting voucher for a previously posted set of
// entries, marks the originals reversed, and clears the document's posted
// flag so it may be posted again under a fresh voucher. The original entries
// stay reversed permanently.
func Reverse(doc PostableDocument, originals []Posting, reason, newVoucherNo string) (*Voucher, error) {
	if !doc.Posted() {
		return nil, domainerrors.NewNotPostedError("document has no active posting to reverse")
	}
	if len(originals) == 0 {
		return nil, domainerrors.NewNotPostedError("no postings found for reversal")
	}
	if err := validation.ValidateReason(reason); err != nil {
		return nil, domainerrors.NewValidationError("EMPTY_REASON", err.Error())
	}
	if newVoucherNo == "" {
		return nil, domainerrors.NewValidationError("EMPTY_VOUCHER", "voucher number is required")
	}
	for i := range originals {
		if originals[i].IsReversed {
			return nil, domainerrors.NewNotPostedError(
				"posting " + originals[i].ID.String() + " is already reversed")
		}
	}

	date := time.Now()
	voucher := &Voucher{No: newVoucherNo, Date: date}

	for i := range originals {
		orig := &originals[i]
		voucher.Entries = append(voucher.Entries, Posting{
			ID:           uuid.New(),
			DocumentID:   orig.DocumentID,
			VoucherNo:    newVoucherNo,
			Date:         date,
			Account:      orig.Account,
			DebitAmount:  orig.CreditAmount,
			CreditAmount: orig.DebitAmount,
			Narration:    "Reversal of " + orig.VoucherNo + ": " + reason,
			CreatedAt:    date,
		})
		orig.IsReversed = true
		orig.ReversalReason = reason
	}

	doc.ClearPosted()
	return voucher, nil
}
