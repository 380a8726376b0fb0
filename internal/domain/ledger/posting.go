package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/leaseworks/lease-engine/internal/domain/values"
)

// AccountRef names one of the two ledger accounts a voucher touches. The
// engine uses a fixed two-account posting model; a chart of accounts is out
// of scope.
type AccountRef string

const (
	AccountBank       AccountRef = "bank"
	AccountCash       AccountRef = "cash"
	AccountReceivable AccountRef = "accounts_receivable"
	AccountDeposits   AccountRef = "security_deposits"
)

// Posting is one append-only ledger entry: a single debit or credit leg of a
// voucher. Entries are never deleted or edited in place; reversal appends
// offsetting entries and flags the originals.
type Posting struct {
	ID             uuid.UUID    `json:"id"`
	DocumentID     uuid.UUID    `json:"document_id"`
	VoucherNo      string       `json:"voucher_no"`
	Date           time.Time    `json:"date"`
	Account        AccountRef   `json:"account"`
	DebitAmount    values.Money `json:"debit_amount"`
	CreditAmount   values.Money `json:"credit_amount"`
	Narration      string       `json:"narration,omitempty"`
	IsReversed     bool         `json:"is_reversed"`
	ReversalReason string       `json:"reversal_reason,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}

// IsDebit reports whether this entry is the debit leg.
func (p *Posting) IsDebit() bool {
	return p.DebitAmount.IsPositive()
}

// Voucher groups the balanced entries produced by one posting action.
type Voucher struct {
	No      string    `json:"no"`
	Date    time.Time `json:"date"`
	Entries []Posting `json:"entries"`
}

// TotalDebits sums the debit legs of the voucher.
func (v *Voucher) TotalDebits() values.Money {
	return sumOf(v.Entries, func(p *Posting) values.Money { return p.DebitAmount })
}

// TotalCredits sums the credit legs of the voucher.
func (v *Voucher) TotalCredits() values.Money {
	return sumOf(v.Entries, func(p *Posting) values.Money { return p.CreditAmount })
}

// IsBalanced reports whether total debits equal total credits.
func (v *Voucher) IsBalanced() bool {
	return v.TotalDebits().Equal(v.TotalCredits())
}

func sumOf(entries []Posting, pick func(*Posting) values.Money) values.Money {
	if len(entries) == 0 {
		return values.Zero(values.USD)
	}
	total := values.Zero(pick(&entries[0]).Currency())
	for i := range entries {
		amt := pick(&entries[i])
		if amt.Currency() == "" {
			continue
		}
		sum, err := total.Add(amt)
		if err != nil {
			continue
		}
		total = sum
	}
	return total
}
