package receipt

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	domainerrors "github.com/leaseworks/lease-engine/internal/domain/errors"
	"github.com/leaseworks/lease-engine/internal/domain/validation"
	"github.com/leaseworks/lease-engine/internal/domain/values"
)

// AllocationMode selects how a receipt's net amount maps onto invoices.
type AllocationMode string

const (
	// ModeSingle targets exactly one invoice; the amount is auto-computed
	// and not independently editable.
	ModeSingle AllocationMode = "single"
	// ModeMultiple takes caller-supplied per-invoice amounts.
	ModeMultiple AllocationMode = "multiple"
)

// AllocationEntry is one caller-supplied (invoice, amount) pair in
// multiple mode.
type AllocationEntry struct {
	InvoiceRef uuid.UUID
	Amount     decimal.Decimal
	Notes      string
}

// Proposal is the outcome of an allocation run: the allocations to record
// and whatever part of the net amount is left over. A proposal touches no
// invoice balances; committing it is the ledger's job.
type Proposal struct {
	Allocations []Allocation `json:"allocations"`
	Unallocated values.Money `json:"unallocated_amount"`
}

// AllocationEngine distributes a receipt's net amount across invoices. It is
// pure: it reads the receipt and proposes, and the invariant
// sum(allocations) <= NetAmount holds for every proposal it returns.
type AllocationEngine struct{}

// NewAllocationEngine creates the engine.
func NewAllocationEngine() *AllocationEngine {
	return &AllocationEngine{}
}

// ProposeSingle allocates min(NetAmount, outstanding) to one invoice.
func (e *AllocationEngine) ProposeSingle(r *Receipt, invoiceRef uuid.UUID, outstanding values.Money) (Proposal, error) {
	if invoiceRef == uuid.Nil {
		return Proposal{}, domainerrors.NewValidationError("NIL_INVOICE", "invoice reference is required")
	}
	if outstanding.Currency() != r.Currency() {
		return Proposal{}, domainerrors.NewValidationError("CURRENCY_MISMATCH",
			"invoice balance currency does not match receipt currency")
	}
	if outstanding.IsNegative() {
		return Proposal{}, domainerrors.NewValidationError("NEGATIVE_BALANCE",
			"invoice outstanding balance cannot be negative")
	}

	amount := r.NetAmount.Min(outstanding).Round()
	unallocated, err := r.NetAmount.Sub(amount)
	if err != nil {
		return Proposal{}, domainerrors.NewInternalError("allocation arithmetic failed").WithCause(err)
	}

	return Proposal{
		Allocations: []Allocation{{InvoiceRef: invoiceRef, Amount: amount}},
		Unallocated: unallocated.Round(),
	}, nil
}

// ProposeMultiple validates caller-supplied pairs against the net amount.
// An over-allocating set is rejected whole; no partial proposal comes back.
func (e *AllocationEngine) ProposeMultiple(r *Receipt, entries []AllocationEntry) (Proposal, error) {
	if len(entries) == 0 {
		return Proposal{}, domainerrors.NewValidationError("NO_ENTRIES", "at least one allocation entry is required")
	}

	seen := make(map[uuid.UUID]bool, len(entries))
	allocations := make([]Allocation, 0, len(entries))
	total := values.Zero(r.Currency())

	for _, entry := range entries {
		if entry.InvoiceRef == uuid.Nil {
			return Proposal{}, domainerrors.NewValidationError("NIL_INVOICE", "invoice reference is required")
		}
		if seen[entry.InvoiceRef] {
			return Proposal{}, domainerrors.NewValidationError("DUPLICATE_INVOICE",
				"invoice "+entry.InvoiceRef.String()+" appears more than once")
		}
		seen[entry.InvoiceRef] = true

		if err := validation.ValidatePositiveAmount("allocation amount", entry.Amount); err != nil {
			return Proposal{}, domainerrors.NewValidationError("INVALID_AMOUNT", err.Error())
		}

		amount := values.MustNewMoney(values.Round2(entry.Amount), r.Currency())
		sum, err := total.Add(amount)
		if err != nil {
			return Proposal{}, domainerrors.NewInternalError("allocation arithmetic failed").WithCause(err)
		}
		total = sum

		allocations = append(allocations, Allocation{
			InvoiceRef: entry.InvoiceRef,
			Amount:     amount,
			Notes:      entry.Notes,
		})
	}

	if total.GreaterThan(r.NetAmount) {
		return Proposal{}, domainerrors.NewOverAllocationError(
			"allocated " + total.String() + " exceeds net amount " + r.NetAmount.String())
	}

	unallocated, err := r.NetAmount.Sub(total)
	if err != nil {
		return Proposal{}, domainerrors.NewInternalError("allocation arithmetic failed").WithCause(err)
	}

	return Proposal{
		Allocations: allocations,
		Unallocated: unallocated.Round(),
	}, nil
}

// ApplyProposal records a proposal on the receipt. Rejected while the
// receipt is approved or posted; the invariant is re-checked so a stale
// proposal against edited amounts cannot over-allocate.
func (r *Receipt) ApplyProposal(p Proposal) error {
	if err := r.EnsureEditable(); err != nil {
		return err
	}

	total := values.Zero(r.Currency())
	for i := range p.Allocations {
		sum, err := total.Add(p.Allocations[i].Amount)
		if err != nil {
			return domainerrors.NewValidationError("CURRENCY_MISMATCH", err.Error())
		}
		total = sum
	}
	if total.GreaterThan(r.NetAmount) {
		return domainerrors.NewOverAllocationError(
			"allocated " + total.String() + " exceeds net amount " + r.NetAmount.String())
	}

	r.Allocations = append([]Allocation(nil), p.Allocations...)
	r.UpdatedAt = time.Now()
	return nil
}
