package receipt

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/leaseworks/lease-engine/internal/domain/approval"
	domainerrors "github.com/leaseworks/lease-engine/internal/domain/errors"
	"github.com/leaseworks/lease-engine/internal/domain/validation"
	"github.com/leaseworks/lease-engine/internal/domain/values"
)

// PaymentMethod is how the receipt's money arrived.
type PaymentMethod int

const (
	MethodCash PaymentMethod = iota
	MethodCheque
	MethodTransfer
)

func (m PaymentMethod) String() string {
	switch m {
	case MethodCash:
		return "cash"
	case MethodCheque:
		return "cheque"
	case MethodTransfer:
		return "transfer"
	default:
		return "unknown"
	}
}

// RequiresDeposit reports whether the method goes through a bank deposit
// step before clearing. Transfers arrive cleared at the bank already.
func (m PaymentMethod) RequiresDeposit() bool {
	return m == MethodCash || m == MethodCheque
}

// PaymentStatus is the receipt's position in the payment lifecycle.
type PaymentStatus int

const (
	PaymentPending PaymentStatus = iota
	PaymentReceived
	PaymentDeposited
	PaymentCleared
	PaymentBounced
	PaymentCancelled
)

func (s PaymentStatus) String() string {
	switch s {
	case PaymentPending:
		return "pending"
	case PaymentReceived:
		return "received"
	case PaymentDeposited:
		return "deposited"
	case PaymentCleared:
		return "cleared"
	case PaymentBounced:
		return "bounced"
	case PaymentCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Allocation is a portion of the receipt's net amount assigned to one
// invoice. Owned by the receipt; the sum over allocations never exceeds
// NetAmount while the receipt is in draft.
type Allocation struct {
	InvoiceRef uuid.UUID    `json:"invoice_ref"`
	Amount     values.Money `json:"amount"`
	Notes      string       `json:"notes,omitempty"`
}

// Receipt is a payment receipt document: a net amount, its allocations to
// invoices, and the approval/payment/posting state that together decide
// which operations are legal.
type Receipt struct {
	ID         uuid.UUID     `json:"id"`
	Number     string        `json:"number"`
	ContractID uuid.UUID     `json:"contract_id"`
	PayerID    uuid.UUID     `json:"payer_id"`
	Method     PaymentMethod `json:"method"`

	ReceivedAmount  values.Money `json:"received_amount"`
	SecurityDeposit values.Money `json:"security_deposit"`
	Penalty         values.Money `json:"penalty"`
	Discount        values.Money `json:"discount"`
	NetAmount       values.Money `json:"net_amount"`

	Allocations []Allocation `json:"allocations,omitempty"`

	Approval approval.State `json:"approval"`
	Payment  PaymentStatus  `json:"payment_status"`
	IsPosted bool           `json:"is_posted"`

	BankName      string     `json:"bank_name,omitempty"`
	DepositDate   *time.Time `json:"deposit_date,omitempty"`
	ClearanceDate *time.Time `json:"clearance_date,omitempty"`
	StatusReason  string     `json:"status_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`
}

// Amounts are the raw money inputs of a receipt.
type Amounts struct {
	Received        decimal.Decimal
	SecurityDeposit decimal.Decimal
	Penalty         decimal.Decimal
	Discount        decimal.Decimal
}

// NewReceipt creates a receipt for a contract. A cash/cheque/transfer
// receipt starts Received: creation is the act of taking the money.
func NewReceipt(number string, contractID, payerID uuid.UUID, method PaymentMethod, amounts Amounts, currency string) (*Receipt, error) {
	if number == "" {
		return nil, domainerrors.NewValidationError("EMPTY_NUMBER", "receipt number is required")
	}
	if contractID == uuid.Nil {
		return nil, domainerrors.NewValidationError("NIL_CONTRACT", "contract id is required")
	}
	if err := validation.ValidatePositiveAmount("received amount", amounts.Received); err != nil {
		return nil, domainerrors.NewValidationError("INVALID_AMOUNT", err.Error())
	}
	for field, amt := range map[string]decimal.Decimal{
		"security deposit": amounts.SecurityDeposit,
		"penalty":          amounts.Penalty,
		"discount":         amounts.Discount,
	} {
		if err := validation.ValidateAmount(field, amt); err != nil {
			return nil, domainerrors.NewValidationError("INVALID_AMOUNT", err.Error())
		}
	}

	now := time.Now()
	r := &Receipt{
		ID:              uuid.New(),
		Number:          number,
		ContractID:      contractID,
		PayerID:         payerID,
		Method:          method,
		ReceivedAmount:  values.MustNewMoney(amounts.Received, currency),
		SecurityDeposit: values.MustNewMoney(amounts.SecurityDeposit, currency),
		Penalty:         values.MustNewMoney(amounts.Penalty, currency),
		Discount:        values.MustNewMoney(amounts.Discount, currency),
		Approval:        approval.State{Status: approval.StatusNotRequired},
		Payment:         PaymentReceived,
		CreatedAt:       now,
		UpdatedAt:       now,
		Version:         1,
	}
	r.recomputeNet()
	return r, nil
}

// Currency returns the receipt's currency.
func (r *Receipt) Currency() string {
	return r.ReceivedAmount.Currency()
}

// recomputeNet derives NetAmount = round2(received + deposit + penalty - discount).
func (r *Receipt) recomputeNet() {
	net := r.ReceivedAmount.Amount().
		Add(r.SecurityDeposit.Amount()).
		Add(r.Penalty.Amount()).
		Sub(r.Discount.Amount())
	r.NetAmount = values.MustNewMoney(values.Round2(net), r.Currency())
}

// UpdateAmounts replaces the raw money inputs and re-derives the net amount.
// Rejected while approved or posted.
func (r *Receipt) UpdateAmounts(amounts Amounts) error {
	if err := r.EnsureEditable(); err != nil {
		return err
	}
	if err := validation.ValidatePositiveAmount("received amount", amounts.Received); err != nil {
		return domainerrors.NewValidationError("INVALID_AMOUNT", err.Error())
	}
	for field, amt := range map[string]decimal.Decimal{
		"security deposit": amounts.SecurityDeposit,
		"penalty":          amounts.Penalty,
		"discount":         amounts.Discount,
	} {
		if err := validation.ValidateAmount(field, amt); err != nil {
			return domainerrors.NewValidationError("INVALID_AMOUNT", err.Error())
		}
	}

	currency := r.Currency()
	r.ReceivedAmount = values.MustNewMoney(amounts.Received, currency)
	r.SecurityDeposit = values.MustNewMoney(amounts.SecurityDeposit, currency)
	r.Penalty = values.MustNewMoney(amounts.Penalty, currency)
	r.Discount = values.MustNewMoney(amounts.Discount, currency)
	r.recomputeNet()

	// Amount changes invalidate any allocation proposal already applied.
	r.Allocations = nil
	r.UpdatedAt = time.Now()
	return nil
}

// AllocatedAmount sums the applied allocations.
func (r *Receipt) AllocatedAmount() values.Money {
	total := values.Zero(r.Currency())
	for i := range r.Allocations {
		sum, err := total.Add(r.Allocations[i].Amount)
		if err != nil {
			continue
		}
		total = sum
	}
	return total
}

// UnallocatedAmount is the part of the net amount not yet assigned.
func (r *Receipt) UnallocatedAmount() values.Money {
	diff, err := r.NetAmount.Sub(r.AllocatedAmount())
	if err != nil || diff.IsNegative() {
		return values.Zero(r.Currency())
	}
	return diff
}

// DocumentID implements ledger.PostableDocument.
func (r *Receipt) DocumentID() uuid.UUID {
	return r.ID
}

// Posted implements ledger.PostableDocument.
func (r *Receipt) Posted() bool {
	return r.IsPosted
}

// MarkPosted implements ledger.PostableDocument.
func (r *Receipt) MarkPosted() {
	r.IsPosted = true
	r.UpdatedAt = time.Now()
}

// ClearPosted implements ledger.PostableDocument.
func (r *Receipt) ClearPosted() {
	r.IsPosted = false
	r.UpdatedAt = time.Now()
}
