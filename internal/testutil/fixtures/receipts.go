package fixtures

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/leaseworks/lease-engine/internal/domain/approval"
	"github.com/leaseworks/lease-engine/internal/domain/receipt"
	"github.com/leaseworks/lease-engine/internal/domain/values"
)

// ReceiptBuilder builds receipt documents for tests.
type ReceiptBuilder struct {
	t        *testing.T
	number   string
	method   receipt.PaymentMethod
	amounts  receipt.Amounts
	currency string
	approval *approval.State
	payment  *receipt.PaymentStatus
	posted   bool
}

// NewReceiptBuilder creates a builder with sensible defaults: a cash
// receipt of 5000 with a 1000 security deposit and a 200 discount.
func NewReceiptBuilder(t *testing.T) *ReceiptBuilder {
	return &ReceiptBuilder{
		t:      t,
		number: "RC-2026-00001",
		method: receipt.MethodCash,
		amounts: receipt.Amounts{
			Received:        decimal.NewFromInt(5000),
			SecurityDeposit: decimal.NewFromInt(1000),
			Penalty:         decimal.Zero,
			Discount:        decimal.NewFromInt(200),
		},
		currency: values.USD,
	}
}

func (b *ReceiptBuilder) WithNumber(number string) *ReceiptBuilder {
	b.number = number
	return b
}

func (b *ReceiptBuilder) WithMethod(method receipt.PaymentMethod) *ReceiptBuilder {
	b.method = method
	return b
}

func (b *ReceiptBuilder) WithAmounts(received, deposit, penalty, discount float64) *ReceiptBuilder {
	b.amounts = receipt.Amounts{
		Received:        decimal.NewFromFloat(received),
		SecurityDeposit: decimal.NewFromFloat(deposit),
		Penalty:         decimal.NewFromFloat(penalty),
		Discount:        decimal.NewFromFloat(discount),
	}
	return b
}

func (b *ReceiptBuilder) WithApprovalStatus(status approval.Status) *ReceiptBuilder {
	b.approval = &approval.State{Status: status}
	return b
}

func (b *ReceiptBuilder) WithPaymentStatus(status receipt.PaymentStatus) *ReceiptBuilder {
	b.payment = &status
	return b
}

func (b *ReceiptBuilder) Posted() *ReceiptBuilder {
	b.posted = true
	return b
}

// Build assembles the receipt.
func (b *ReceiptBuilder) Build() *receipt.Receipt {
	r, err := receipt.NewReceipt(b.number, uuid.New(), uuid.New(), b.method, b.amounts, b.currency)
	require.NoError(b.t, err)
	if b.approval != nil {
		r.Approval = *b.approval
	}
	if b.payment != nil {
		r.Payment = *b.payment
	}
	if b.posted {
		r.IsPosted = true
	}
	return r
}
