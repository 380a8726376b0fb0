package fixtures

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/leaseworks/lease-engine/internal/domain/approval"
	"github.com/leaseworks/lease-engine/internal/domain/contract"
	"github.com/leaseworks/lease-engine/internal/domain/values"
)

// ContractBuilder builds contract drafts for tests.
type ContractBuilder struct {
	t        *testing.T
	number   string
	company  uuid.UUID
	currency string
	items    []contract.LineItem
	approval *approval.State
}

// NewContractBuilder creates a builder with sensible defaults.
func NewContractBuilder(t *testing.T) *ContractBuilder {
	return &ContractBuilder{
		t:        t,
		number:   "LC-2026-00001",
		company:  uuid.New(),
		currency: values.USD,
	}
}

func (b *ContractBuilder) WithNumber(number string) *ContractBuilder {
	b.number = number
	return b
}

func (b *ContractBuilder) WithCurrency(currency string) *ContractBuilder {
	b.currency = currency
	return b
}

// WithUnitTerm adds a rent term with the given monthly amount and installments.
func (b *ContractBuilder) WithUnitTerm(monthly float64, installments int) *ContractBuilder {
	item, err := contract.NewUnitTerm("unit term", decimal.NewFromFloat(monthly), installments, b.currency)
	require.NoError(b.t, err)
	b.items = append(b.items, *item)
	return b
}

// WithCharge adds a flat charge row.
func (b *ContractBuilder) WithCharge(amount float64) *ContractBuilder {
	item, err := contract.NewCharge("service charge", decimal.NewFromFloat(amount), b.currency)
	require.NoError(b.t, err)
	b.items = append(b.items, *item)
	return b
}

// WithApprovalStatus forces the approval status.
func (b *ContractBuilder) WithApprovalStatus(status approval.Status) *ContractBuilder {
	b.approval = &approval.State{Status: status}
	return b
}

// Build assembles the contract.
func (b *ContractBuilder) Build() *contract.Contract {
	c, err := contract.NewContract(b.number, b.company, b.currency)
	require.NoError(b.t, err)
	for _, item := range b.items {
		require.NoError(b.t, c.AddLineItem(item))
	}
	if b.approval != nil {
		c.Approval = *b.approval
	}
	return c
}

// UnitTermWithDates builds a unit term carrying a populated date range.
func UnitTermWithDates(t *testing.T, monthly float64, from, to time.Time) contract.LineItem {
	item, err := contract.NewUnitTerm("unit term", decimal.NewFromFloat(monthly), 12, values.USD)
	require.NoError(t, err)
	item.FromDate = from
	item.ToDate = to
	return *item
}
