package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/leaseworks/lease-engine/internal/domain/approval"
	"github.com/leaseworks/lease-engine/internal/domain/contract"
	"github.com/leaseworks/lease-engine/internal/domain/ledger"
	"github.com/leaseworks/lease-engine/internal/domain/receipt"
	"github.com/leaseworks/lease-engine/internal/domain/values"
)

// ContractRepository mock
type ContractRepository struct {
	mock.Mock
}

func (m *ContractRepository) Create(ctx context.Context, c *contract.Contract) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *ContractRepository) GetByID(ctx context.Context, id uuid.UUID) (*contract.Contract, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contract.Contract), args.Error(1)
}

func (m *ContractRepository) Update(ctx context.Context, c *contract.Contract) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *ContractRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// ReceiptRepository mock
type ReceiptRepository struct {
	mock.Mock
}

func (m *ReceiptRepository) Create(ctx context.Context, r *receipt.Receipt) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *ReceiptRepository) GetByID(ctx context.Context, id uuid.UUID) (*receipt.Receipt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*receipt.Receipt), args.Error(1)
}

func (m *ReceiptRepository) Update(ctx context.Context, r *receipt.Receipt) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *ReceiptRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// PostingRepository mock
type PostingRepository struct {
	mock.Mock
}

func (m *PostingRepository) NextVoucherNumber(ctx context.Context, date time.Time) (string, error) {
	args := m.Called(ctx, date)
	return args.String(0), args.Error(1)
}

func (m *PostingRepository) RecordPosting(ctx context.Context, r *receipt.Receipt, voucher *ledger.Voucher) error {
	args := m.Called(ctx, r, voucher)
	return args.Error(0)
}

func (m *PostingRepository) GetPosting(ctx context.Context, postingID uuid.UUID) (ledger.Posting, error) {
	args := m.Called(ctx, postingID)
	return args.Get(0).(ledger.Posting), args.Error(1)
}

func (m *PostingRepository) ActivePostings(ctx context.Context, documentID uuid.UUID) ([]ledger.Posting, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ledger.Posting), args.Error(1)
}

func (m *PostingRepository) RecordReversal(ctx context.Context, r *receipt.Receipt, voucher *ledger.Voucher, reversed []ledger.Posting) error {
	args := m.Called(ctx, r, voucher, reversed)
	return args.Error(0)
}

// InvoiceBalanceLookup mock
type InvoiceBalanceLookup struct {
	mock.Mock
}

func (m *InvoiceBalanceLookup) OutstandingBalance(ctx context.Context, invoiceRef uuid.UUID) (values.Money, error) {
	args := m.Called(ctx, invoiceRef)
	return args.Get(0).(values.Money), args.Error(1)
}

// TaxRateLookup mock
type TaxRateLookup struct {
	mock.Mock
}

func (m *TaxRateLookup) GetTaxRate(ctx context.Context, ref values.TaxRateRef) (values.TaxPercentage, error) {
	args := m.Called(ctx, ref)
	return args.Get(0).(values.TaxPercentage), args.Error(1)
}

// StateRepository mock
type StateRepository struct {
	mock.Mock
}

func (m *StateRepository) GetState(ctx context.Context, documentID uuid.UUID) (approval.State, error) {
	args := m.Called(ctx, documentID)
	return args.Get(0).(approval.State), args.Error(1)
}

func (m *StateRepository) SaveState(ctx context.Context, documentID uuid.UUID, state approval.State) error {
	args := m.Called(ctx, documentID, state)
	return args.Error(0)
}

// Authorizer mock
type Authorizer struct {
	mock.Mock
}

func (m *Authorizer) IsAuthorized(ctx context.Context, actor approval.Actor, action approval.Action) (bool, error) {
	args := m.Called(ctx, actor, action)
	return args.Bool(0), args.Error(1)
}
