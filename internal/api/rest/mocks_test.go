package rest

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/leaseworks/lease-engine/internal/domain/approval"
	"github.com/leaseworks/lease-engine/internal/domain/contract"
	"github.com/leaseworks/lease-engine/internal/domain/ledger"
	"github.com/leaseworks/lease-engine/internal/domain/receipt"
	"github.com/leaseworks/lease-engine/internal/service/approvalflow"
	"github.com/leaseworks/lease-engine/internal/service/contractops"
	"github.com/leaseworks/lease-engine/internal/service/receiptops"
)

type mockContractService struct {
	mock.Mock
}

func (m *mockContractService) CreateContract(ctx context.Context, req contractops.CreateContractRequest) (*contract.Contract, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contract.Contract), args.Error(1)
}

func (m *mockContractService) GetContract(ctx context.Context, id uuid.UUID) (*contract.Contract, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contract.Contract), args.Error(1)
}

func (m *mockContractService) AddUnitTerm(ctx context.Context, contractID uuid.UUID, req contractops.UnitTermRequest) (*contract.Contract, error) {
	args := m.Called(ctx, contractID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contract.Contract), args.Error(1)
}

func (m *mockContractService) AddCharge(ctx context.Context, contractID uuid.UUID, req contractops.ChargeRequest) (*contract.Contract, error) {
	args := m.Called(ctx, contractID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contract.Contract), args.Error(1)
}

func (m *mockContractService) RecalculateLineItem(ctx context.Context, contractID, itemID uuid.UUID, change contract.FieldChange) (contract.LineItem, error) {
	args := m.Called(ctx, contractID, itemID, change)
	return args.Get(0).(contract.LineItem), args.Error(1)
}

func (m *mockContractService) RemoveLineItem(ctx context.Context, contractID, itemID uuid.UUID) error {
	args := m.Called(ctx, contractID, itemID)
	return args.Error(0)
}

func (m *mockContractService) DeleteContract(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockReceiptService struct {
	mock.Mock
}

func (m *mockReceiptService) CreateReceipt(ctx context.Context, req receiptops.CreateReceiptRequest) (*receipt.Receipt, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*receipt.Receipt), args.Error(1)
}

func (m *mockReceiptService) GetReceipt(ctx context.Context, id uuid.UUID) (*receipt.Receipt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*receipt.Receipt), args.Error(1)
}

func (m *mockReceiptService) UpdateAmounts(ctx context.Context, id uuid.UUID, amounts receipt.Amounts) (*receipt.Receipt, error) {
	args := m.Called(ctx, id, amounts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*receipt.Receipt), args.Error(1)
}

func (m *mockReceiptService) Allocate(ctx context.Context, id uuid.UUID, req receiptops.AllocationRequest) (receipt.Proposal, error) {
	args := m.Called(ctx, id, req)
	return args.Get(0).(receipt.Proposal), args.Error(1)
}

func (m *mockReceiptService) ChangePaymentStatus(ctx context.Context, id uuid.UUID, status receipt.PaymentStatus, aux receipt.StatusChange) (*receipt.Receipt, error) {
	args := m.Called(ctx, id, status, aux)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*receipt.Receipt), args.Error(1)
}

func (m *mockReceiptService) Post(ctx context.Context, id uuid.UUID, req receiptops.PostRequest) (*ledger.Voucher, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Voucher), args.Error(1)
}

func (m *mockReceiptService) Reverse(ctx context.Context, id uuid.UUID, reason string) (*ledger.Voucher, error) {
	args := m.Called(ctx, id, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Voucher), args.Error(1)
}

func (m *mockReceiptService) DeleteReceipt(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockApprovalService struct {
	mock.Mock
}

func (m *mockApprovalService) Submit(ctx context.Context, documentID uuid.UUID) (approval.State, error) {
	args := m.Called(ctx, documentID)
	return args.Get(0).(approval.State), args.Error(1)
}

func (m *mockApprovalService) Approve(ctx context.Context, documentID uuid.UUID, actor approval.Actor, comment string) (approval.State, error) {
	args := m.Called(ctx, documentID, actor, comment)
	return args.Get(0).(approval.State), args.Error(1)
}

func (m *mockApprovalService) Reject(ctx context.Context, documentID uuid.UUID, actor approval.Actor, reason string) (approval.State, error) {
	args := m.Called(ctx, documentID, actor, reason)
	return args.Get(0).(approval.State), args.Error(1)
}

func (m *mockApprovalService) Reset(ctx context.Context, documentID uuid.UUID, actor approval.Actor) (approval.State, error) {
	args := m.Called(ctx, documentID, actor)
	return args.Get(0).(approval.State), args.Error(1)
}

func (m *mockApprovalService) Bulk(ctx context.Context, documentIDs []uuid.UUID, actor approval.Actor, action approval.BulkAction, note string) (approval.BulkOutcome, error) {
	args := m.Called(ctx, documentIDs, actor, action, note)
	return args.Get(0).(approval.BulkOutcome), args.Error(1)
}

var (
	_ contractops.Service  = (*mockContractService)(nil)
	_ receiptops.Service   = (*mockReceiptService)(nil)
	_ approvalflow.Service = (*mockApprovalService)(nil)
)
