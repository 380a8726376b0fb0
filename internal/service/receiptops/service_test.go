package receiptops

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/leaseworks/lease-engine/internal/domain/approval"
	domainerrors "github.com/leaseworks/lease-engine/internal/domain/errors"
	"github.com/leaseworks/lease-engine/internal/domain/ledger"
	"github.com/leaseworks/lease-engine/internal/domain/receipt"
	"github.com/leaseworks/lease-engine/internal/domain/values"
	"github.com/leaseworks/lease-engine/internal/testutil/fixtures"
	"github.com/leaseworks/lease-engine/internal/testutil/mocks"
)

type deps struct {
	receipts *mocks.ReceiptRepository
	postings *mocks.PostingRepository
	invoices *mocks.InvoiceBalanceLookup
}

// Thresholds far above the builder's 5800.00 net keep lifecycle tests in
// NotRequired unless they opt in.
func approvalThreshold() values.Money {
	return values.MustNewMoney(decimal.NewFromInt(50000), values.USD)
}

func newTestService() (Service, deps) {
	d := deps{
		receipts: new(mocks.ReceiptRepository),
		postings: new(mocks.PostingRepository),
		invoices: new(mocks.InvoiceBalanceLookup),
	}
	return NewService(d.receipts, d.postings, d.invoices, approvalThreshold(), nil), d
}

func TestService_CreateReceipt(t *testing.T) {
	ctx := context.Background()

	t.Run("receipt below the threshold starts not required", func(t *testing.T) {
		svc, d := newTestService()
		d.receipts.On("Create", ctx, mock.AnythingOfType("*receipt.Receipt")).Return(nil)

		r, err := svc.CreateReceipt(ctx, CreateReceiptRequest{
			Number:     "RC-2026-00076",
			ContractID: uuid.New(),
			PayerID:    uuid.New(),
			Method:     receipt.MethodTransfer,
			Amounts:    receipt.Amounts{Received: decimal.NewFromInt(5000)},
			Currency:   values.USD,
		})
		require.NoError(t, err)
		assert.Equal(t, approval.StatusNotRequired, r.Approval.Status)
		assert.NoError(t, r.CanPost())
	})

	t.Run("receipt meeting the threshold starts pending and cannot post", func(t *testing.T) {
		svc, d := newTestService()
		d.receipts.On("Create", ctx, mock.AnythingOfType("*receipt.Receipt")).Return(nil)

		r, err := svc.CreateReceipt(ctx, CreateReceiptRequest{
			Number:     "RC-2026-00077",
			ContractID: uuid.New(),
			PayerID:    uuid.New(),
			Method:     receipt.MethodTransfer,
			Amounts:    receipt.Amounts{Received: decimal.NewFromInt(60000)},
			Currency:   values.USD,
		})
		require.NoError(t, err)
		assert.Equal(t, approval.StatusPending, r.Approval.Status)
		assert.True(t, domainerrors.IsType(r.CanPost(), domainerrors.ErrorTypeIllegalTransition))
	})

	t.Run("amount update crossing the threshold queues approval", func(t *testing.T) {
		svc, d := newTestService()
		r := fixtures.NewReceiptBuilder(t).Build()
		d.receipts.On("GetByID", ctx, r.ID).Return(r, nil)
		d.receipts.On("Update", ctx, r).Return(nil)

		got, err := svc.UpdateAmounts(ctx, r.ID, receipt.Amounts{Received: decimal.NewFromInt(75000)})
		require.NoError(t, err)
		assert.Equal(t, approval.StatusPending, got.Approval.Status)
	})
}

func TestService_Allocate(t *testing.T) {
	ctx := context.Background()

	t.Run("single mode caps at outstanding balance", func(t *testing.T) {
		svc, d := newTestService()
		r := fixtures.NewReceiptBuilder(t).Build() // net 5800.00
		invoiceRef := uuid.New()

		d.receipts.On("GetByID", ctx, r.ID).Return(r, nil)
		d.receipts.On("Update", ctx, r).Return(nil)
		d.invoices.On("OutstandingBalance", ctx, invoiceRef).
			Return(values.MustNewMoney(decimal.NewFromInt(4000), values.USD), nil)

		p, err := svc.Allocate(ctx, r.ID, AllocationRequest{
			Mode:       receipt.ModeSingle,
			InvoiceRef: invoiceRef,
		})
		require.NoError(t, err)
		require.Len(t, p.Allocations, 1)
		assert.Equal(t, "4000.00", p.Allocations[0].Amount.Amount().StringFixed(2))
		assert.Equal(t, "1800.00", p.Unallocated.Amount().StringFixed(2))
		assert.Equal(t, "4000.00", r.AllocatedAmount().Amount().StringFixed(2))
		d.receipts.AssertExpectations(t)
	})

	t.Run("multiple mode records each entry", func(t *testing.T) {
		svc, d := newTestService()
		r := fixtures.NewReceiptBuilder(t).Build()

		d.receipts.On("GetByID", ctx, r.ID).Return(r, nil)
		d.receipts.On("Update", ctx, r).Return(nil)

		p, err := svc.Allocate(ctx, r.ID, AllocationRequest{
			Mode: receipt.ModeMultiple,
			Entries: []receipt.AllocationEntry{
				{InvoiceRef: uuid.New(), Amount: decimal.NewFromInt(3000)},
				{InvoiceRef: uuid.New(), Amount: decimal.NewFromInt(2000)},
			},
		})
		require.NoError(t, err)
		assert.Len(t, p.Allocations, 2)
		assert.Equal(t, "800.00", p.Unallocated.Amount().StringFixed(2))
	})

	t.Run("over-allocation is rejected and nothing persists", func(t *testing.T) {
		svc, d := newTestService()
		r := fixtures.NewReceiptBuilder(t).Build()

		d.receipts.On("GetByID", ctx, r.ID).Return(r, nil)

		_, err := svc.Allocate(ctx, r.ID, AllocationRequest{
			Mode: receipt.ModeMultiple,
			Entries: []receipt.AllocationEntry{
				{InvoiceRef: uuid.New(), Amount: decimal.NewFromFloat(5800.01)},
			},
		})
		assert.True(t, domainerrors.IsType(err, domainerrors.ErrorTypeOverAllocation))
		assert.Empty(t, r.Allocations)
		d.receipts.AssertNotCalled(t, "Update")
	})

	t.Run("unknown mode", func(t *testing.T) {
		svc, d := newTestService()
		r := fixtures.NewReceiptBuilder(t).Build()
		d.receipts.On("GetByID", ctx, r.ID).Return(r, nil)

		_, err := svc.Allocate(ctx, r.ID, AllocationRequest{Mode: "split"})
		assert.True(t, domainerrors.IsValidation(err))
	})
}

func TestService_Post(t *testing.T) {
	ctx := context.Background()
	postReq := PostRequest{
		Date:          time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		DebitAccount:  ledger.AccountBank,
		CreditAccount: ledger.AccountReceivable,
		Narration:     "March rent",
	}

	t.Run("posts a balanced voucher and flips the flag", func(t *testing.T) {
		svc, d := newTestService()
		r := fixtures.NewReceiptBuilder(t).Build()

		d.receipts.On("GetByID", ctx, r.ID).Return(r, nil)
		d.postings.On("NextVoucherNumber", ctx, postReq.Date).Return("LV-2026-000123", nil)
		d.postings.On("RecordPosting", ctx, r, mock.AnythingOfType("*ledger.Voucher")).Return(nil)

		v, err := svc.Post(ctx, r.ID, postReq)
		require.NoError(t, err)
		assert.Equal(t, "LV-2026-000123", v.No)
		assert.True(t, v.IsBalanced())
		assert.Equal(t, "5800.00", v.TotalDebits().Amount().StringFixed(2))
		assert.True(t, r.IsPosted)
		d.postings.AssertExpectations(t)
	})

	t.Run("already posted receipt is refused", func(t *testing.T) {
		svc, d := newTestService()
		r := fixtures.NewReceiptBuilder(t).Posted().Build()
		d.receipts.On("GetByID", ctx, r.ID).Return(r, nil)

		_, err := svc.Post(ctx, r.ID, postReq)
		assert.True(t, domainerrors.IsType(err, domainerrors.ErrorTypeAlreadyPosted))
		d.postings.AssertNotCalled(t, "RecordPosting")
	})

	t.Run("pending approval blocks posting", func(t *testing.T) {
		svc, d := newTestService()
		r := fixtures.NewReceiptBuilder(t).WithApprovalStatus(approval.StatusPending).Build()
		d.receipts.On("GetByID", ctx, r.ID).Return(r, nil)

		_, err := svc.Post(ctx, r.ID, postReq)
		assert.True(t, domainerrors.IsType(err, domainerrors.ErrorTypeIllegalTransition))
	})
}

func TestService_Reverse(t *testing.T) {
	ctx := context.Background()

	t.Run("reverses the active posting under a new voucher", func(t *testing.T) {
		svc, d := newTestService()
		r := fixtures.NewReceiptBuilder(t).Posted().Build()
		originals := []ledger.Posting{
			{
				ID:           uuid.New(),
				DocumentID:   r.ID,
				VoucherNo:    "LV-2026-000123",
				Account:      ledger.AccountBank,
				DebitAmount:  r.NetAmount,
				CreditAmount: values.Zero(values.USD),
			},
			{
				ID:           uuid.New(),
				DocumentID:   r.ID,
				VoucherNo:    "LV-2026-000123",
				Account:      ledger.AccountReceivable,
				DebitAmount:  values.Zero(values.USD),
				CreditAmount: r.NetAmount,
			},
		}

		d.postings.On("GetPosting", ctx, originals[0].ID).Return(originals[0], nil)
		d.receipts.On("GetByID", ctx, r.ID).Return(r, nil)
		d.postings.On("ActivePostings", ctx, r.ID).Return(originals, nil)
		d.postings.On("NextVoucherNumber", ctx, mock.AnythingOfType("time.Time")).Return("LV-2026-000124", nil)
		d.postings.On("RecordReversal", ctx, r, mock.AnythingOfType("*ledger.Voucher"), originals).Return(nil)

		v, err := svc.Reverse(ctx, originals[0].ID, "wrong amount entered")
		require.NoError(t, err)
		assert.Equal(t, "LV-2026-000124", v.No)
		assert.True(t, v.IsBalanced())
		assert.False(t, r.IsPosted)
		for i := range originals {
			assert.True(t, originals[i].IsReversed)
		}
	})

	t.Run("posting of an unposted receipt has nothing to reverse", func(t *testing.T) {
		svc, d := newTestService()
		r := fixtures.NewReceiptBuilder(t).Build()
		stale := ledger.Posting{
			ID:         uuid.New(),
			DocumentID: r.ID,
			VoucherNo:  "LV-2025-000009",
			IsReversed: true,
		}
		d.postings.On("GetPosting", ctx, stale.ID).Return(stale, nil)
		d.receipts.On("GetByID", ctx, r.ID).Return(r, nil)

		_, err := svc.Reverse(ctx, stale.ID, "mistake")
		assert.True(t, domainerrors.IsType(err, domainerrors.ErrorTypeNotPosted))
		d.postings.AssertNotCalled(t, "RecordReversal")
	})

	t.Run("unknown posting id resolves to not found, not a missing document", func(t *testing.T) {
		svc, d := newTestService()
		postingID := uuid.New()
		d.postings.On("GetPosting", ctx, postingID).
			Return(ledger.Posting{}, domainerrors.ErrPostingNotFound)

		_, err := svc.Reverse(ctx, postingID, "mistake")
		assert.ErrorIs(t, err, domainerrors.ErrPostingNotFound)
		d.receipts.AssertNotCalled(t, "GetByID")
	})
}

func TestService_ChangePaymentStatus(t *testing.T) {
	ctx := context.Background()

	svc, d := newTestService()
	r := fixtures.NewReceiptBuilder(t).WithMethod(receipt.MethodCheque).Build()
	depositDate := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	d.receipts.On("GetByID", ctx, r.ID).Return(r, nil)
	d.receipts.On("Update", ctx, r).Return(nil)

	got, err := svc.ChangePaymentStatus(ctx, r.ID, receipt.PaymentDeposited, receipt.StatusChange{
		BankName:    "First National",
		DepositDate: &depositDate,
	})
	require.NoError(t, err)
	assert.Equal(t, receipt.PaymentDeposited, got.Payment)
}

func TestService_DeleteReceipt(t *testing.T) {
	ctx := context.Background()

	t.Run("posted receipt cannot be deleted", func(t *testing.T) {
		svc, d := newTestService()
		r := fixtures.NewReceiptBuilder(t).Posted().Build()
		d.receipts.On("GetByID", ctx, r.ID).Return(r, nil)

		err := svc.DeleteReceipt(ctx, r.ID)
		assert.True(t, domainerrors.IsType(err, domainerrors.ErrorTypeAlreadyPosted))
		d.receipts.AssertNotCalled(t, "Delete")
	})

	t.Run("draft receipt deletes", func(t *testing.T) {
		svc, d := newTestService()
		r := fixtures.NewReceiptBuilder(t).Build()
		d.receipts.On("GetByID", ctx, r.ID).Return(r, nil)
		d.receipts.On("Delete", ctx, r.ID).Return(nil)

		require.NoError(t, svc.DeleteReceipt(ctx, r.ID))
		d.receipts.AssertExpectations(t)
	})
}
