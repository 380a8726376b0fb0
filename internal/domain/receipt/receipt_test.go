package receipt_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaseworks/lease-engine/internal/domain/approval"
	domainerrors "github.com/leaseworks/lease-engine/internal/domain/errors"
	"github.com/leaseworks/lease-engine/internal/domain/receipt"
	"github.com/leaseworks/lease-engine/internal/domain/values"
	"github.com/leaseworks/lease-engine/internal/testutil/fixtures"
)

func TestNewReceipt(t *testing.T) {
	t.Run("net amount derivation", func(t *testing.T) {
		// received 5000 + deposit 1000 + penalty 0 - discount 200 = 5800
		r := fixtures.NewReceiptBuilder(t).Build()
		assert.Equal(t, "5800.00 USD", r.NetAmount.String())
		assert.Equal(t, receipt.PaymentReceived, r.Payment)
		assert.Equal(t, approval.StatusNotRequired, r.Approval.Status)
		assert.False(t, r.IsPosted)
	})

	t.Run("validation", func(t *testing.T) {
		valid := receipt.Amounts{Received: decimal.NewFromInt(100)}

		_, err := receipt.NewReceipt("", uuid.New(), uuid.New(), receipt.MethodCash, valid, values.USD)
		assert.True(t, domainerrors.IsValidation(err))

		_, err = receipt.NewReceipt("RC-1", uuid.Nil, uuid.New(), receipt.MethodCash, valid, values.USD)
		assert.True(t, domainerrors.IsValidation(err))

		_, err = receipt.NewReceipt("RC-1", uuid.New(), uuid.New(), receipt.MethodCash,
			receipt.Amounts{Received: decimal.Zero}, values.USD)
		assert.True(t, domainerrors.IsValidation(err))

		_, err = receipt.NewReceipt("RC-1", uuid.New(), uuid.New(), receipt.MethodCash,
			receipt.Amounts{Received: decimal.NewFromInt(100), Discount: decimal.NewFromInt(-1)}, values.USD)
		assert.True(t, domainerrors.IsValidation(err))
	})
}

func TestReceipt_UpdateAmounts(t *testing.T) {
	r := fixtures.NewReceiptBuilder(t).Build()

	require.NoError(t, r.UpdateAmounts(receipt.Amounts{
		Received: decimal.NewFromInt(3000),
		Penalty:  decimal.NewFromFloat(150.555),
	}))
	// penalty rounds into the net: 3000 + 0 + 150.555 - 0 -> 3150.56
	assert.Equal(t, "3150.56 USD", r.NetAmount.String())

	t.Run("amount edit clears applied allocations", func(t *testing.T) {
		engine := receipt.NewAllocationEngine()
		proposal, err := engine.ProposeSingle(r, uuid.New(), values.MustNewMoneyFromFloat(1000, values.USD))
		require.NoError(t, err)
		require.NoError(t, r.ApplyProposal(proposal))
		require.NotEmpty(t, r.Allocations)

		require.NoError(t, r.UpdateAmounts(receipt.Amounts{Received: decimal.NewFromInt(500)}))
		assert.Empty(t, r.Allocations)
	})

	t.Run("approved receipt is protected", func(t *testing.T) {
		locked := fixtures.NewReceiptBuilder(t).WithApprovalStatus(approval.StatusApproved).Build()
		before := *locked
		err := locked.UpdateAmounts(receipt.Amounts{Received: decimal.NewFromInt(1)})
		assert.True(t, domainerrors.IsProtectedDocument(err))
		assert.Equal(t, before.NetAmount, locked.NetAmount)
	})

	t.Run("posted receipt rejects edits", func(t *testing.T) {
		posted := fixtures.NewReceiptBuilder(t).Posted().Build()
		err := posted.UpdateAmounts(receipt.Amounts{Received: decimal.NewFromInt(1)})
		assert.True(t, domainerrors.IsType(err, domainerrors.ErrorTypeAlreadyPosted))
	})
}
