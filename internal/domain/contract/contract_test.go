package contract_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaseworks/lease-engine/internal/domain/approval"
	"github.com/leaseworks/lease-engine/internal/domain/contract"
	domainerrors "github.com/leaseworks/lease-engine/internal/domain/errors"
	"github.com/leaseworks/lease-engine/internal/domain/values"
	"github.com/leaseworks/lease-engine/internal/testutil/fixtures"
)

func TestNewContract(t *testing.T) {
	tests := []struct {
		name     string
		number   string
		company  uuid.UUID
		currency string
		wantErr  bool
	}{
		{"valid", "LC-2026-00001", uuid.New(), values.USD, false},
		{"empty number", "", uuid.New(), values.USD, true},
		{"nil company", "LC-2026-00002", uuid.Nil, values.USD, true},
		{"bad currency", "LC-2026-00003", uuid.New(), "??", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := contract.NewContract(tt.number, tt.company, tt.currency)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, c.ID)
			assert.Equal(t, approval.StatusNotRequired, c.Approval.Status)
			assert.Empty(t, c.LineItems)
		})
	}
}

func TestContract_LineItemManagement(t *testing.T) {
	c := fixtures.NewContractBuilder(t).
		WithUnitTerm(1000, 12).
		WithCharge(500).
		Build()

	require.Len(t, c.LineItems, 2)
	assert.Equal(t, "12500.00 USD", c.TotalValue().String())

	t.Run("remove line item", func(t *testing.T) {
		itemID := c.LineItems[1].ID
		require.NoError(t, c.RemoveLineItem(itemID))
		assert.Len(t, c.LineItems, 1)

		err := c.RemoveLineItem(itemID)
		assert.ErrorIs(t, err, domainerrors.ErrLineItemNotFound)
	})

	t.Run("currency mismatch rejected", func(t *testing.T) {
		item, err := contract.NewCharge("insurance", decimal.NewFromInt(100), values.EUR)
		require.NoError(t, err)
		err = c.AddLineItem(*item)
		require.Error(t, err)
		assert.True(t, domainerrors.IsValidation(err))
	})

	t.Run("replace recalculated line item", func(t *testing.T) {
		item := c.LineItems[0]
		item.Description = "renegotiated"
		require.NoError(t, c.ReplaceLineItem(item))
		got, err := c.LineItem(item.ID)
		require.NoError(t, err)
		assert.Equal(t, "renegotiated", got.Description)
	})
}

func TestContract_ApprovedIsProtected(t *testing.T) {
	c := fixtures.NewContractBuilder(t).
		WithUnitTerm(1000, 12).
		WithApprovalStatus(approval.StatusApproved).
		Build()

	before := *c
	item, err := contract.NewCharge("late fee", decimal.NewFromInt(50), values.USD)
	require.NoError(t, err)

	assert.True(t, domainerrors.IsProtectedDocument(c.AddLineItem(*item)))
	assert.True(t, domainerrors.IsProtectedDocument(c.RemoveLineItem(c.LineItems[0].ID)))
	assert.True(t, domainerrors.IsProtectedDocument(c.ReplaceLineItem(c.LineItems[0])))
	assert.True(t, domainerrors.IsProtectedDocument(c.CanDelete()))

	// Every rejected mutation leaves the contract exactly as it was.
	assert.Equal(t, before.LineItems, c.LineItems)
	assert.Equal(t, before.UpdatedAt, c.UpdatedAt)
}
