package contract_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaseworks/lease-engine/internal/domain/contract"
	domainerrors "github.com/leaseworks/lease-engine/internal/domain/errors"
	"github.com/leaseworks/lease-engine/internal/domain/values"
)

// stubTaxRates resolves tax references from a fixed map.
type stubTaxRates struct {
	rates map[uuid.UUID]values.TaxPercentage
}

func (s *stubTaxRates) GetTaxRate(_ context.Context, ref values.TaxRateRef) (values.TaxPercentage, error) {
	if pct, ok := s.rates[ref.ID()]; ok {
		return pct, nil
	}
	return values.TaxPercentage{}, domainerrors.ErrTaxRateNotFound
}

func newTestRecalculator(t *testing.T) (*contract.Recalculator, values.TaxRateRef) {
	t.Helper()
	id := uuid.New()
	ref, err := values.NewTaxRateRef(id)
	require.NoError(t, err)
	lookup := &stubTaxRates{rates: map[uuid.UUID]values.TaxPercentage{
		id: values.MustNewTaxPercentage(5),
	}}
	return contract.NewRecalculator(lookup), ref
}

func TestRecalculator_RentChain(t *testing.T) {
	ctx := context.Background()
	recalc, taxRef := newTestRecalculator(t)

	item, err := contract.NewUnitTerm("office 4B", decimal.NewFromInt(1000), 12, values.USD)
	require.NoError(t, err)

	// Select the 5% tax, then verify the full chain of derived fields.
	withTax, err := recalc.Apply(ctx, *item, contract.ChangeTaxRate(taxRef))
	require.NoError(t, err)

	assert.Equal(t, "12000.00 USD", withTax.DerivedAnnualAmount.String())
	assert.Equal(t, "5%", withTax.TaxPercentage.String())
	assert.Equal(t, "600.00 USD", withTax.TaxAmount.String())
	assert.Equal(t, "12600.00 USD", withTax.TotalAmount.String())

	t.Run("base amount edit recomputes annual, tax, total", func(t *testing.T) {
		updated, err := recalc.Apply(ctx, withTax, contract.ChangeBaseAmount(decimal.NewFromInt(2000)))
		require.NoError(t, err)
		assert.Equal(t, "24000.00 USD", updated.DerivedAnnualAmount.String())
		assert.Equal(t, "1200.00 USD", updated.TaxAmount.String())
		assert.Equal(t, "25200.00 USD", updated.TotalAmount.String())
	})

	t.Run("installment edit recomputes annual, tax, total", func(t *testing.T) {
		updated, err := recalc.Apply(ctx, withTax, contract.ChangePeriodMultiplier(4))
		require.NoError(t, err)
		assert.Equal(t, "4000.00 USD", updated.DerivedAnnualAmount.String())
		assert.Equal(t, "200.00 USD", updated.TaxAmount.String())
		assert.Equal(t, "4200.00 USD", updated.TotalAmount.String())
	})

	t.Run("zero installment count defaults to 12", func(t *testing.T) {
		updated, err := recalc.Apply(ctx, withTax, contract.ChangePeriodMultiplier(0))
		require.NoError(t, err)
		assert.Equal(t, 12, updated.PeriodMultiplier)
		assert.Equal(t, "12000.00 USD", updated.DerivedAnnualAmount.String())
	})
}

func TestRecalculator_AnnualEditDoesNotBackPropagate(t *testing.T) {
	ctx := context.Background()
	recalc, taxRef := newTestRecalculator(t)

	item, err := contract.NewUnitTerm("office 4B", decimal.NewFromInt(1000), 12, values.USD)
	require.NoError(t, err)
	withTax, err := recalc.Apply(ctx, *item, contract.ChangeTaxRate(taxRef))
	require.NoError(t, err)

	updated, err := recalc.Apply(ctx, withTax, contract.ChangeAnnualAmount(decimal.NewFromInt(15000)))
	require.NoError(t, err)

	assert.Equal(t, "15000.00 USD", updated.DerivedAnnualAmount.String())
	assert.Equal(t, "750.00 USD", updated.TaxAmount.String())
	assert.Equal(t, "15750.00 USD", updated.TotalAmount.String())
	// The monthly base amount stays untouched.
	assert.Equal(t, "1000.00 USD", updated.BaseAmount.String())
}

func TestRecalculator_NoTaxSentinel(t *testing.T) {
	ctx := context.Background()
	recalc, taxRef := newTestRecalculator(t)

	item, err := contract.NewUnitTerm("office 4B", decimal.NewFromInt(1000), 12, values.USD)
	require.NoError(t, err)
	withTax, err := recalc.Apply(ctx, *item, contract.ChangeTaxRate(taxRef))
	require.NoError(t, err)
	require.Equal(t, "600.00 USD", withTax.TaxAmount.String())

	// Selecting "none" forces percentage and amount to zero regardless of the
	// previously cached rate.
	cleared, err := recalc.Apply(ctx, withTax, contract.ChangeTaxRate(values.NoTax))
	require.NoError(t, err)
	assert.True(t, cleared.TaxPercentage.IsZero())
	assert.True(t, cleared.TaxAmount.IsZero())
	assert.Equal(t, "12000.00 USD", cleared.TotalAmount.String())
}

func TestRecalculator_DateRange(t *testing.T) {
	ctx := context.Background()
	recalc, _ := newTestRecalculator(t)

	item, err := contract.NewUnitTerm("office 4B", decimal.NewFromInt(1000), 12, values.USD)
	require.NoError(t, err)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	withFrom, err := recalc.Apply(ctx, *item, contract.ChangeFromDate(from))
	require.NoError(t, err)
	withRange, err := recalc.Apply(ctx, withFrom, contract.ChangeToDate(to))
	require.NoError(t, err)

	// 2024 is a leap year.
	assert.Equal(t, 366, withRange.DurationDays)
	assert.Equal(t, 12, withRange.DurationMonths)
	assert.Equal(t, 1, withRange.DurationYears)

	t.Run("inverted range rejected, prior duration kept", func(t *testing.T) {
		bad, err := recalc.Apply(ctx, withRange, contract.ChangeToDate(from.AddDate(0, 0, -1)))
		require.Error(t, err)
		assert.True(t, domainerrors.IsValidation(err))
		// A failed recalculation returns the item unchanged.
		assert.Equal(t, withRange, bad)
	})

	t.Run("equal dates rejected", func(t *testing.T) {
		_, err := recalc.Apply(ctx, withRange, contract.ChangeToDate(withRange.FromDate))
		require.Error(t, err)
		assert.True(t, domainerrors.IsValidation(err))
	})

	t.Run("partial month range", func(t *testing.T) {
		short, err := recalc.Apply(ctx, withFrom, contract.ChangeToDate(from.AddDate(0, 6, 15)))
		require.NoError(t, err)
		assert.Equal(t, 6, short.DurationMonths)
		assert.Equal(t, 0, short.DurationYears)
	})
}

func TestRecalculator_ChargeChain(t *testing.T) {
	ctx := context.Background()
	recalc, taxRef := newTestRecalculator(t)

	charge, err := contract.NewCharge("parking", decimal.NewFromInt(1200), values.USD)
	require.NoError(t, err)
	assert.Equal(t, "1200.00 USD", charge.DerivedAnnualAmount.String())

	withTax, err := recalc.Apply(ctx, *charge, contract.ChangeTaxRate(taxRef))
	require.NoError(t, err)
	assert.Equal(t, "60.00 USD", withTax.TaxAmount.String())
	assert.Equal(t, "1260.00 USD", withTax.TotalAmount.String())

	updated, err := recalc.Apply(ctx, withTax, contract.ChangeChargeAmount(decimal.NewFromInt(2400)))
	require.NoError(t, err)
	assert.Equal(t, "2400.00 USD", updated.DerivedAnnualAmount.String())
	assert.Equal(t, "120.00 USD", updated.TaxAmount.String())
	assert.Equal(t, "2520.00 USD", updated.TotalAmount.String())
}

func TestRecalculator_Validation(t *testing.T) {
	ctx := context.Background()
	recalc, _ := newTestRecalculator(t)

	item, err := contract.NewUnitTerm("office 4B", decimal.NewFromInt(1000), 12, values.USD)
	require.NoError(t, err)

	tests := []struct {
		name   string
		change contract.FieldChange
	}{
		{"negative base amount", contract.ChangeBaseAmount(decimal.NewFromInt(-1))},
		{"negative annual amount", contract.ChangeAnnualAmount(decimal.NewFromInt(-100))},
		{"negative installments", contract.ChangePeriodMultiplier(-2)},
		{"charge amount on unit term", contract.ChangeChargeAmount(decimal.NewFromInt(100))},
		{"unknown field", contract.FieldChange{Field: contract.Field("made_up")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := recalc.Apply(ctx, *item, tt.change)
			require.Error(t, err)
			assert.True(t, domainerrors.IsValidation(err))
			assert.Equal(t, *item, result)
		})
	}

	t.Run("unknown tax rate surfaces lookup error", func(t *testing.T) {
		ref, err := values.NewTaxRateRef(uuid.New())
		require.NoError(t, err)
		_, err = recalc.Apply(ctx, *item, contract.ChangeTaxRate(ref))
		assert.ErrorIs(t, err, domainerrors.ErrTaxRateNotFound)
	})
}

func TestRecalculator_Idempotence(t *testing.T) {
	ctx := context.Background()
	recalc, taxRef := newTestRecalculator(t)

	item, err := contract.NewUnitTerm("office 4B", decimal.NewFromInt(1000), 12, values.USD)
	require.NoError(t, err)

	changes := []contract.FieldChange{
		contract.ChangeBaseAmount(decimal.NewFromFloat(1333.33)),
		contract.ChangePeriodMultiplier(4),
		contract.ChangeTaxRate(taxRef),
		contract.ChangeAnnualAmount(decimal.NewFromFloat(9999.99)),
	}

	current := *item
	for _, change := range changes {
		once, err := recalc.Apply(ctx, current, change)
		require.NoError(t, err)
		twice, err := recalc.Apply(ctx, once, change)
		require.NoError(t, err)

		assert.True(t, once.TotalAmount.Equal(twice.TotalAmount))
		assert.True(t, once.TaxAmount.Equal(twice.TaxAmount))
		assert.True(t, once.DerivedAnnualAmount.Equal(twice.DerivedAnnualAmount))
		current = twice
	}
}

func TestLineItem_TotalInvariant(t *testing.T) {
	ctx := context.Background()
	recalc, taxRef := newTestRecalculator(t)

	// For a spread of odd amounts the invariant
	// TotalAmount == round2(annual + tax) must hold exactly.
	amounts := []float64{0.01, 1.005, 99.99, 1333.33, 54321.87}
	for _, monthly := range amounts {
		item, err := contract.NewUnitTerm("x", decimal.NewFromFloat(monthly), 12, values.USD)
		require.NoError(t, err)
		taxed, err := recalc.Apply(ctx, *item, contract.ChangeTaxRate(taxRef))
		require.NoError(t, err)

		want := values.Round2(taxed.DerivedAnnualAmount.Amount().Add(taxed.TaxAmount.Amount()))
		assert.True(t, taxed.TotalAmount.Amount().Equal(want),
			"monthly=%v total=%s want=%s", monthly, taxed.TotalAmount, want)
	}
}
