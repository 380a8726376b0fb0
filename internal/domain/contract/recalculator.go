package contract

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	domainerrors "github.com/leaseworks/lease-engine/internal/domain/errors"
	"github.com/leaseworks/lease-engine/internal/domain/validation"
	"github.com/leaseworks/lease-engine/internal/domain/values"
)

// Field identifies the single line-item field a caller just changed.
type Field string

const (
	FieldBaseAmount       Field = "base_amount"
	FieldPeriodMultiplier Field = "period_multiplier"
	FieldAnnualAmount     Field = "derived_annual_amount"
	FieldChargeAmount     Field = "charge_amount"
	FieldTaxRate          Field = "tax_rate"
	FieldFromDate         Field = "from_date"
	FieldToDate           Field = "to_date"
)

// FieldChange carries the changed field together with its new value. Exactly
// one value slot is set, matching the field.
type FieldChange struct {
	Field   Field
	Amount  decimal.Decimal
	Count   int
	TaxRate values.TaxRateRef
	Date    time.Time
}

// ChangeBaseAmount edits the monthly rent of a unit term.
func ChangeBaseAmount(amount decimal.Decimal) FieldChange {
	return FieldChange{Field: FieldBaseAmount, Amount: amount}
}

// ChangePeriodMultiplier edits the installments-per-year count.
func ChangePeriodMultiplier(count int) FieldChange {
	return FieldChange{Field: FieldPeriodMultiplier, Count: count}
}

// ChangeAnnualAmount edits the annual amount directly. This never
// back-propagates to the monthly base amount.
func ChangeAnnualAmount(amount decimal.Decimal) FieldChange {
	return FieldChange{Field: FieldAnnualAmount, Amount: amount}
}

// ChangeChargeAmount edits the flat amount of a charge row.
func ChangeChargeAmount(amount decimal.Decimal) FieldChange {
	return FieldChange{Field: FieldChargeAmount, Amount: amount}
}

// ChangeTaxRate selects a different tax rate, or values.NoTax for none.
func ChangeTaxRate(ref values.TaxRateRef) FieldChange {
	return FieldChange{Field: FieldTaxRate, TaxRate: ref}
}

// ChangeFromDate edits the start of a unit term's date range.
func ChangeFromDate(date time.Time) FieldChange {
	return FieldChange{Field: FieldFromDate, Date: date}
}

// ChangeToDate edits the end of a unit term's date range.
func ChangeToDate(date time.Time) FieldChange {
	return FieldChange{Field: FieldToDate, Date: date}
}

// TaxRateLookup resolves a tax-rate reference to its percentage. Implemented
// by the tax-rate repository (and its cache decorator).
type TaxRateLookup interface {
	GetTaxRate(ctx context.Context, ref values.TaxRateRef) (values.TaxPercentage, error)
}

// recomputeStep is one node of the recompute graph.
type recomputeStep func(li *LineItem)

// recomputeGraph is the static field -> recompute chain. Each chain runs in
// order and never revisits the field that triggered it, so a recalculation
// pass cannot oscillate. Editing the annual amount directly deliberately
// skips the annual step: it must not back-propagate to the base amount.
var recomputeGraph = map[Field][]recomputeStep{
	FieldBaseAmount:       {(*LineItem).recomputeAnnual, (*LineItem).recomputeTax, (*LineItem).recomputeTotal},
	FieldPeriodMultiplier: {(*LineItem).recomputeAnnual, (*LineItem).recomputeTax, (*LineItem).recomputeTotal},
	FieldAnnualAmount:     {(*LineItem).recomputeTax, (*LineItem).recomputeTotal},
	FieldChargeAmount:     {(*LineItem).recomputeAnnual, (*LineItem).recomputeTax, (*LineItem).recomputeTotal},
	FieldTaxRate:          {(*LineItem).recomputeTax, (*LineItem).recomputeTotal},
	FieldFromDate:         {(*LineItem).recomputeDuration},
	FieldToDate:           {(*LineItem).recomputeDuration},
}

// Recalculator applies a single field change to a line item and recomputes
// every dependent field along the static graph. Inputs are never mutated: a
// failed validation returns the item exactly as it was.
type Recalculator struct {
	taxRates TaxRateLookup
}

// NewRecalculator creates a recalculator with the given tax-rate lookup.
func NewRecalculator(taxRates TaxRateLookup) *Recalculator {
	return &Recalculator{taxRates: taxRates}
}

// Apply validates the change, writes the new raw value, and runs the
// recompute chain for the changed field. It returns a fresh LineItem value;
// the input is left untouched.
func (r *Recalculator) Apply(ctx context.Context, item LineItem, change FieldChange) (LineItem, error) {
	steps, ok := recomputeGraph[change.Field]
	if !ok {
		return item, domainerrors.NewValidationError("UNKNOWN_FIELD",
			"unknown recalculation field: "+string(change.Field))
	}

	next := item
	if err := r.writeChange(ctx, &next, change); err != nil {
		return item, err
	}

	for _, step := range steps {
		step(&next)
	}
	next.UpdatedAt = time.Now()
	return next, nil
}

// writeChange validates and stores the raw value for the changed field.
func (r *Recalculator) writeChange(ctx context.Context, li *LineItem, change FieldChange) error {
	switch change.Field {
	case FieldBaseAmount:
		if li.Kind != KindUnitTerm {
			return domainerrors.NewValidationError("WRONG_ITEM_KIND", "base amount applies to unit terms only")
		}
		if err := validation.ValidateAmount("base amount", change.Amount); err != nil {
			return domainerrors.NewValidationError("NEGATIVE_AMOUNT", err.Error())
		}
		li.BaseAmount = values.MustNewMoney(change.Amount, li.Currency())

	case FieldPeriodMultiplier:
		count := change.Count
		if count == 0 {
			count = DefaultInstallments
		}
		if err := validation.ValidateInstallments(count); err != nil {
			return domainerrors.NewValidationError("INVALID_INSTALLMENTS", err.Error())
		}
		li.PeriodMultiplier = count

	case FieldAnnualAmount:
		if err := validation.ValidateAmount("annual amount", change.Amount); err != nil {
			return domainerrors.NewValidationError("NEGATIVE_AMOUNT", err.Error())
		}
		li.DerivedAnnualAmount = values.MustNewMoney(values.Round2(change.Amount), li.Currency())

	case FieldChargeAmount:
		if li.Kind != KindCharge {
			return domainerrors.NewValidationError("WRONG_ITEM_KIND", "charge amount applies to charge rows only")
		}
		if err := validation.ValidateAmount("charge amount", change.Amount); err != nil {
			return domainerrors.NewValidationError("NEGATIVE_AMOUNT", err.Error())
		}
		li.BaseAmount = values.MustNewMoney(change.Amount, li.Currency())

	case FieldTaxRate:
		if change.TaxRate.IsNone() {
			li.TaxRate = values.NoTax
			return nil
		}
		pct, err := r.taxRates.GetTaxRate(ctx, change.TaxRate)
		if err != nil {
			return err
		}
		li.TaxRate = change.TaxRate
		li.TaxPercentage = pct

	case FieldFromDate:
		if !li.ToDate.IsZero() {
			if err := validation.ValidateDateRange(change.Date, li.ToDate); err != nil {
				return domainerrors.NewValidationError("INVALID_DATE_RANGE", err.Error())
			}
		}
		li.FromDate = change.Date

	case FieldToDate:
		if !li.FromDate.IsZero() {
			if err := validation.ValidateDateRange(li.FromDate, change.Date); err != nil {
				return domainerrors.NewValidationError("INVALID_DATE_RANGE", err.Error())
			}
		}
		li.ToDate = change.Date
	}

	return nil
}
