package contract

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/leaseworks/lease-engine/internal/domain/validation"
	"github.com/leaseworks/lease-engine/internal/domain/values"
)

// ItemKind distinguishes a unit rent term from an additional charge row.
type ItemKind int

const (
	KindUnitTerm ItemKind = iota
	KindCharge
)

func (k ItemKind) String() string {
	switch k {
	case KindUnitTerm:
		return "unit_term"
	case KindCharge:
		return "charge"
	default:
		return "unknown"
	}
}

// DefaultInstallments is used when a unit term has no installment count.
const DefaultInstallments = 12

// LineItem is a single rent-term or charge row inside a Contract. All
// monetary fields are kept consistent by the Recalculator; nothing else
// writes the derived fields.
type LineItem struct {
	ID          uuid.UUID `json:"id"`
	Kind        ItemKind  `json:"kind"`
	Description string    `json:"description"`

	// Raw inputs
	BaseAmount       values.Money      `json:"base_amount"`
	PeriodMultiplier int               `json:"period_multiplier"`
	TaxRate          values.TaxRateRef `json:"tax_rate"`

	// Derived
	DerivedAnnualAmount values.Money         `json:"derived_annual_amount"`
	TaxPercentage       values.TaxPercentage `json:"tax_percentage"`
	TaxAmount           values.Money         `json:"tax_amount"`
	TotalAmount         values.Money         `json:"total_amount"`

	// Unit-term date range and derived duration
	FromDate       time.Time `json:"from_date,omitempty"`
	ToDate         time.Time `json:"to_date,omitempty"`
	DurationDays   int       `json:"duration_days"`
	DurationMonths int       `json:"duration_months"`
	DurationYears  int       `json:"duration_years"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUnitTerm creates a rent term for a unit. The monthly amount must be
// non-negative; the installment count defaults to 12 when zero.
func NewUnitTerm(description string, monthly decimal.Decimal, installments int, currency string) (*LineItem, error) {
	if err := validation.ValidateAmount("base amount", monthly); err != nil {
		return nil, fmt.Errorf("invalid unit term: %w", err)
	}
	if installments == 0 {
		installments = DefaultInstallments
	}
	if err := validation.ValidateInstallments(installments); err != nil {
		return nil, fmt.Errorf("invalid unit term: %w", err)
	}

	base, err := values.NewMoney(monthly, currency)
	if err != nil {
		return nil, fmt.Errorf("invalid unit term: %w", err)
	}

	now := time.Now()
	item := &LineItem{
		ID:               uuid.New(),
		Kind:             KindUnitTerm,
		Description:      description,
		BaseAmount:       base,
		PeriodMultiplier: installments,
		TaxRate:          values.NoTax,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	item.recomputeAnnual()
	item.recomputeTax()
	item.recomputeTotal()
	return item, nil
}

// NewCharge creates an additional flat charge row. Charges have a period
// multiplier of 1: the charge amount is the annual amount.
func NewCharge(description string, amount decimal.Decimal, currency string) (*LineItem, error) {
	if err := validation.ValidateAmount("charge amount", amount); err != nil {
		return nil, fmt.Errorf("invalid charge: %w", err)
	}

	base, err := values.NewMoney(amount, currency)
	if err != nil {
		return nil, fmt.Errorf("invalid charge: %w", err)
	}

	now := time.Now()
	item := &LineItem{
		ID:               uuid.New(),
		Kind:             KindCharge,
		Description:      description,
		BaseAmount:       base,
		PeriodMultiplier: 1,
		TaxRate:          values.NoTax,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	item.recomputeAnnual()
	item.recomputeTax()
	item.recomputeTotal()
	return item, nil
}

// Currency returns the item's currency, taken from its base amount.
func (li *LineItem) Currency() string {
	return li.BaseAmount.Currency()
}

// HasDateRange reports whether the term carries a from/to range.
func (li *LineItem) HasDateRange() bool {
	return !li.FromDate.IsZero() && !li.ToDate.IsZero()
}

// recomputeAnnual derives the annual amount from base and multiplier.
func (li *LineItem) recomputeAnnual() {
	annual := li.BaseAmount.Amount().Mul(decimal.NewFromInt(int64(li.PeriodMultiplier)))
	li.DerivedAnnualAmount = values.MustNewMoney(values.Round2(annual), li.Currency())
}

// recomputeTax derives tax amount from the cached percentage. The no-tax
// sentinel always wins over any previously cached rate.
func (li *LineItem) recomputeTax() {
	if li.TaxRate.IsNone() {
		li.TaxPercentage = values.ZeroTaxPercentage
		li.TaxAmount = values.Zero(li.Currency())
		return
	}
	li.TaxAmount = li.TaxPercentage.ApplyTo(li.DerivedAnnualAmount)
}

// recomputeTotal derives the grand total: round2(annual + tax).
func (li *LineItem) recomputeTotal() {
	sum := li.DerivedAnnualAmount.Amount().Add(li.TaxAmount.Amount())
	li.TotalAmount = values.MustNewMoney(values.Round2(sum), li.Currency())
}

// recomputeDuration derives calendar duration from the date range. The range
// must already be validated; an incomplete range leaves prior duration as is.
func (li *LineItem) recomputeDuration() {
	if !li.HasDateRange() {
		return
	}
	li.DurationDays = daysBetween(li.FromDate, li.ToDate)
	li.DurationMonths = monthsBetween(li.FromDate, li.ToDate)
	li.DurationYears = yearsBetween(li.FromDate, li.ToDate)
}

// daysBetween counts whole calendar days between two dates, ignoring the
// time-of-day and timezone components.
func daysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}

// monthsBetween counts full calendar months from from to to.
func monthsBetween(from, to time.Time) int {
	months := 0
	for !from.AddDate(0, months+1, 0).After(to) {
		months++
	}
	return months
}

// yearsBetween counts full calendar years from from to to.
func yearsBetween(from, to time.Time) int {
	years := 0
	for !from.AddDate(years+1, 0, 0).After(to) {
		years++
	}
	return years
}
