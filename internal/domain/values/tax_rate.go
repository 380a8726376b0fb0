package values

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaxRateRef is an optional reference to a configured tax rate. The zero
// value means "no tax selected" and replaces the "0" string sentinel the
// lease forms used for the no-tax choice.
type TaxRateRef struct {
	id uuid.UUID
}

// NoTax is the empty tax reference.
var NoTax = TaxRateRef{}

// NewTaxRateRef creates a reference to a configured tax rate
func NewTaxRateRef(id uuid.UUID) (TaxRateRef, error) {
	if id == uuid.Nil {
		return TaxRateRef{}, fmt.Errorf("tax rate id cannot be nil; use NoTax")
	}
	return TaxRateRef{id: id}, nil
}

// IsNone reports whether no tax rate is selected
func (r TaxRateRef) IsNone() bool {
	return r.id == uuid.Nil
}

// ID returns the referenced tax rate id (uuid.Nil when none)
func (r TaxRateRef) ID() uuid.UUID {
	return r.id
}

func (r TaxRateRef) String() string {
	if r.IsNone() {
		return "none"
	}
	return r.id.String()
}

// TaxPercentage is a tax rate expressed in percent (5 means 5%).
type TaxPercentage struct {
	value decimal.Decimal
}

// ZeroTaxPercentage is a 0% rate.
var ZeroTaxPercentage = TaxPercentage{}

// NewTaxPercentage validates and wraps a percentage value
func NewTaxPercentage(value decimal.Decimal) (TaxPercentage, error) {
	if value.IsNegative() {
		return TaxPercentage{}, fmt.Errorf("tax percentage cannot be negative: %s", value)
	}
	if value.GreaterThan(decimal.NewFromInt(100)) {
		return TaxPercentage{}, fmt.Errorf("tax percentage cannot exceed 100: %s", value)
	}
	return TaxPercentage{value: value}, nil
}

// MustNewTaxPercentage wraps a percentage and panics on error (for tests)
func MustNewTaxPercentage(value float64) TaxPercentage {
	p, err := NewTaxPercentage(decimal.NewFromFloat(value))
	if err != nil {
		panic(err)
	}
	return p
}

// Value returns the percentage as a decimal
func (p TaxPercentage) Value() decimal.Decimal {
	return p.value
}

// IsZero reports whether the rate is 0%
func (p TaxPercentage) IsZero() bool {
	return p.value.IsZero()
}

// ApplyTo computes the rounded tax amount for a base amount:
// round2(base * rate / 100).
func (p TaxPercentage) ApplyTo(base Money) Money {
	tax := base.Amount().Mul(p.value).Div(decimal.NewFromInt(100))
	return MustNewMoney(Round2(tax), base.Currency())
}

func (p TaxPercentage) String() string {
	return p.value.String() + "%"
}
