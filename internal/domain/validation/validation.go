package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ValidateAmount rejects negative monetary input at the boundary, before any
// recomputation runs.
func ValidateAmount(field string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%s cannot be negative: %s", field, amount)
	}
	return nil
}

// ValidatePositiveAmount rejects zero and negative monetary input.
func ValidatePositiveAmount(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%s must be positive: %s", field, amount)
	}
	return nil
}

// ValidateDateRange checks that to is strictly after from.
func ValidateDateRange(from, to time.Time) error {
	if from.IsZero() || to.IsZero() {
		return fmt.Errorf("both from and to dates are required")
	}
	if !to.After(from) {
		return fmt.Errorf("to date %s must be after from date %s",
			to.Format("2006-01-02"), from.Format("2006-01-02"))
	}
	return nil
}

// ValidateReason checks that a free-text reason is present. Rejections and
// reversals both require one.
func ValidateReason(reason string) error {
	if strings.TrimSpace(reason) == "" {
		return fmt.Errorf("reason cannot be empty")
	}
	if len(reason) > 500 {
		return fmt.Errorf("reason too long (max 500 characters)")
	}
	return nil
}

// ValidateInstallments bounds the period multiplier for a unit term.
func ValidateInstallments(count int) error {
	if count < 1 {
		return fmt.Errorf("installment count must be at least 1")
	}
	if count > 365 {
		return fmt.Errorf("installment count too large: %d", count)
	}
	return nil
}
