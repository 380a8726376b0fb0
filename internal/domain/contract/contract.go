package contract

import (
	"time"

	"github.com/google/uuid"

	"github.com/leaseworks/lease-engine/internal/domain/approval"
	domainerrors "github.com/leaseworks/lease-engine/internal/domain/errors"
	"github.com/leaseworks/lease-engine/internal/domain/values"
)

// Contract is a lease contract draft: a set of unit terms and charges plus
// its approval state. All mutation goes through the aggregate so the
// approval protection cannot be bypassed.
type Contract struct {
	ID        uuid.UUID      `json:"id"`
	Number    string         `json:"number"`
	CompanyID uuid.UUID      `json:"company_id"`
	Currency  string         `json:"currency"`
	LineItems []LineItem     `json:"line_items"`
	Approval  approval.State `json:"approval"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`
}

// NewContract creates an empty contract draft for a company.
func NewContract(number string, companyID uuid.UUID, currency string) (*Contract, error) {
	if number == "" {
		return nil, domainerrors.NewValidationError("EMPTY_NUMBER", "contract number is required")
	}
	if companyID == uuid.Nil {
		return nil, domainerrors.NewValidationError("NIL_COMPANY", "company id is required")
	}
	if _, err := values.NewMoney(values.Zero(currency).Amount(), currency); err != nil {
		return nil, domainerrors.NewValidationError("BAD_CURRENCY", err.Error())
	}

	now := time.Now()
	return &Contract{
		ID:        uuid.New(),
		Number:    number,
		CompanyID: companyID,
		Currency:  currency,
		Approval:  approval.State{Status: approval.StatusNotRequired},
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}, nil
}

// AddLineItem appends a row to the draft. Approved contracts reject this.
func (c *Contract) AddLineItem(item LineItem) error {
	if err := c.Approval.EnsureMutable(); err != nil {
		return err
	}
	if item.Currency() != c.Currency {
		return domainerrors.NewValidationError("CURRENCY_MISMATCH",
			"line item currency "+item.Currency()+" does not match contract currency "+c.Currency)
	}

	c.LineItems = append(c.LineItems, item)
	c.UpdatedAt = time.Now()
	return nil
}

// RemoveLineItem deletes a row from the draft. Approved contracts reject this.
func (c *Contract) RemoveLineItem(itemID uuid.UUID) error {
	if err := c.Approval.EnsureMutable(); err != nil {
		return err
	}

	for i := range c.LineItems {
		if c.LineItems[i].ID == itemID {
			c.LineItems = append(c.LineItems[:i], c.LineItems[i+1:]...)
			c.UpdatedAt = time.Now()
			return nil
		}
	}
	return domainerrors.ErrLineItemNotFound
}

// LineItem returns a copy of the row with the given id.
func (c *Contract) LineItem(itemID uuid.UUID) (LineItem, error) {
	for i := range c.LineItems {
		if c.LineItems[i].ID == itemID {
			return c.LineItems[i], nil
		}
	}
	return LineItem{}, domainerrors.ErrLineItemNotFound
}

// ReplaceLineItem swaps in a recalculated row. Approved contracts reject this.
func (c *Contract) ReplaceLineItem(item LineItem) error {
	if err := c.Approval.EnsureMutable(); err != nil {
		return err
	}

	for i := range c.LineItems {
		if c.LineItems[i].ID == item.ID {
			c.LineItems[i] = item
			c.UpdatedAt = time.Now()
			return nil
		}
	}
	return domainerrors.ErrLineItemNotFound
}

// TotalValue sums the rounded totals of every row.
func (c *Contract) TotalValue() values.Money {
	total := values.Zero(c.Currency)
	for i := range c.LineItems {
		sum, err := total.Add(c.LineItems[i].TotalAmount)
		if err != nil {
			continue
		}
		total = sum
	}
	return total
}

// CanDelete reports whether the draft may be removed. Approved contracts
// must be reset first.
func (c *Contract) CanDelete() error {
	return c.Approval.EnsureMutable()
}
