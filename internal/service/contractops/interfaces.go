package contractops

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/leaseworks/lease-engine/internal/domain/contract"
)

// Service orchestrates contract drafts and line-item recalculation.
type Service interface {
	// CreateContract opens an empty contract draft.
	CreateContract(ctx context.Context, req CreateContractRequest) (*contract.Contract, error)
	// GetContract loads a contract by id.
	GetContract(ctx context.Context, id uuid.UUID) (*contract.Contract, error)
	// AddUnitTerm appends a rent term row to a draft.
	AddUnitTerm(ctx context.Context, contractID uuid.UUID, req UnitTermRequest) (*contract.Contract, error)
	// AddCharge appends a flat charge row to a draft.
	AddCharge(ctx context.Context, contractID uuid.UUID, req ChargeRequest) (*contract.Contract, error)
	// RecalculateLineItem applies one field change and recomputes the
	// dependent fields of the row.
	RecalculateLineItem(ctx context.Context, contractID, itemID uuid.UUID, change contract.FieldChange) (contract.LineItem, error)
	// RemoveLineItem deletes a row from a draft.
	RemoveLineItem(ctx context.Context, contractID, itemID uuid.UUID) error
	// DeleteContract removes an unapproved draft.
	DeleteContract(ctx context.Context, id uuid.UUID) error
}

// ContractRepository is the storage the service needs. Update enforces the
// optimistic version check: a stale version comes back as a conflict.
type ContractRepository interface {
	Create(ctx context.Context, c *contract.Contract) error
	GetByID(ctx context.Context, id uuid.UUID) (*contract.Contract, error)
	Update(ctx context.Context, c *contract.Contract) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// MetricsCollector records recalculation activity.
type MetricsCollector interface {
	RecordRecalculation(ctx context.Context, field contract.Field, duration time.Duration)
}

// CreateContractRequest carries the inputs for a new draft.
type CreateContractRequest struct {
	Number    string
	CompanyID uuid.UUID
	Currency  string
}

// UnitTermRequest carries the inputs for a rent term row.
type UnitTermRequest struct {
	Description  string
	Monthly      decimal.Decimal
	Installments int
}

// ChargeRequest carries the inputs for a flat charge row.
type ChargeRequest struct {
	Description string
	Amount      decimal.Decimal
}
