package contractops

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/leaseworks/lease-engine/internal/domain/approval"
	"github.com/leaseworks/lease-engine/internal/domain/contract"
	domainerrors "github.com/leaseworks/lease-engine/internal/domain/errors"
	"github.com/leaseworks/lease-engine/internal/domain/values"
)

type service struct {
	contracts    ContractRepository
	recalculator *contract.Recalculator
	gate         *approval.Gate
	metrics      MetricsCollector
}

// NewService creates the contract operations service. The tax-rate lookup
// feeds the recalculator; the threshold decides which drafts need approval;
// metrics may be nil.
func NewService(contracts ContractRepository, taxRates contract.TaxRateLookup, threshold values.Money, metrics MetricsCollector) Service {
	return &service{
		contracts:    contracts,
		recalculator: contract.NewRecalculator(taxRates),
		gate:         approval.NewGate(threshold, nil),
		metrics:      metrics,
	}
}

func (s *service) CreateContract(ctx context.Context, req CreateContractRequest) (*contract.Contract, error) {
	c, err := contract.NewContract(req.Number, req.CompanyID, req.Currency)
	if err != nil {
		return nil, err
	}
	c.Approval = s.gate.InitialState(c.TotalValue())
	if err := s.contracts.Create(ctx, c); err != nil {
		return nil, domainerrors.NewInternalError("failed to create contract").WithCause(err)
	}
	return c, nil
}

func (s *service) GetContract(ctx context.Context, id uuid.UUID) (*contract.Contract, error) {
	return s.contracts.GetByID(ctx, id)
}

func (s *service) AddUnitTerm(ctx context.Context, contractID uuid.UUID, req UnitTermRequest) (*contract.Contract, error) {
	c, err := s.contracts.GetByID(ctx, contractID)
	if err != nil {
		return nil, err
	}

	item, err := contract.NewUnitTerm(req.Description, req.Monthly, req.Installments, c.Currency)
	if err != nil {
		return nil, domainerrors.NewValidationError("INVALID_UNIT_TERM", err.Error())
	}
	if err := c.AddLineItem(*item); err != nil {
		return nil, err
	}
	s.gate.Reevaluate(&c.Approval, c.TotalValue())

	if err := s.contracts.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) AddCharge(ctx context.Context, contractID uuid.UUID, req ChargeRequest) (*contract.Contract, error) {
	c, err := s.contracts.GetByID(ctx, contractID)
	if err != nil {
		return nil, err
	}

	item, err := contract.NewCharge(req.Description, req.Amount, c.Currency)
	if err != nil {
		return nil, domainerrors.NewValidationError("INVALID_CHARGE", err.Error())
	}
	if err := c.AddLineItem(*item); err != nil {
		return nil, err
	}
	s.gate.Reevaluate(&c.Approval, c.TotalValue())

	if err := s.contracts.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) RecalculateLineItem(ctx context.Context, contractID, itemID uuid.UUID, change contract.FieldChange) (contract.LineItem, error) {
	start := time.Now()

	c, err := s.contracts.GetByID(ctx, contractID)
	if err != nil {
		return contract.LineItem{}, err
	}
	if err := c.Approval.EnsureMutable(); err != nil {
		return contract.LineItem{}, err
	}

	item, err := c.LineItem(itemID)
	if err != nil {
		return contract.LineItem{}, err
	}

	next, err := s.recalculator.Apply(ctx, item, change)
	if err != nil {
		return contract.LineItem{}, err
	}

	if err := c.ReplaceLineItem(next); err != nil {
		return contract.LineItem{}, err
	}
	s.gate.Reevaluate(&c.Approval, c.TotalValue())
	if err := s.contracts.Update(ctx, c); err != nil {
		return contract.LineItem{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordRecalculation(ctx, change.Field, time.Since(start))
	}
	return next, nil
}

func (s *service) RemoveLineItem(ctx context.Context, contractID, itemID uuid.UUID) error {
	c, err := s.contracts.GetByID(ctx, contractID)
	if err != nil {
		return err
	}
	if err := c.RemoveLineItem(itemID); err != nil {
		return err
	}
	return s.contracts.Update(ctx, c)
}

func (s *service) DeleteContract(ctx context.Context, id uuid.UUID) error {
	c, err := s.contracts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := c.CanDelete(); err != nil {
		return err
	}
	return s.contracts.Delete(ctx, id)
}
