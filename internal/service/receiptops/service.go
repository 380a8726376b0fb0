package receiptops

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/leaseworks/lease-engine/internal/domain/approval"
	domainerrors "github.com/leaseworks/lease-engine/internal/domain/errors"
	"github.com/leaseworks/lease-engine/internal/domain/ledger"
	"github.com/leaseworks/lease-engine/internal/domain/receipt"
	"github.com/leaseworks/lease-engine/internal/domain/values"
	"github.com/leaseworks/lease-engine/internal/infrastructure/telemetry"
)

type service struct {
	receipts ReceiptRepository
	postings PostingRepository
	invoices InvoiceBalanceLookup
	engine   *receipt.AllocationEngine
	gate     *approval.Gate
	metrics  MetricsCollector
	tracer   trace.Tracer
}

// NewService creates the receipt operations service. The threshold decides
// which receipts need approval; metrics may be nil.
func NewService(receipts ReceiptRepository, postings PostingRepository, invoices InvoiceBalanceLookup, threshold values.Money, metrics MetricsCollector) Service {
	return &service{
		receipts: receipts,
		postings: postings,
		invoices: invoices,
		engine:   receipt.NewAllocationEngine(),
		gate:     approval.NewGate(threshold, nil),
		metrics:  metrics,
		tracer:   telemetry.Tracer("service.receiptops"),
	}
}

func (s *service) CreateReceipt(ctx context.Context, req CreateReceiptRequest) (*receipt.Receipt, error) {
	r, err := receipt.NewReceipt(req.Number, req.ContractID, req.PayerID, req.Method, req.Amounts, req.Currency)
	if err != nil {
		return nil, err
	}
	r.Approval = s.gate.InitialState(r.NetAmount)
	if err := s.receipts.Create(ctx, r); err != nil {
		return nil, domainerrors.NewInternalError("failed to create receipt").WithCause(err)
	}
	return r, nil
}

func (s *service) GetReceipt(ctx context.Context, id uuid.UUID) (*receipt.Receipt, error) {
	return s.receipts.GetByID(ctx, id)
}

func (s *service) UpdateAmounts(ctx context.Context, id uuid.UUID, amounts receipt.Amounts) (*receipt.Receipt, error) {
	r, err := s.receipts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.UpdateAmounts(amounts); err != nil {
		return nil, err
	}
	s.gate.Reevaluate(&r.Approval, r.NetAmount)
	if err := s.receipts.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Allocate runs the engine in the requested mode and records the proposal on
// the receipt. Single mode resolves the invoice's outstanding balance first.
func (s *service) Allocate(ctx context.Context, id uuid.UUID, req AllocationRequest) (_ receipt.Proposal, err error) {
	ctx, span := telemetry.StartEngineSpan(ctx, s.tracer, "allocation", "propose", id.String())
	defer func() {
		telemetry.WithSpanError(span, err)
		span.End()
	}()

	r, err := s.receipts.GetByID(ctx, id)
	if err != nil {
		return receipt.Proposal{}, err
	}

	var proposal receipt.Proposal
	switch req.Mode {
	case receipt.ModeSingle:
		outstanding, err := s.invoices.OutstandingBalance(ctx, req.InvoiceRef)
		if err != nil {
			return receipt.Proposal{}, err
		}
		proposal, err = s.engine.ProposeSingle(r, req.InvoiceRef, outstanding)
		if err != nil {
			return receipt.Proposal{}, err
		}
	case receipt.ModeMultiple:
		proposal, err = s.engine.ProposeMultiple(r, req.Entries)
		if err != nil {
			return receipt.Proposal{}, err
		}
	default:
		return receipt.Proposal{}, domainerrors.NewValidationError("UNKNOWN_MODE",
			"allocation mode must be single or multiple")
	}

	if err := r.ApplyProposal(proposal); err != nil {
		return receipt.Proposal{}, err
	}
	if err := s.receipts.Update(ctx, r); err != nil {
		return receipt.Proposal{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordAllocation(ctx, req.Mode, len(proposal.Allocations))
	}
	return proposal, nil
}

func (s *service) ChangePaymentStatus(ctx context.Context, id uuid.UUID, status receipt.PaymentStatus, aux receipt.StatusChange) (*receipt.Receipt, error) {
	r, err := s.receipts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.ChangePaymentStatus(status, aux); err != nil {
		return nil, err
	}
	if err := s.receipts.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Post checks posting legality, draws the next voucher number, builds the
// balanced voucher, and persists legs plus posted flag in one transaction.
func (s *service) Post(ctx context.Context, id uuid.UUID, req PostRequest) (_ *ledger.Voucher, err error) {
	ctx, span := telemetry.StartEngineSpan(ctx, s.tracer, "ledger", "post", id.String())
	defer func() {
		telemetry.WithSpanError(span, err)
		span.End()
	}()

	r, err := s.receipts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.CanPost(); err != nil {
		return nil, err
	}

	voucherNo, err := s.postings.NextVoucherNumber(ctx, req.Date)
	if err != nil {
		return nil, domainerrors.NewInternalError("failed to allocate voucher number").WithCause(err)
	}

	voucher, err := ledger.Post(r, ledger.PostRequest{
		Date:          req.Date,
		DebitAccount:  req.DebitAccount,
		CreditAccount: req.CreditAccount,
		Amount:        r.NetAmount,
		Narration:     req.Narration,
	}, voucherNo)
	if err != nil {
		return nil, err
	}

	if err := s.postings.RecordPosting(ctx, r, voucher); err != nil {
		return nil, domainerrors.NewInternalError("failed to record posting").WithCause(err)
	}

	if s.metrics != nil {
		s.metrics.RecordPosting(ctx, voucher.No)
	}
	return voucher, nil
}

// Reverse resolves the posting to its document and offsets the document's
// active posting. The reversal voucher and the cleared posted flag are
// persisted in one transaction; the receipt may then be posted again under a
// fresh voucher.
func (s *service) Reverse(ctx context.Context, postingID uuid.UUID, reason string) (_ *ledger.Voucher, err error) {
	ctx, span := telemetry.StartEngineSpan(ctx, s.tracer, "ledger", "reverse", postingID.String())
	defer func() {
		telemetry.WithSpanError(span, err)
		span.End()
	}()

	p, err := s.postings.GetPosting(ctx, postingID)
	if err != nil {
		return nil, err
	}

	r, err := s.receipts.GetByID(ctx, p.DocumentID)
	if err != nil {
		return nil, err
	}
	if err := r.CanReverse(); err != nil {
		return nil, err
	}

	originals, err := s.postings.ActivePostings(ctx, r.ID)
	if err != nil {
		return nil, domainerrors.NewInternalError("failed to load postings").WithCause(err)
	}

	voucherNo, err := s.postings.NextVoucherNumber(ctx, time.Now())
	if err != nil {
		return nil, domainerrors.NewInternalError("failed to allocate voucher number").WithCause(err)
	}

	voucher, err := ledger.Reverse(r, originals, reason, voucherNo)
	if err != nil {
		return nil, err
	}

	if err := s.postings.RecordReversal(ctx, r, voucher, originals); err != nil {
		return nil, domainerrors.NewInternalError("failed to record reversal").WithCause(err)
	}

	if s.metrics != nil {
		s.metrics.RecordReversal(ctx, voucher.No)
	}
	return voucher, nil
}

func (s *service) DeleteReceipt(ctx context.Context, id uuid.UUID) error {
	r, err := s.receipts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := r.CanDelete(); err != nil {
		return err
	}
	return s.receipts.Delete(ctx, id)
}
