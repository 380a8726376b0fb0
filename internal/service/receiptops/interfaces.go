package receiptops

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/leaseworks/lease-engine/internal/domain/ledger"
	"github.com/leaseworks/lease-engine/internal/domain/receipt"
	"github.com/leaseworks/lease-engine/internal/domain/values"
)

// Service orchestrates the receipt lifecycle: amounts, allocation, payment
// status, and ledger posting.
type Service interface {
	// CreateReceipt records an incoming payment.
	CreateReceipt(ctx context.Context, req CreateReceiptRequest) (*receipt.Receipt, error)
	// GetReceipt loads a receipt by id.
	GetReceipt(ctx context.Context, id uuid.UUID) (*receipt.Receipt, error)
	// UpdateAmounts replaces the raw money inputs and re-derives the net.
	UpdateAmounts(ctx context.Context, id uuid.UUID, amounts receipt.Amounts) (*receipt.Receipt, error)
	// Allocate distributes the net amount across invoices and records the
	// resulting allocations on the receipt.
	Allocate(ctx context.Context, id uuid.UUID, req AllocationRequest) (receipt.Proposal, error)
	// ChangePaymentStatus moves the receipt through the payment machine.
	ChangePaymentStatus(ctx context.Context, id uuid.UUID, status receipt.PaymentStatus, aux receipt.StatusChange) (*receipt.Receipt, error)
	// Post locks the receipt into the ledger under a fresh voucher.
	Post(ctx context.Context, id uuid.UUID, req PostRequest) (*ledger.Voucher, error)
	// Reverse offsets the active posting of the document the given posting
	// entry belongs to, under a new voucher.
	Reverse(ctx context.Context, postingID uuid.UUID, reason string) (*ledger.Voucher, error)
	// DeleteReceipt removes a receipt that was never posted.
	DeleteReceipt(ctx context.Context, id uuid.UUID) error
}

// ReceiptRepository is the receipt storage the service needs. Update enforces
// the optimistic version check.
type ReceiptRepository interface {
	Create(ctx context.Context, r *receipt.Receipt) error
	GetByID(ctx context.Context, id uuid.UUID) (*receipt.Receipt, error)
	Update(ctx context.Context, r *receipt.Receipt) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// PostingRepository persists vouchers. RecordPosting and RecordReversal write
// the voucher legs and the receipt's posted flag in one transaction.
type PostingRepository interface {
	NextVoucherNumber(ctx context.Context, date time.Time) (string, error)
	RecordPosting(ctx context.Context, r *receipt.Receipt, voucher *ledger.Voucher) error
	GetPosting(ctx context.Context, postingID uuid.UUID) (ledger.Posting, error)
	ActivePostings(ctx context.Context, documentID uuid.UUID) ([]ledger.Posting, error)
	RecordReversal(ctx context.Context, r *receipt.Receipt, voucher *ledger.Voucher, reversed []ledger.Posting) error
}

// InvoiceBalanceLookup resolves an invoice's outstanding balance. Implemented
// by the invoice repository.
type InvoiceBalanceLookup interface {
	OutstandingBalance(ctx context.Context, invoiceRef uuid.UUID) (values.Money, error)
}

// MetricsCollector records allocation and posting activity.
type MetricsCollector interface {
	RecordAllocation(ctx context.Context, mode receipt.AllocationMode, invoices int)
	RecordPosting(ctx context.Context, voucherNo string)
	RecordReversal(ctx context.Context, voucherNo string)
}

// CreateReceiptRequest carries the inputs for a new receipt.
type CreateReceiptRequest struct {
	Number     string
	ContractID uuid.UUID
	PayerID    uuid.UUID
	Method     receipt.PaymentMethod
	Amounts    receipt.Amounts
	Currency   string
}

// AllocationRequest selects the allocation mode and its inputs. Single mode
// uses InvoiceRef; multiple mode uses Entries.
type AllocationRequest struct {
	Mode       receipt.AllocationMode
	InvoiceRef uuid.UUID
	Entries    []receipt.AllocationEntry
}

// PostRequest carries the posting inputs for a receipt.
type PostRequest struct {
	Date          time.Time
	DebitAccount  ledger.AccountRef
	CreditAccount ledger.AccountRef
	Narration     string
}
