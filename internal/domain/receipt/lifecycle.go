package receipt

import (
	"time"

	domainerrors "github.com/leaseworks/lease-engine/internal/domain/errors"
	"github.com/leaseworks/lease-engine/internal/domain/validation"
)

// paymentTransitions is the legal payment-status graph. Bounced and
// Cancelled can be reached manually from anywhere; they are terminal for the
// automated flow but a manual correction back to Received stays possible.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:   {PaymentReceived, PaymentBounced, PaymentCancelled},
	PaymentReceived:  {PaymentDeposited, PaymentBounced, PaymentCancelled},
	PaymentDeposited: {PaymentCleared, PaymentBounced, PaymentCancelled},
	PaymentCleared:   {PaymentBounced, PaymentCancelled},
	PaymentBounced:   {PaymentReceived, PaymentCancelled},
	PaymentCancelled: {PaymentReceived},
}

// StatusChange carries the auxiliary data some transitions require.
type StatusChange struct {
	BankName      string
	DepositDate   *time.Time
	ClearanceDate *time.Time
	Reason        string
}

// ChangePaymentStatus moves the receipt through the payment lifecycle.
// Approved receipts are protected: the approval must be reset first.
func (r *Receipt) ChangePaymentStatus(newStatus PaymentStatus, aux StatusChange) error {
	if err := r.Approval.EnsureMutable(); err != nil {
		return err
	}

	if !transitionAllowed(r.Payment, newStatus) {
		return domainerrors.NewIllegalTransitionError(r.Payment.String(), newStatus.String())
	}

	switch newStatus {
	case PaymentDeposited:
		if !r.Method.RequiresDeposit() {
			return domainerrors.NewIllegalTransitionError(r.Payment.String(), newStatus.String())
		}
		if aux.BankName == "" || aux.DepositDate == nil {
			return domainerrors.NewValidationError("MISSING_DEPOSIT_DATA",
				"depositing requires a bank name and deposit date")
		}
		r.BankName = aux.BankName
		r.DepositDate = aux.DepositDate

	case PaymentCleared:
		if aux.ClearanceDate == nil {
			return domainerrors.NewValidationError("MISSING_CLEARANCE_DATE",
				"clearing requires a clearance date")
		}
		r.ClearanceDate = aux.ClearanceDate

	case PaymentBounced, PaymentCancelled:
		if err := validation.ValidateReason(aux.Reason); err != nil {
			return domainerrors.NewValidationError("EMPTY_REASON", err.Error())
		}
		r.StatusReason = aux.Reason
	}

	r.Payment = newStatus
	r.UpdatedAt = time.Now()
	return nil
}

func transitionAllowed(from, to PaymentStatus) bool {
	for _, next := range paymentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// EnsureEditable reports whether field edits are currently legal: the
// receipt must not be approved and must not be posted.
func (r *Receipt) EnsureEditable() error {
	if err := r.Approval.EnsureMutable(); err != nil {
		return err
	}
	if r.IsPosted {
		return domainerrors.NewAlreadyPostedError("posted receipt cannot be edited; reverse the posting first")
	}
	return nil
}

// CanDelete reports whether the receipt may be removed: not approved, not
// bounced, and never posted.
func (r *Receipt) CanDelete() error {
	if err := r.Approval.EnsureMutable(); err != nil {
		return err
	}
	if r.Payment == PaymentBounced {
		return domainerrors.NewIllegalTransitionError(r.Payment.String(), "deleted")
	}
	if r.IsPosted {
		return domainerrors.NewAlreadyPostedError("posted receipt cannot be deleted")
	}
	return nil
}

// CanPost reports whether ledger posting is currently legal: approval is
// Approved or NotRequired, payment is Received or Cleared, and the receipt
// is not posted yet.
func (r *Receipt) CanPost() error {
	if !r.Approval.AllowsPosting() {
		return domainerrors.NewIllegalTransitionError(r.Approval.Status.String(), "posted")
	}
	if r.Payment != PaymentReceived && r.Payment != PaymentCleared {
		return domainerrors.NewIllegalTransitionError(r.Payment.String(), "posted")
	}
	if r.IsPosted {
		return domainerrors.NewAlreadyPostedError("receipt is already posted")
	}
	return nil
}

// CanReverse reports whether posting reversal is currently legal: the
// receipt must be posted. The ledger additionally requires at least one
// non-reversed entry.
func (r *Receipt) CanReverse() error {
	if !r.IsPosted {
		return domainerrors.NewNotPostedError("receipt is not posted")
	}
	return nil
}
