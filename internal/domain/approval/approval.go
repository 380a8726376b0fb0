package approval

import (
	"context"
	"time"

	"github.com/google/uuid"

	domainerrors "github.com/leaseworks/lease-engine/internal/domain/errors"
	"github.com/leaseworks/lease-engine/internal/domain/validation"
	"github.com/leaseworks/lease-engine/internal/domain/values"
)

// Status is the approval state of a financial document.
type Status int

const (
	StatusNotRequired Status = iota
	StatusPending
	StatusApproved
	StatusRejected
)

func (s Status) String() string {
	switch s {
	case StatusNotRequired:
		return "not_required"
	case StatusPending:
		return "pending"
	case StatusApproved:
		return "approved"
	case StatusRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Action is a capability an actor needs for a gate transition.
type Action string

const (
	ActionApprove Action = "approval.approve"
	ActionReject  Action = "approval.reject"
	ActionReset   Action = "approval.reset"
)

// Actor identifies who requests a transition.
type Actor struct {
	ID   uuid.UUID
	Name string
}

// Authorizer is the external actor-capability check.
type Authorizer interface {
	IsAuthorized(ctx context.Context, actor Actor, action Action) (bool, error)
}

// State is the approval record embedded in every financial document.
type State struct {
	Status    Status     `json:"status"`
	Comment   string     `json:"comment,omitempty"`
	Reason    string     `json:"reason,omitempty"`
	DecidedBy *uuid.UUID `json:"decided_by,omitempty"`
	DecidedAt *time.Time `json:"decided_at,omitempty"`
}

// EnsureMutable rejects any mutation of an approved document. Reset is the
// only way to unlock it, for every actor.
func (s *State) EnsureMutable() error {
	if s.Status == StatusApproved {
		return domainerrors.NewProtectedDocumentError("document is approved and cannot be modified")
	}
	return nil
}

// IsApproved reports whether the document is currently approved.
func (s *State) IsApproved() bool {
	return s.Status == StatusApproved
}

// AllowsPosting reports whether the approval state permits ledger posting.
// Posting is not an edit: approved documents post fine, pending ones don't.
func (s *State) AllowsPosting() bool {
	return s.Status == StatusApproved || s.Status == StatusNotRequired
}

// Gate drives approval transitions for financial documents. Documents whose
// amount meets the threshold start Pending; everything else starts
// NotRequired.
type Gate struct {
	threshold  values.Money
	authorizer Authorizer
}

// NewGate creates a gate with the configured approval threshold. The
// authorizer may be nil when the gate is used only for threshold decisions;
// decision transitions then fail.
func NewGate(threshold values.Money, authorizer Authorizer) *Gate {
	return &Gate{threshold: threshold, authorizer: authorizer}
}

// InitialState returns the state a freshly created document starts in.
func (g *Gate) InitialState(amount values.Money) State {
	if !g.threshold.IsZero() && amount.Currency() == g.threshold.Currency() && !amount.LessThan(g.threshold) {
		return State{Status: StatusPending}
	}
	return State{Status: StatusNotRequired}
}

// Reevaluate submits a NotRequired document whose amount now meets the
// threshold. Pending, Approved, and Rejected states are left untouched.
func (g *Gate) Reevaluate(s *State, amount values.Money) {
	if s.Status == StatusNotRequired && g.InitialState(amount).Status == StatusPending {
		s.Status = StatusPending
	}
}

// Submit moves NotRequired or Rejected into Pending. Submitting an already
// pending document is a no-op; an approved one is rejected.
func (g *Gate) Submit(s *State) error {
	switch s.Status {
	case StatusNotRequired, StatusRejected:
		s.Status = StatusPending
		s.Reason = ""
		s.Comment = ""
		s.DecidedBy = nil
		s.DecidedAt = nil
		return nil
	case StatusPending:
		return nil
	default:
		return domainerrors.NewIllegalTransitionError(s.Status.String(), StatusPending.String())
	}
}

// Approve moves Pending to Approved. Requires the approve capability; an
// optional comment is recorded with the decision.
func (g *Gate) Approve(ctx context.Context, s *State, actor Actor, comment string) error {
	if err := g.authorize(ctx, actor, ActionApprove); err != nil {
		return err
	}
	if s.Status != StatusPending {
		return domainerrors.NewIllegalTransitionError(s.Status.String(), StatusApproved.String())
	}

	now := time.Now()
	s.Status = StatusApproved
	s.Comment = comment
	s.Reason = ""
	s.DecidedBy = &actor.ID
	s.DecidedAt = &now
	return nil
}

// Reject moves Pending to Rejected. The reason is mandatory.
func (g *Gate) Reject(ctx context.Context, s *State, actor Actor, reason string) error {
	if err := g.authorize(ctx, actor, ActionReject); err != nil {
		return err
	}
	if err := validation.ValidateReason(reason); err != nil {
		return domainerrors.NewValidationError("EMPTY_REASON", err.Error())
	}
	if s.Status != StatusPending {
		return domainerrors.NewIllegalTransitionError(s.Status.String(), StatusRejected.String())
	}

	now := time.Now()
	s.Status = StatusRejected
	s.Reason = reason
	s.Comment = ""
	s.DecidedBy = &actor.ID
	s.DecidedAt = &now
	return nil
}

// Reset moves Approved or Rejected back to Pending. This is the only way to
// unlock an approved document.
func (g *Gate) Reset(ctx context.Context, s *State, actor Actor) error {
	if err := g.authorize(ctx, actor, ActionReset); err != nil {
		return err
	}
	if s.Status != StatusApproved && s.Status != StatusRejected {
		return domainerrors.NewIllegalTransitionError(s.Status.String(), StatusPending.String())
	}

	s.Status = StatusPending
	s.Comment = ""
	s.Reason = ""
	s.DecidedBy = nil
	s.DecidedAt = nil
	return nil
}

func (g *Gate) authorize(ctx context.Context, actor Actor, action Action) error {
	if actor.ID == uuid.Nil {
		return domainerrors.NewUnauthorizedError("actor is required for " + string(action))
	}
	if g.authorizer == nil {
		return domainerrors.NewInternalError("no authorizer configured")
	}
	ok, err := g.authorizer.IsAuthorized(ctx, actor, action)
	if err != nil {
		return domainerrors.NewInternalError("authorization check failed").WithCause(err)
	}
	if !ok {
		return domainerrors.NewUnauthorizedError("actor " + actor.ID.String() + " lacks " + string(action))
	}
	return nil
}

// BulkAction is the operation applied by a bulk approval run.
type BulkAction string

const (
	BulkApprove BulkAction = "approve"
	BulkReject  BulkAction = "reject"
)

// BulkOutcome aggregates a bulk approval run. Items not currently Pending
// are skipped; one item's failure never aborts the batch.
type BulkOutcome struct {
	Applied int `json:"applied"`
	Skipped int `json:"skipped"`
}

// ApplyBulk runs one action over a set of states, independently per item.
func (g *Gate) ApplyBulk(ctx context.Context, states []*State, actor Actor, action BulkAction, note string) (BulkOutcome, error) {
	var out BulkOutcome
	for _, s := range states {
		if s == nil || s.Status != StatusPending {
			out.Skipped++
			continue
		}

		var err error
		switch action {
		case BulkApprove:
			err = g.Approve(ctx, s, actor, note)
		case BulkReject:
			err = g.Reject(ctx, s, actor, note)
		default:
			return BulkOutcome{}, domainerrors.NewValidationError("UNKNOWN_BULK_ACTION",
				"bulk action must be approve or reject")
		}

		if err != nil {
			out.Skipped++
			continue
		}
		out.Applied++
	}
	return out, nil
}
