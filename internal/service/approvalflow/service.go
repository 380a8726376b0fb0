package approvalflow

import (
	"context"

	"github.com/google/uuid"

	"github.com/leaseworks/lease-engine/internal/domain/approval"
	domainerrors "github.com/leaseworks/lease-engine/internal/domain/errors"
	"github.com/leaseworks/lease-engine/internal/domain/values"
)

type service struct {
	states  StateRepository
	gate    *approval.Gate
	metrics MetricsCollector
}

// NewService creates the approval flow service. The threshold decides which
// documents start pending; metrics may be nil.
func NewService(states StateRepository, authorizer approval.Authorizer, threshold values.Money, metrics MetricsCollector) Service {
	return &service{
		states:  states,
		gate:    approval.NewGate(threshold, authorizer),
		metrics: metrics,
	}
}

// transition loads the state, applies one gate operation, and saves it.
func (s *service) transition(ctx context.Context, documentID uuid.UUID, apply func(*approval.State) error) (approval.State, error) {
	state, err := s.states.GetState(ctx, documentID)
	if err != nil {
		return approval.State{}, err
	}
	from := state.Status

	if err := apply(&state); err != nil {
		return approval.State{}, err
	}

	if err := s.states.SaveState(ctx, documentID, state); err != nil {
		return approval.State{}, err
	}

	if s.metrics != nil && from != state.Status {
		s.metrics.RecordTransition(ctx, from, state.Status)
	}
	return state, nil
}

func (s *service) Submit(ctx context.Context, documentID uuid.UUID) (approval.State, error) {
	return s.transition(ctx, documentID, func(st *approval.State) error {
		return s.gate.Submit(st)
	})
}

func (s *service) Approve(ctx context.Context, documentID uuid.UUID, actor approval.Actor, comment string) (approval.State, error) {
	return s.transition(ctx, documentID, func(st *approval.State) error {
		return s.gate.Approve(ctx, st, actor, comment)
	})
}

func (s *service) Reject(ctx context.Context, documentID uuid.UUID, actor approval.Actor, reason string) (approval.State, error) {
	return s.transition(ctx, documentID, func(st *approval.State) error {
		return s.gate.Reject(ctx, st, actor, reason)
	})
}

func (s *service) Reset(ctx context.Context, documentID uuid.UUID, actor approval.Actor) (approval.State, error) {
	return s.transition(ctx, documentID, func(st *approval.State) error {
		return s.gate.Reset(ctx, st, actor)
	})
}

// Bulk runs approve or reject over a batch. Items that are missing, not
// pending, or fail their transition are skipped; the batch never aborts.
func (s *service) Bulk(ctx context.Context, documentIDs []uuid.UUID, actor approval.Actor, action approval.BulkAction, note string) (approval.BulkOutcome, error) {
	if len(documentIDs) == 0 {
		return approval.BulkOutcome{}, domainerrors.NewValidationError("EMPTY_BATCH",
			"at least one document id is required")
	}

	var out approval.BulkOutcome
	for _, id := range documentIDs {
		var err error
		switch action {
		case approval.BulkApprove:
			_, err = s.Approve(ctx, id, actor, note)
		case approval.BulkReject:
			_, err = s.Reject(ctx, id, actor, note)
		default:
			return approval.BulkOutcome{}, domainerrors.NewValidationError("UNKNOWN_BULK_ACTION",
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
