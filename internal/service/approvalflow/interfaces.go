package approvalflow

import (
	"context"

	"github.com/google/uuid"

	"github.com/leaseworks/lease-engine/internal/domain/approval"
)

// Service drives approval transitions for financial documents by id.
type Service interface {
	// Submit puts a document into the approval queue.
	Submit(ctx context.Context, documentID uuid.UUID) (approval.State, error)
	// Approve locks a pending document.
	Approve(ctx context.Context, documentID uuid.UUID, actor approval.Actor, comment string) (approval.State, error)
	// Reject sends a pending document back with a reason.
	Reject(ctx context.Context, documentID uuid.UUID, actor approval.Actor, reason string) (approval.State, error)
	// Reset unlocks an approved or rejected document back to pending.
	Reset(ctx context.Context, documentID uuid.UUID, actor approval.Actor) (approval.State, error)
	// Bulk applies approve or reject over a batch, independently per item.
	Bulk(ctx context.Context, documentIDs []uuid.UUID, actor approval.Actor, action approval.BulkAction, note string) (approval.BulkOutcome, error)
}

// StateRepository reads and writes the approval state of any financial
// document, contract or receipt alike.
type StateRepository interface {
	GetState(ctx context.Context, documentID uuid.UUID) (approval.State, error)
	SaveState(ctx context.Context, documentID uuid.UUID, state approval.State) error
}

// MetricsCollector records approval transitions.
type MetricsCollector interface {
	RecordTransition(ctx context.Context, from, to approval.Status)
}
