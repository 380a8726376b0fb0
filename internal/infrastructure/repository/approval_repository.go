package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/leaseworks/lease-engine/internal/domain/approval"
	domainerrors "github.com/leaseworks/lease-engine/internal/domain/errors"
)

// approvalTables lists the document tables sharing the approval columns.
// Contracts and receipts go through the same gate, so the flow addresses
// documents by id without caring which kind they are.
var approvalTables = []string{"contracts", "receipts"}

// ApprovalRepository reads and writes the approval state of any financial
// document.
type ApprovalRepository struct {
	pool *pgxpool.Pool
}

func NewApprovalRepository(pool *pgxpool.Pool) *ApprovalRepository {
	return &ApprovalRepository{pool: pool}
}

func (r *ApprovalRepository) GetState(ctx context.Context, documentID uuid.UUID) (approval.State, error) {
	for _, table := range approvalTables {
		var (
			state     approval.State
			status    int
			decidedBy *uuid.UUID
			decidedAt *time.Time
		)
		err := r.pool.QueryRow(ctx, `
			SELECT approval_status, approval_comment, approval_reason, decided_by, decided_at
			FROM `+table+` WHERE id = $1`, documentID,
		).Scan(&status, &state.Comment, &state.Reason, &decidedBy, &decidedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return approval.State{}, translateError(err, domainerrors.ErrDocumentNotFound)
		}

		state.Status = approval.Status(status)
		state.DecidedBy = decidedBy
		state.DecidedAt = decidedAt
		return state, nil
	}
	return approval.State{}, domainerrors.ErrDocumentNotFound
}

func (r *ApprovalRepository) SaveState(ctx context.Context, documentID uuid.UUID, state approval.State) error {
	for _, table := range approvalTables {
		tag, err := r.pool.Exec(ctx, `
			UPDATE `+table+` SET
				approval_status = $2, approval_comment = $3, approval_reason = $4,
				decided_by = $5, decided_at = $6,
				updated_at = $7, version = version + 1
			WHERE id = $1`,
			documentID, int(state.Status), state.Comment, state.Reason,
			state.DecidedBy, state.DecidedAt, time.Now(),
		)
		if err != nil {
			return translateError(err, domainerrors.ErrDocumentNotFound)
		}
		if tag.RowsAffected() > 0 {
			return nil
		}
	}
	return domainerrors.ErrDocumentNotFound
}
