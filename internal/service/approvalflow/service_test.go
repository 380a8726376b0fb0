package approvalflow

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/leaseworks/lease-engine/internal/domain/approval"
	domainerrors "github.com/leaseworks/lease-engine/internal/domain/errors"
	"github.com/leaseworks/lease-engine/internal/domain/values"
	"github.com/leaseworks/lease-engine/internal/testutil/mocks"
)

func threshold(t *testing.T) values.Money {
	t.Helper()
	return values.MustNewMoney(decimal.NewFromInt(10000), values.USD)
}

func newTestService(t *testing.T, states *mocks.StateRepository, allow bool) Service {
	auth := new(mocks.Authorizer)
	auth.On("IsAuthorized", mock.Anything, mock.Anything, mock.Anything).Return(allow, nil)
	return NewService(states, auth, threshold(t), nil)
}

func approver() approval.Actor {
	return approval.Actor{ID: uuid.New(), Name: "finance manager"}
}

func TestService_Transitions(t *testing.T) {
	ctx := context.Background()

	t.Run("submit moves not required to pending", func(t *testing.T) {
		docID := uuid.New()
		states := new(mocks.StateRepository)
		states.On("GetState", ctx, docID).Return(approval.State{Status: approval.StatusNotRequired}, nil)
		states.On("SaveState", ctx, docID, mock.MatchedBy(func(s approval.State) bool {
			return s.Status == approval.StatusPending
		})).Return(nil)

		svc := newTestService(t, states, true)
		state, err := svc.Submit(ctx, docID)
		require.NoError(t, err)
		assert.Equal(t, approval.StatusPending, state.Status)
		states.AssertExpectations(t)
	})

	t.Run("approve records the decision", func(t *testing.T) {
		docID := uuid.New()
		actor := approver()
		states := new(mocks.StateRepository)
		states.On("GetState", ctx, docID).Return(approval.State{Status: approval.StatusPending}, nil)
		states.On("SaveState", ctx, docID, mock.MatchedBy(func(s approval.State) bool {
			return s.Status == approval.StatusApproved && s.DecidedBy != nil && *s.DecidedBy == actor.ID
		})).Return(nil)

		svc := newTestService(t, states, true)
		state, err := svc.Approve(ctx, docID, actor, "checked against lease terms")
		require.NoError(t, err)
		assert.Equal(t, "checked against lease terms", state.Comment)
	})

	t.Run("unauthorized actor cannot approve", func(t *testing.T) {
		docID := uuid.New()
		states := new(mocks.StateRepository)
		states.On("GetState", ctx, docID).Return(approval.State{Status: approval.StatusPending}, nil)

		svc := newTestService(t, states, false)
		_, err := svc.Approve(ctx, docID, approver(), "")
		assert.True(t, domainerrors.IsType(err, domainerrors.ErrorTypeUnauthorized))
		states.AssertNotCalled(t, "SaveState")
	})

	t.Run("reject requires a reason", func(t *testing.T) {
		docID := uuid.New()
		states := new(mocks.StateRepository)
		states.On("GetState", ctx, docID).Return(approval.State{Status: approval.StatusPending}, nil)

		svc := newTestService(t, states, true)
		_, err := svc.Reject(ctx, docID, approver(), "")
		assert.True(t, domainerrors.IsValidation(err))
	})

	t.Run("reset unlocks an approved document", func(t *testing.T) {
		docID := uuid.New()
		states := new(mocks.StateRepository)
		states.On("GetState", ctx, docID).Return(approval.State{Status: approval.StatusApproved}, nil)
		states.On("SaveState", ctx, docID, mock.MatchedBy(func(s approval.State) bool {
			return s.Status == approval.StatusPending && s.DecidedBy == nil
		})).Return(nil)

		svc := newTestService(t, states, true)
		state, err := svc.Reset(ctx, docID, approver())
		require.NoError(t, err)
		assert.Equal(t, approval.StatusPending, state.Status)
	})

	t.Run("approving a non-pending document is illegal", func(t *testing.T) {
		docID := uuid.New()
		states := new(mocks.StateRepository)
		states.On("GetState", ctx, docID).Return(approval.State{Status: approval.StatusApproved}, nil)

		svc := newTestService(t, states, true)
		_, err := svc.Approve(ctx, docID, approver(), "")
		assert.True(t, domainerrors.IsType(err, domainerrors.ErrorTypeIllegalTransition))
	})
}

func TestService_Bulk(t *testing.T) {
	ctx := context.Background()

	t.Run("mixed batch counts applied and skipped", func(t *testing.T) {
		pending1, pending2 := uuid.New(), uuid.New()
		alreadyApproved := uuid.New()
		missing := uuid.New()

		states := new(mocks.StateRepository)
		states.On("GetState", ctx, pending1).Return(approval.State{Status: approval.StatusPending}, nil)
		states.On("GetState", ctx, pending2).Return(approval.State{Status: approval.StatusPending}, nil)
		states.On("GetState", ctx, alreadyApproved).Return(approval.State{Status: approval.StatusApproved}, nil)
		states.On("GetState", ctx, missing).Return(approval.State{}, domainerrors.ErrDocumentNotFound)
		states.On("SaveState", ctx, pending1, mock.Anything).Return(nil)
		states.On("SaveState", ctx, pending2, mock.Anything).Return(nil)

		svc := newTestService(t, states, true)
		out, err := svc.Bulk(ctx, []uuid.UUID{pending1, alreadyApproved, pending2, missing},
			approver(), approval.BulkApprove, "quarter close")
		require.NoError(t, err)
		assert.Equal(t, 2, out.Applied)
		assert.Equal(t, 2, out.Skipped)
	})

	t.Run("one failing save does not abort the batch", func(t *testing.T) {
		failing, ok := uuid.New(), uuid.New()

		states := new(mocks.StateRepository)
		states.On("GetState", ctx, failing).Return(approval.State{Status: approval.StatusPending}, nil)
		states.On("GetState", ctx, ok).Return(approval.State{Status: approval.StatusPending}, nil)
		states.On("SaveState", ctx, failing, mock.Anything).
			Return(domainerrors.NewInternalError("write failed"))
		states.On("SaveState", ctx, ok, mock.Anything).Return(nil)

		svc := newTestService(t, states, true)
		out, err := svc.Bulk(ctx, []uuid.UUID{failing, ok},
			approver(), approval.BulkReject, "missing documentation")
		require.NoError(t, err)
		assert.Equal(t, 1, out.Applied)
		assert.Equal(t, 1, out.Skipped)
	})

	t.Run("unknown action", func(t *testing.T) {
		svc := newTestService(t, new(mocks.StateRepository), true)
		_, err := svc.Bulk(ctx, []uuid.UUID{uuid.New()}, approver(), "archive", "")
		assert.True(t, domainerrors.IsValidation(err))
	})

	t.Run("empty batch is rejected before any work", func(t *testing.T) {
		states := new(mocks.StateRepository)
		svc := newTestService(t, states, true)

		_, err := svc.Bulk(ctx, nil, approver(), approval.BulkApprove, "")
		assert.True(t, domainerrors.IsValidation(err))
		states.AssertNotCalled(t, "GetState")
	})
}
