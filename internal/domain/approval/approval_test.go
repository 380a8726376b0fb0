package approval_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaseworks/lease-engine/internal/domain/approval"
	domainerrors "github.com/leaseworks/lease-engine/internal/domain/errors"
	"github.com/leaseworks/lease-engine/internal/domain/values"
)

// allowAll authorizes every actor for every action.
type allowAll struct{}

func (allowAll) IsAuthorized(context.Context, approval.Actor, approval.Action) (bool, error) {
	return true, nil
}

// denyAll refuses every actor.
type denyAll struct{}

func (denyAll) IsAuthorized(context.Context, approval.Actor, approval.Action) (bool, error) {
	return false, nil
}

func testActor() approval.Actor {
	return approval.Actor{ID: uuid.New(), Name: "finance manager"}
}

func TestGate_InitialState(t *testing.T) {
	gate := approval.NewGate(values.MustNewMoneyFromFloat(10000, values.USD), allowAll{})

	tests := []struct {
		name   string
		amount float64
		want   approval.Status
	}{
		{"below threshold", 9999.99, approval.StatusNotRequired},
		{"at threshold", 10000, approval.StatusPending},
		{"above threshold", 50000, approval.StatusPending},
		{"zero amount", 0, approval.StatusNotRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := gate.InitialState(values.MustNewMoneyFromFloat(tt.amount, values.USD))
			assert.Equal(t, tt.want, s.Status)
		})
	}

	t.Run("zero threshold disables the gate", func(t *testing.T) {
		open := approval.NewGate(values.Zero(values.USD), allowAll{})
		s := open.InitialState(values.MustNewMoneyFromFloat(1000000, values.USD))
		assert.Equal(t, approval.StatusNotRequired, s.Status)
	})
}

func TestGate_Reevaluate(t *testing.T) {
	gate := approval.NewGate(values.MustNewMoneyFromFloat(10000, values.USD), allowAll{})

	t.Run("crossing the threshold submits automatically", func(t *testing.T) {
		s := approval.State{Status: approval.StatusNotRequired}
		gate.Reevaluate(&s, values.MustNewMoneyFromFloat(12000, values.USD))
		assert.Equal(t, approval.StatusPending, s.Status)
	})

	t.Run("staying below the threshold changes nothing", func(t *testing.T) {
		s := approval.State{Status: approval.StatusNotRequired}
		gate.Reevaluate(&s, values.MustNewMoneyFromFloat(500, values.USD))
		assert.Equal(t, approval.StatusNotRequired, s.Status)
	})

	t.Run("decided states are left untouched", func(t *testing.T) {
		for _, status := range []approval.Status{
			approval.StatusPending, approval.StatusApproved, approval.StatusRejected,
		} {
			s := approval.State{Status: status}
			gate.Reevaluate(&s, values.MustNewMoneyFromFloat(12000, values.USD))
			assert.Equal(t, status, s.Status)
		}
	})
}

func TestGate_Transitions(t *testing.T) {
	ctx := context.Background()
	gate := approval.NewGate(values.MustNewMoneyFromFloat(10000, values.USD), allowAll{})
	actor := testActor()

	t.Run("submit approve cycle", func(t *testing.T) {
		s := &approval.State{Status: approval.StatusNotRequired}
		require.NoError(t, gate.Submit(s))
		assert.Equal(t, approval.StatusPending, s.Status)

		require.NoError(t, gate.Approve(ctx, s, actor, "looks right"))
		assert.Equal(t, approval.StatusApproved, s.Status)
		assert.Equal(t, "looks right", s.Comment)
		require.NotNil(t, s.DecidedBy)
		assert.Equal(t, actor.ID, *s.DecidedBy)
	})

	t.Run("reject requires reason", func(t *testing.T) {
		s := &approval.State{Status: approval.StatusPending}
		err := gate.Reject(ctx, s, actor, "  ")
		require.Error(t, err)
		assert.True(t, domainerrors.IsValidation(err))
		assert.Equal(t, approval.StatusPending, s.Status)

		require.NoError(t, gate.Reject(ctx, s, actor, "amounts disputed"))
		assert.Equal(t, approval.StatusRejected, s.Status)
		assert.Equal(t, "amounts disputed", s.Reason)
	})

	t.Run("rejected can be resubmitted", func(t *testing.T) {
		s := &approval.State{Status: approval.StatusRejected, Reason: "old"}
		require.NoError(t, gate.Submit(s))
		assert.Equal(t, approval.StatusPending, s.Status)
		assert.Empty(t, s.Reason)
	})

	t.Run("submit on pending is a no-op", func(t *testing.T) {
		s := &approval.State{Status: approval.StatusPending}
		require.NoError(t, gate.Submit(s))
		assert.Equal(t, approval.StatusPending, s.Status)
	})

	t.Run("submit on approved is illegal", func(t *testing.T) {
		s := &approval.State{Status: approval.StatusApproved}
		err := gate.Submit(s)
		assert.True(t, domainerrors.IsType(err, domainerrors.ErrorTypeIllegalTransition))
	})

	t.Run("approve on non-pending is illegal", func(t *testing.T) {
		for _, status := range []approval.Status{
			approval.StatusNotRequired, approval.StatusApproved, approval.StatusRejected,
		} {
			s := &approval.State{Status: status}
			err := gate.Approve(ctx, s, actor, "")
			assert.True(t, domainerrors.IsType(err, domainerrors.ErrorTypeIllegalTransition),
				"status %s", status)
			assert.Equal(t, status, s.Status)
		}
	})

	t.Run("reset unlocks approved and rejected", func(t *testing.T) {
		for _, status := range []approval.Status{approval.StatusApproved, approval.StatusRejected} {
			s := &approval.State{Status: status, Comment: "c", Reason: "r"}
			require.NoError(t, gate.Reset(ctx, s, actor))
			assert.Equal(t, approval.StatusPending, s.Status)
			assert.Empty(t, s.Comment)
			assert.Empty(t, s.Reason)
		}
	})

	t.Run("reset on pending is illegal", func(t *testing.T) {
		s := &approval.State{Status: approval.StatusPending}
		err := gate.Reset(ctx, s, actor)
		assert.True(t, domainerrors.IsType(err, domainerrors.ErrorTypeIllegalTransition))
	})
}

func TestGate_Authorization(t *testing.T) {
	ctx := context.Background()
	gate := approval.NewGate(values.MustNewMoneyFromFloat(10000, values.USD), denyAll{})
	actor := testActor()

	s := &approval.State{Status: approval.StatusPending}

	err := gate.Approve(ctx, s, actor, "")
	assert.True(t, domainerrors.IsType(err, domainerrors.ErrorTypeUnauthorized))
	assert.Equal(t, approval.StatusPending, s.Status)

	err = gate.Reject(ctx, s, actor, "reason")
	assert.True(t, domainerrors.IsType(err, domainerrors.ErrorTypeUnauthorized))

	t.Run("nil actor rejected before the capability check", func(t *testing.T) {
		err := gate.Approve(ctx, s, approval.Actor{}, "")
		assert.True(t, domainerrors.IsType(err, domainerrors.ErrorTypeUnauthorized))
	})
}

func TestState_EnsureMutable(t *testing.T) {
	for _, status := range []approval.Status{
		approval.StatusNotRequired, approval.StatusPending, approval.StatusRejected,
	} {
		s := &approval.State{Status: status}
		assert.NoError(t, s.EnsureMutable(), "status %s", status)
	}

	s := &approval.State{Status: approval.StatusApproved}
	err := s.EnsureMutable()
	require.Error(t, err)
	assert.True(t, domainerrors.IsProtectedDocument(err))
	assert.Contains(t, err.Error(), "reset")
}

func TestState_AllowsPosting(t *testing.T) {
	assert.True(t, (&approval.State{Status: approval.StatusApproved}).AllowsPosting())
	assert.True(t, (&approval.State{Status: approval.StatusNotRequired}).AllowsPosting())
	assert.False(t, (&approval.State{Status: approval.StatusPending}).AllowsPosting())
	assert.False(t, (&approval.State{Status: approval.StatusRejected}).AllowsPosting())
}

func TestGate_ApplyBulk(t *testing.T) {
	ctx := context.Background()
	gate := approval.NewGate(values.MustNewMoneyFromFloat(10000, values.USD), allowAll{})
	actor := testActor()

	t.Run("mixed batch only changes pending items", func(t *testing.T) {
		states := []*approval.State{
			{Status: approval.StatusPending},
			{Status: approval.StatusApproved},
			{Status: approval.StatusPending},
			{Status: approval.StatusRejected},
			{Status: approval.StatusNotRequired},
		}

		out, err := gate.ApplyBulk(ctx, states, actor, approval.BulkApprove, "quarterly batch")
		require.NoError(t, err)
		assert.Equal(t, 2, out.Applied)
		assert.Equal(t, 3, out.Skipped)

		assert.Equal(t, approval.StatusApproved, states[0].Status)
		assert.Equal(t, approval.StatusApproved, states[2].Status)
		// Non-pending items are untouched.
		assert.Equal(t, approval.StatusRejected, states[3].Status)
		assert.Equal(t, approval.StatusNotRequired, states[4].Status)
	})

	t.Run("bulk reject", func(t *testing.T) {
		states := []*approval.State{
			{Status: approval.StatusPending},
			{Status: approval.StatusPending},
		}
		out, err := gate.ApplyBulk(ctx, states, actor, approval.BulkReject, "budget freeze")
		require.NoError(t, err)
		assert.Equal(t, 2, out.Applied)
		assert.Equal(t, 0, out.Skipped)
		assert.Equal(t, "budget freeze", states[0].Reason)
	})

	t.Run("per-item failure does not abort the batch", func(t *testing.T) {
		// Rejecting without a reason fails each item individually; the run
		// still completes and reports the items as skipped.
		states := []*approval.State{
			{Status: approval.StatusPending},
			{Status: approval.StatusPending},
		}
		out, err := gate.ApplyBulk(ctx, states, actor, approval.BulkReject, "")
		require.NoError(t, err)
		assert.Equal(t, 0, out.Applied)
		assert.Equal(t, 2, out.Skipped)
	})

	t.Run("unknown action", func(t *testing.T) {
		_, err := gate.ApplyBulk(ctx, nil, actor, approval.BulkAction("archive"), "")
		assert.True(t, domainerrors.IsValidation(err))
	})
}
