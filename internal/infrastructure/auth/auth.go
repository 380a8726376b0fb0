package auth

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/leaseworks/lease-engine/internal/domain/approval"
)

// CapabilityAuthorizer answers approval capability checks from the
// actor_capabilities table. Rows are granted out of band by an admin
// tool; the engine only reads them.
type CapabilityAuthorizer struct {
	pool *pgxpool.Pool
}

// NewCapabilityAuthorizer builds the database-backed authorizer.
func NewCapabilityAuthorizer(pool *pgxpool.Pool) *CapabilityAuthorizer {
	return &CapabilityAuthorizer{pool: pool}
}

// IsAuthorized reports whether the actor holds the capability. An actor
// with no rows holds nothing.
func (a *CapabilityAuthorizer) IsAuthorized(ctx context.Context, actor approval.Actor, action approval.Action) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM actor_capabilities
			WHERE actor_id = $1 AND capability = $2
		)`

	var allowed bool
	if err := a.pool.QueryRow(ctx, query, actor.ID, string(action)).Scan(&allowed); err != nil {
		return false, fmt.Errorf("capability lookup failed: %w", err)
	}
	return allowed, nil
}

// StaticAuthorizer grants every capability to every actor. Meant for
// development environments without a provisioned capability table.
type StaticAuthorizer struct{}

// NewStaticAuthorizer builds the allow-all authorizer.
func NewStaticAuthorizer() *StaticAuthorizer {
	return &StaticAuthorizer{}
}

func (a *StaticAuthorizer) IsAuthorized(_ context.Context, _ approval.Actor, _ approval.Action) (bool, error) {
	return true, nil
}
