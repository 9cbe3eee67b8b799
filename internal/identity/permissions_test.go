package identity

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/accounthub/accounthub/internal/shared"
)

func TestEvaluateCapabilityGrant(t *testing.T) {
	actor := shared.Actor{ID: 5, Capabilities: []string{shared.CapListUsers}}
	require.True(t, Evaluate(actor, 9, shared.CapListUsers))
	require.False(t, Evaluate(actor, 9, shared.CapAdmin))
}

func TestEvaluateOwnershipGrant(t *testing.T) {
	actor := shared.Actor{ID: 5}
	require.True(t, Evaluate(actor, 5, shared.CapListUsers))
	require.True(t, Evaluate(actor, 5, shared.CapAdmin))
	require.False(t, Evaluate(actor, 6, shared.CapListUsers))
	// A zero target means no specific account is in scope, so ownership
	// cannot apply.
	require.False(t, Evaluate(actor, 0, shared.CapListUsers))
}

func TestAdminImpliesEverything(t *testing.T) {
	admin := shared.Actor{ID: 1, Capabilities: []string{shared.CapAdmin}}
	require.True(t, CanRead(admin, 9))
	require.True(t, CanWrite(admin, 9))
	require.True(t, AdminOrOwner(admin, 9))
	require.NoError(t, RequireAdmin(admin))
}

func TestCanWriteOwnerWithoutAdmin(t *testing.T) {
	owner := shared.Actor{ID: 5}
	require.True(t, CanWrite(owner, 5))
	require.False(t, CanWrite(owner, 6))
}

func TestRequireAdminRejectsOwnership(t *testing.T) {
	owner := shared.Actor{ID: 5, Capabilities: []string{shared.CapListUsers}}
	err := RequireAdmin(owner)
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestAdminOrOwner(t *testing.T) {
	viewer := shared.Actor{ID: 5, Capabilities: []string{shared.CapListUsers}}
	require.True(t, AdminOrOwner(viewer, 5))
	require.False(t, AdminOrOwner(viewer, 6))
}
