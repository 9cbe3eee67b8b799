package shared

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestActorCapabilities(t *testing.T) {
	viewer := Actor{ID: 1, Capabilities: []string{CapListUsers}}
	require.True(t, viewer.HasCapability(CapListUsers))
	require.False(t, viewer.HasCapability(CapAdmin))
	require.False(t, viewer.IsAdmin())

	admin := Actor{ID: 2, Capabilities: []string{CapAdmin}}
	require.True(t, admin.HasCapability(CapListUsers))
	require.True(t, admin.IsAdmin())
}

func TestActorContextRoundTrip(t *testing.T) {
	actor := Actor{ID: 7, OrganizationID: 1, Email: "x@example.com"}
	ctx := ContextWithActor(context.Background(), actor)

	got, ok := ActorFromContext(ctx)
	require.True(t, ok)
	require.Equal(t, actor, got)

	_, ok = ActorFromContext(context.Background())
	require.False(t, ok)
}

func TestConflictErrorMatchesSentinel(t *testing.T) {
	err := &ConflictError{Field: "email"}
	require.ErrorIs(t, err, ErrConflict)
	require.Equal(t, "email already taken", err.Error())
	require.False(t, errors.Is(err, ErrNotFound))
}

func TestNormalizePage(t *testing.T) {
	page, size := NormalizePage(0, 0, 50)
	require.Equal(t, 1, page)
	require.Equal(t, 20, size)

	page, size = NormalizePage(3, 500, 50)
	require.Equal(t, 3, page)
	require.Equal(t, 50, size)

	page, size = NormalizePage(-1, 10, 50)
	require.Equal(t, 1, page)
	require.Equal(t, 10, size)
}
