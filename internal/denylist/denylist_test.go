package denylist

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestChecker(t *testing.T) (*Checker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(client, testLogger()), mr
}

func TestSeedDomainsBlocked(t *testing.T) {
	checker := New(nil, testLogger())
	require.Greater(t, checker.Size(), 0)
	require.True(t, checker.IsBlocked(context.Background(), "mailinator.com"))
	require.False(t, checker.IsBlocked(context.Background(), "example.com"))
}

func TestRefreshedDomainsBlocked(t *testing.T) {
	ctx := context.Background()
	checker, _ := newTestChecker(t)

	require.False(t, checker.IsBlocked(ctx, "tempmail.example"))
	require.NoError(t, checker.Refresh(ctx, []string{"tempmail.example", "  Another.Example  "}))
	require.True(t, checker.IsBlocked(ctx, "tempmail.example"))
	require.True(t, checker.IsBlocked(ctx, "another.example"))
}

func TestRefreshReplacesPreviousList(t *testing.T) {
	ctx := context.Background()
	checker, _ := newTestChecker(t)

	require.NoError(t, checker.Refresh(ctx, []string{"old.example"}))
	require.NoError(t, checker.Refresh(ctx, []string{"new.example"}))
	require.False(t, checker.IsBlocked(ctx, "old.example"))
	require.True(t, checker.IsBlocked(ctx, "new.example"))
	// The embedded seed survives any refresh.
	require.True(t, checker.IsBlocked(ctx, "mailinator.com"))
}

func TestRefreshRejectsEmptySet(t *testing.T) {
	checker, _ := newTestChecker(t)
	require.Error(t, checker.Refresh(context.Background(), nil))
}

func TestRedisDownDoesNotBlock(t *testing.T) {
	ctx := context.Background()
	checker, mr := newTestChecker(t)

	require.NoError(t, checker.Refresh(ctx, []string{"tempmail.example"}))
	mr.Close()

	require.False(t, checker.IsBlocked(ctx, "tempmail.example"))
	require.True(t, checker.IsBlocked(ctx, "mailinator.com"))
}
