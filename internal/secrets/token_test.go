package secrets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour, time.Hour)

	raw, err := issuer.InviteToken(42)
	require.NoError(t, err)

	claims, err := issuer.Parse(raw, PurposeInvite)
	require.NoError(t, err)
	userID, err := claims.UserID()
	require.NoError(t, err)
	require.Equal(t, int64(42), userID)
}

func TestTokenPurposeMismatch(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour, time.Hour)

	raw, err := issuer.ResetToken(42)
	require.NoError(t, err)

	_, err = issuer.Parse(raw, PurposeInvite)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenExpiry(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour, 15*time.Minute)

	raw, err := issuer.ResetToken(42)
	require.NoError(t, err)

	issuer.WithNow(func() time.Time { return time.Now().Add(16 * time.Minute) })
	_, err = issuer.Parse(raw, PurposeReset)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour, time.Hour)
	other := NewTokenIssuer("other-secret", time.Hour, time.Hour)

	raw, err := issuer.InviteToken(42)
	require.NoError(t, err)

	_, err = other.Parse(raw, PurposeInvite)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenGarbage(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour, time.Hour)
	_, err := issuer.Parse("not-a-token", PurposeInvite)
	require.ErrorIs(t, err, ErrTokenInvalid)
}
