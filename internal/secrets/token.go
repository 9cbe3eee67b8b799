package secrets

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token purposes. A token issued for one purpose never validates for another.
const (
	PurposeInvite = "invite"
	PurposeReset  = "reset"
)

// ErrTokenInvalid is returned for expired, malformed or wrong-purpose tokens.
var ErrTokenInvalid = errors.New("secrets: invalid token")

// LinkClaims are the claims carried by invite and reset tokens.
type LinkClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenIssuer mints single-use, time-bounded HS256 tokens for onboarding
// and credential-recovery links.
type TokenIssuer struct {
	secret    []byte
	inviteTTL time.Duration
	resetTTL  time.Duration
	now       func() time.Time
}

// NewTokenIssuer constructs a TokenIssuer.
func NewTokenIssuer(secret string, inviteTTL, resetTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:    []byte(secret),
		inviteTTL: inviteTTL,
		resetTTL:  resetTTL,
		now:       time.Now,
	}
}

// WithNow overrides the issuer clock for testing.
func (t *TokenIssuer) WithNow(fn func() time.Time) {
	if fn != nil {
		t.now = fn
	}
}

// InviteToken issues an onboarding token bound to the user id.
func (t *TokenIssuer) InviteToken(userID int64) (string, error) {
	return t.issue(userID, PurposeInvite, t.inviteTTL)
}

// ResetToken issues a password-recovery token bound to the user id.
func (t *TokenIssuer) ResetToken(userID int64) (string, error) {
	return t.issue(userID, PurposeReset, t.resetTTL)
}

func (t *TokenIssuer) issue(userID int64, purpose string, ttl time.Duration) (string, error) {
	now := t.now()
	claims := LinkClaims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("secrets: sign token: %w", err)
	}
	return signed, nil
}

// Parse validates a token for the given purpose and returns its claims.
func (t *TokenIssuer) Parse(raw, purpose string) (*LinkClaims, error) {
	claims := &LinkClaims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Purpose != purpose {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// UserID extracts the subject user id from the claims.
func (c *LinkClaims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, ErrTokenInvalid
	}
	return id, nil
}
