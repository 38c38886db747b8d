package session

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, role string, exp time.Time) string {
	t.Helper()
	claims := Claims{
		Email: "ana@subtech.cl",
		Name:  "Ana",
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u-1",
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-secret"))
	require.NoError(t, err)
	return token
}

func TestParseClaims(t *testing.T) {
	token := signedToken(t, RoleAdmin, time.Now().Add(time.Hour))

	claims, err := ParseClaims(token)

	require.NoError(t, err)
	assert.Equal(t, "ana@subtech.cl", claims.Email)
	assert.Equal(t, "u-1", claims.Subject)
	assert.True(t, claims.IsAdmin())
}

func TestValid(t *testing.T) {
	now := time.Now()
	assert.False(t, Valid("", now))
	assert.True(t, Valid("opaque-token", now))
	assert.True(t, Valid(signedToken(t, "user", now.Add(time.Minute)), now))
	assert.False(t, Valid(signedToken(t, "user", now.Add(-time.Minute)), now))
}

func TestHasValidTokenAndCurrentClaims(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	assert.False(t, HasValidToken(ctx, s))

	_, err := CurrentClaims(ctx, s)
	assert.ErrorIs(t, err, ErrNoToken)

	require.NoError(t, s.Save(ctx, signedToken(t, "user", time.Now().Add(time.Hour))))
	assert.True(t, HasValidToken(ctx, s))

	claims, err := CurrentClaims(ctx, s)
	require.NoError(t, err)
	assert.False(t, claims.IsAdmin())

	require.NoError(t, s.Save(ctx, "opaque"))
	_, err = CurrentClaims(ctx, s)
	assert.ErrorIs(t, err, ErrNoToken)
}
