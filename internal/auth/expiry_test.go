package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestExpiry(t *testing.T) {
	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	token := signed(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)})

	got, err := Expiry(token)
	require.NoError(t, err)
	assert.True(t, exp.Equal(got), "expected %s, got %s", exp, got)
}

func TestExpiryWithoutClaim(t *testing.T) {
	token := signed(t, jwt.RegisteredClaims{Subject: "42"})

	_, err := Expiry(token)
	require.ErrorIs(t, err, ErrNoExpiry)
}

func TestExpiryOpaqueToken(t *testing.T) {
	_, err := Expiry("not-a-jwt")
	require.Error(t, err)
}

func TestTokenExpired(t *testing.T) {
	assert.True(t, TokenExpired(time.Now().Add(-time.Minute), 0))
	assert.True(t, TokenExpired(time.Now().Add(2*time.Minute), ExpiryBuffer))
	assert.False(t, TokenExpired(time.Now().Add(time.Hour), ExpiryBuffer))
}
