package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ExpiryBuffer is how close to expiry a token counts as expiring soon.
const ExpiryBuffer = 5 * time.Minute

var ErrNoExpiry = errors.New("token has no exp claim")

// Expiry reads the exp claim of a JWT access token without verifying its
// signature. It is used for status reporting only; the client never refreshes
// ahead of a 401.
func Expiry(token string) (time.Time, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("failed to parse token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrNoExpiry
	}
	return claims.ExpiresAt.Time, nil
}

// TokenExpired checks if the token is expired or will expire within buffer
func TokenExpired(expiresAt time.Time, buffer time.Duration) bool {
	return !time.Now().Before(expiresAt.Add(-buffer))
}
