package mockapi

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenAccess  = "access"
	tokenRefresh = "refresh"
)

var errTokenRevoked = errors.New("token has been revoked")

type tokenClaims struct {
	TokenType string `json:"token_type"`
	UserID    int    `json:"user_id"`
	Gen       int64  `json:"gen"`
	jwt.RegisteredClaims
}

// issuer signs HS256 tokens. Bumping a generation invalidates every token
// of that type issued before.
type issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	accessGen  atomic.Int64
	refreshGen atomic.Int64
}

func newIssuer(secret string, accessTTL, refreshTTL time.Duration) *issuer {
	return &issuer{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL}
}

func (i *issuer) pair(userID int) (access, refresh string, err error) {
	access, err = i.sign(tokenAccess, userID)
	if err != nil {
		return "", "", err
	}
	refresh, err = i.sign(tokenRefresh, userID)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (i *issuer) sign(kind string, userID int) (string, error) {
	ttl, gen := i.accessTTL, i.accessGen.Load()
	if kind == tokenRefresh {
		ttl, gen = i.refreshTTL, i.refreshGen.Load()
	}
	now := time.Now()
	claims := tokenClaims{
		TokenType: kind,
		UserID:    userID,
		Gen:       gen,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// verify returns the user id carried by a valid token of the given kind.
func (i *issuer) verify(kind, tokenString string) (int, error) {
	var claims tokenClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return 0, errors.New("invalid token")
	}
	if claims.TokenType != kind {
		return 0, fmt.Errorf("wrong token type %q", claims.TokenType)
	}
	gen := i.accessGen.Load()
	if kind == tokenRefresh {
		gen = i.refreshGen.Load()
	}
	if claims.Gen < gen {
		return 0, errTokenRevoked
	}
	return claims.UserID, nil
}
