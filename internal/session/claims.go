package session

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const RoleAdmin = "admin"

// Claims is the payload of the backend access token.
type Claims struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	Occupation string `json:"occupation"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) IsAdmin() bool {
	return c != nil && c.Role == RoleAdmin
}

// ParseClaims decodes the token payload. The signature is not checked:
// the backend verifies every request, this is only used for display and
// local gating.
func ParseClaims(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// Valid reports whether token can be used at now: it must be non-empty
// and, when it is a JWT carrying exp, not expired. Opaque tokens are valid.
func Valid(token string, now time.Time) bool {
	if token == "" {
		return false
	}
	claims, err := ParseClaims(token)
	if err != nil || claims.ExpiresAt == nil {
		return true
	}
	return now.Before(claims.ExpiresAt.Time)
}

// HasValidToken reads the store and applies Valid.
func HasValidToken(ctx context.Context, s Store) bool {
	token, err := s.Get(ctx)
	if err != nil {
		return false
	}
	return Valid(token, time.Now())
}

// CurrentClaims returns the claims of the stored token.
func CurrentClaims(ctx context.Context, s Store) (*Claims, error) {
	token, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	claims, err := ParseClaims(token)
	if err != nil {
		return nil, errors.Join(ErrNoToken, err)
	}
	return claims, nil
}
