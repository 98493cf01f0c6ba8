package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims is the token payload: the account id and role plus the
// registered iat/exp claims.
type JWTClaims struct {
	jwt.RegisteredClaims
	UID      string `json:"id"`
	UserRole string `json:"role"`
}

// UserID returns the account id, falling back to the subject
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

// Role returns the role claim as issued
func (c *JWTClaims) Role() string {
	return c.UserRole
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// Identity converts verified claims into an AuthenticatedIdentity. It fails
// when the id is missing or the role is not one we issue.
func (c *JWTClaims) Identity() (AuthenticatedIdentity, bool) {
	id := c.UserID()
	if id == "" {
		return AuthenticatedIdentity{}, false
	}

	role, ok := ParseRole(c.UserRole)
	if !ok {
		return AuthenticatedIdentity{}, false
	}

	return AuthenticatedIdentity{ID: id, Role: role}, true
}
