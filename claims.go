package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims represents the decoded payload of a verified token. Claims are
// never consulted for authorization until the signature has been checked
// against the key for the token's declared context.
type AuthClaims interface {
	Subject() string
	UserID() string
	Role() string
	Tenant() string
	SessionID() string
	HasRole(role string) bool
	IsAtLeast(minRole string) bool
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims. The wire shape is
// {sub, role, tenant?, id?}; id carries the backing session record and is
// present only on refresh tokens.
type JWTClaims struct {
	jwt.RegisteredClaims
	UserRole   string `json:"role,omitempty"`
	TenantID   string `json:"tenant,omitempty"`
	SessionRef string `json:"id,omitempty"`
}

// Verify interface compliance
var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the user ID carried in the subject claim
func (c *JWTClaims) UserID() string {
	return c.RegisteredClaims.Subject
}

// Role returns the global role
func (c *JWTClaims) Role() string {
	return c.UserRole
}

// Tenant returns the optional tenant scope
func (c *JWTClaims) Tenant() string {
	return c.TenantID
}

// SessionID returns the backing session record id, empty on access tokens
func (c *JWTClaims) SessionID() string {
	return c.SessionRef
}

// HasRole checks if the user has a specific role
func (c *JWTClaims) HasRole(role string) bool {
	return c.UserRole == role
}

// IsAtLeast checks if the user's role is at least the minimum required role
func (c *JWTClaims) IsAtLeast(minRole string) bool {
	return RoleIsAtLeast(c.UserRole, minRole)
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
