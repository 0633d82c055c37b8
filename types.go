package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Identity holds the attributes of an authenticated principal
type Identity interface {
	ID() string
	Email() string
	Role() string
	TenantID() string
}

// TokenPair bundles the two credentials issued for a session
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Config holds auth options
type Config interface {
	GetIssuer() string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
	GetAccessPrivateKey() []byte
	GetAccessPublicKey() []byte
	GetJWKSetURL() string
	GetRefreshSecret() string
	GetCookieDomain() string
	GetContextKey() string
	GetAuthScheme() string
}

// TokenCodec signs and verifies tokens under two independent contexts:
// an asymmetric access context and a symmetric refresh context.
type TokenCodec interface {
	SignAccess(identity Identity) (string, error)
	SignRefresh(identity Identity, sessionID string) (string, error)
	VerifyAccess(raw string) (AuthClaims, error)
	VerifyRefresh(raw string) (AuthClaims, error)
}

// SessionStore persists one record per outstanding refresh token. A record
// exists iff its refresh token is still usable; deleting the row revokes it.
type SessionStore interface {
	Create(ctx context.Context, ownerID uuid.UUID) (*RefreshSession, error)
	FindActive(ctx context.Context, id, ownerID uuid.UUID) (*RefreshSession, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

// IdentityReader is the read-only surface the session core needs from the
// user-management collaborator.
type IdentityReader interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByEmailWithPassword(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
}

// CredentialVerifier verifies a password against a stored identity and
// returns the matching Identity, or a credential mismatch error.
type CredentialVerifier interface {
	VerifyIdentity(ctx context.Context, email, password string) (Identity, error)
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
