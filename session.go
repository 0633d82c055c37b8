package auth

import (
	"context"
	"reflect"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// SessionManager drives the session lifecycle: it verifies credentials,
// mints token pairs bound to persisted session records, rotates them on
// refresh, and revokes them on logout.
type SessionManager struct {
	verifier CredentialVerifier
	users    IdentityReader
	sessions SessionStore
	codec    TokenCodec
	logger   Logger
}

// NewSessionManager returns a new SessionManager
func NewSessionManager(verifier CredentialVerifier, users IdentityReader, sessions SessionStore, codec TokenCodec) *SessionManager {
	return &SessionManager{
		verifier: verifier,
		users:    users,
		sessions: sessions,
		codec:    codec,
		logger:   defLogger{},
	}
}

func (s *SessionManager) WithLogger(logger Logger) *SessionManager {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Login verifies the credentials and opens a new session. Each login opens
// its own session record so the same account can stay signed in from
// several devices at once.
func (s *SessionManager) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	identity, err := s.verifier.VerifyIdentity(ctx, email, password)
	if err != nil {
		s.logger.Error("Login verify identity error: %s", err)
		return nil, err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("Login identity is nil or zero value")
		return nil, ErrIdentityNotFound
	}

	return s.IssueTokens(ctx, identity)
}

// Refresh rotates a consumed refresh token. The replacement session record
// is created and signed before the consumed record is deleted, so a crash
// between the two steps leaves the client with at least one working token.
// A failed delete is logged and swallowed: the stale record expires on its
// own and the new pair is already valid.
func (s *SessionManager) Refresh(ctx context.Context, claims AuthClaims) (*TokenPair, error) {
	if claims == nil {
		return nil, ErrTokenMalformed
	}

	subject, err := uuid.Parse(claims.Subject())
	if err != nil {
		return nil, ErrTokenMalformed
	}

	user, err := s.users.FindByID(ctx, subject)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load user during refresh")
	}

	pair, err := s.IssueTokens(ctx, NewIdentityFromUser(user))
	if err != nil {
		return nil, err
	}

	if old, err := uuid.Parse(claims.SessionID()); err == nil {
		if err := s.sessions.DeleteByID(ctx, old); err != nil {
			s.logger.Warn("Refresh failed to delete consumed session %s: %s", old, err)
		}
	}

	return pair, nil
}

// Logout revokes the presented refresh token by deleting its session
// record. Logging out an already revoked session succeeds.
func (s *SessionManager) Logout(ctx context.Context, claims AuthClaims) error {
	if claims == nil {
		return ErrTokenMalformed
	}

	id, err := uuid.Parse(claims.SessionID())
	if err != nil {
		return ErrTokenMalformed
	}

	if err := s.sessions.DeleteByID(ctx, id); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to revoke session")
	}

	return nil
}

// Self resolves the authenticated user's own record. The password digest
// never leaves this method.
func (s *SessionManager) Self(ctx context.Context, claims AuthClaims) (*User, error) {
	if claims == nil {
		return nil, ErrForbidden
	}

	id, err := uuid.Parse(claims.Subject())
	if err != nil {
		return nil, ErrTokenMalformed
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load user")
	}

	return user.Sanitized(), nil
}

// IssueTokens opens a session record for the identity and signs the pair
// against it. The refresh token carries the record id, the access token
// stands alone.
func (s *SessionManager) IssueTokens(ctx context.Context, identity Identity) (*TokenPair, error) {
	owner, err := uuid.Parse(identity.ID())
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "identity has a malformed id")
	}

	session, err := s.sessions.Create(ctx, owner)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to create session record")
	}

	access, err := s.codec.SignAccess(identity)
	if err != nil {
		s.logger.Error("IssueTokens sign access error: %s", err)
		return nil, err
	}

	refresh, err := s.codec.SignRefresh(identity, session.ID.String())
	if err != nil {
		s.logger.Error("IssueTokens sign refresh error: %s", err)
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}
