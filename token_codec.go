package auth

import (
	"crypto/rsa"
	"log"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// Codec implements TokenCodec with two independent signing contexts:
// RS256 with a private/public pair for access tokens, and HS256 with a
// shared secret for refresh tokens. The contexts never share key material.
type Codec struct {
	issuer        string
	accessTTL     time.Duration
	refreshTTL    time.Duration
	accessPrivate *rsa.PrivateKey
	accessKeyfunc jwt.Keyfunc
	refreshSecret []byte
	logger        Logger
}

var _ TokenCodec = (*Codec)(nil)

// TokenOptions overrides issuance defaults for a single sign call.
type TokenOptions struct {
	// TTL overrides the context default expiration when non-zero.
	TTL time.Duration
	// IssuedAt overrides the issuance time. Zero uses time.Now().
	IssuedAt time.Time
}

// NewTokenCodec builds a Codec from configuration. The refresh secret is
// mandatory. The access private key may be absent for verification-only
// deployments; signing will then fail with an infrastructure error. Public
// key resolution prefers a JWK Set URL when configured, then the configured
// public key PEM, then the public half of the private key.
func NewTokenCodec(cfg Config, logger Logger) (*Codec, error) {
	if logger == nil {
		logger = defLogger{}
	}

	if cfg.GetRefreshSecret() == "" {
		return nil, ErrKeyMaterial
	}

	c := &Codec{
		issuer:        cfg.GetIssuer(),
		accessTTL:     cfg.GetAccessTokenTTL(),
		refreshTTL:    cfg.GetRefreshTokenTTL(),
		refreshSecret: []byte(cfg.GetRefreshSecret()),
		logger:        logger,
	}

	if len(cfg.GetAccessPrivateKey()) > 0 {
		key, err := LoadRSAPrivateKey(cfg.GetAccessPrivateKey())
		if err != nil {
			return nil, err
		}
		c.accessPrivate = key
	}

	if url := cfg.GetJWKSetURL(); url != "" {
		jwks, err := keyfunc.Get(url, jwksOptions(logger))
		if err != nil {
			return nil, errors.Wrap(err, ErrKeyMaterial.Category, ErrKeyMaterial.Message).
				WithTextCode(ErrKeyMaterial.TextCode).
				WithCode(ErrKeyMaterial.Code)
		}
		c.accessKeyfunc = methodCheckedKeyfunc(jwt.SigningMethodRS256.Alg(), jwks.Keyfunc)
		return c, nil
	}

	var public *rsa.PublicKey
	if len(cfg.GetAccessPublicKey()) > 0 {
		key, err := LoadRSAPublicKey(cfg.GetAccessPublicKey())
		if err != nil {
			return nil, err
		}
		public = key
	} else if c.accessPrivate != nil {
		public = &c.accessPrivate.PublicKey
	} else {
		return nil, ErrKeyMaterial
	}

	c.accessKeyfunc = staticKeyfunc(jwt.SigningMethodRS256.Alg(), public)

	return c, nil
}

// SignAccess issues a short-lived RS256 token for the identity.
func (c *Codec) SignAccess(identity Identity) (string, error) {
	return c.SignAccessWithOptions(identity, TokenOptions{})
}

// SignAccessWithOptions issues an access token with per-call overrides.
func (c *Codec) SignAccessWithOptions(identity Identity, opts TokenOptions) (string, error) {
	if c.accessPrivate == nil {
		return "", ErrKeyMaterial
	}

	claims := c.newClaims(identity, c.accessTTL, opts)

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(c.accessPrivate)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign access token")
	}

	return signed, nil
}

// SignRefresh issues a long-lived HS256 token bound to a session record.
// The record id rides both in jti and in the dedicated id claim so that
// revocation lookups never need to parse business data.
func (c *Codec) SignRefresh(identity Identity, sessionID string) (string, error) {
	return c.SignRefreshWithOptions(identity, sessionID, TokenOptions{})
}

// SignRefreshWithOptions issues a refresh token with per-call overrides.
func (c *Codec) SignRefreshWithOptions(identity Identity, sessionID string, opts TokenOptions) (string, error) {
	claims := c.newClaims(identity, c.refreshTTL, opts)
	claims.RegisteredClaims.ID = sessionID
	claims.SessionRef = sessionID

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.refreshSecret)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign refresh token")
	}

	return signed, nil
}

// VerifyAccess validates a token under the access context.
func (c *Codec) VerifyAccess(raw string) (AuthClaims, error) {
	return c.verify(raw, c.accessKeyfunc)
}

// VerifyRefresh validates a token under the refresh context. It does not
// consult the session store; revocation is the middleware's concern.
func (c *Codec) VerifyRefresh(raw string) (AuthClaims, error) {
	return c.verify(raw, staticKeyfunc(jwt.SigningMethodHS256.Alg(), c.refreshSecret))
}

func (c *Codec) verify(raw string, keyFn jwt.Keyfunc) (AuthClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 1)
	if c.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(c.issuer))
	}

	token, err := jwt.ParseWithClaims(raw, &JWTClaims{}, keyFn, parserOptions...)
	if err != nil {
		return nil, c.mapVerificationError(err)
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	c.logger.Error("token codec could not decode validated claims")
	return nil, ErrTokenMalformed
}

// mapVerificationError keeps the failure reasons distinguishable internally;
// the HTTP boundary collapses all of them into one unauthenticated outcome.
func (c *Codec) mapVerificationError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, ErrTokenAlgorithm):
		return ErrTokenAlgorithm
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrTokenSignature
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrTokenMalformed
	default:
		return errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode).
			WithCode(ErrTokenMalformed.Code)
	}
}

func (c *Codec) newClaims(identity Identity, ttl time.Duration, opts TokenOptions) *JWTClaims {
	issuedAt := opts.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = time.Now()
	}

	if opts.TTL != 0 {
		ttl = opts.TTL
	}

	return &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   identity.ID(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
		UserRole: identity.Role(),
		TenantID: identity.TenantID(),
	}
}

func staticKeyfunc(alg string, key any) jwt.Keyfunc {
	return methodCheckedKeyfunc(alg, func(*jwt.Token) (any, error) {
		return key, nil
	})
}

func methodCheckedKeyfunc(alg string, resolve jwt.Keyfunc) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != alg {
			return nil, ErrTokenAlgorithm
		}
		return resolve(token)
	}
}

func jwksOptions(logger Logger) keyfunc.Options {
	return keyfunc.Options{
		RefreshErrorHandler: func(err error) {
			if logger != nil {
				logger.Warn("background JWK set refresh failed: %s", err)
				return
			}
			log.Printf("failed to do a background refresh of JWK set: %s", err)
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	}
}
