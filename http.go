package auth

import (
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/nexlify/go-tenant-auth/middleware/jwtware"
)

// Cookie names match what browser clients already send.
const (
	CookieAccessToken  = "accessToken"
	CookieRefreshToken = "refreshToken"
)

const (
	accessTokenLookup  = "header:" + router.HeaderAuthorization + ",cookie:" + CookieAccessToken
	refreshTokenLookup = "cookie:" + CookieRefreshToken
)

// HTTPAuth wires the token codec and the session store into router
// middlewares: one guarding access-token routes, one guarding the
// refresh and logout routes, plus a role guard layered on top.
type HTTPAuth struct {
	codec        TokenCodec
	sessions     SessionStore
	cfg          Config
	Logger       Logger
	ErrorHandler func(c router.Context, err error) error
}

func NewHTTPAuth(codec TokenCodec, sessions SessionStore, cfg Config) (*HTTPAuth, error) {
	if codec == nil {
		return nil, errors.New("http auth requires a token codec", errors.CategoryBadInput)
	}

	if sessions == nil {
		return nil, errors.New("http auth requires a session store", errors.CategoryBadInput)
	}

	a := &HTTPAuth{
		codec:    codec,
		sessions: sessions,
		cfg:      cfg,
		Logger:   defLogger{},
	}

	a.ErrorHandler = a.defaultErrHandler

	return a, nil
}

// AccessProtected guards routes behind a valid access token. The token is
// read from the Authorization header first, then the access cookie.
func (a *HTTPAuth) AccessProtected(listeners ...ValidationListener) router.MiddlewareFunc {
	return jwtware.New(jwtware.Config{
		ErrorHandler:        a.ErrorHandler,
		TokenValidator:      codecValidator{verify: a.codec.VerifyAccess},
		TokenLookup:         accessTokenLookup,
		AuthScheme:          a.cfg.GetAuthScheme(),
		ContextKey:          a.cfg.GetContextKey(),
		ContextEnricher:     ContextEnricherAdapter,
		ValidationListeners: listeners,
	})
}

// RefreshProtected guards the refresh and logout routes. The token is read
// from the refresh cookie only, and its session record must still exist;
// a deleted record means the token was revoked and the request fails the
// same way an invalid signature would.
func (a *HTTPAuth) RefreshProtected(listeners ...ValidationListener) router.MiddlewareFunc {
	all := append([]ValidationListener{a.revocationListener()}, listeners...)
	return jwtware.New(jwtware.Config{
		ErrorHandler:        a.ErrorHandler,
		TokenValidator:      codecValidator{verify: a.codec.VerifyRefresh},
		TokenLookup:         refreshTokenLookup,
		AuthScheme:          a.cfg.GetAuthScheme(),
		ContextKey:          a.cfg.GetContextKey(),
		ContextEnricher:     ContextEnricherAdapter,
		ValidationListeners: all,
	})
}

// RequireRole guards a route behind role membership. It expects claims
// already stored by AccessProtected; a request that gets here without
// them is denied, not errored.
func (a *HTTPAuth) RequireRole(roles ...string) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			claims, ok := GetRouterClaims(ctx, a.cfg.GetContextKey())
			if !ok {
				return a.ErrorHandler(ctx, ErrForbidden)
			}

			if !RoleInSet(claims.Role(), roles...) {
				return a.ErrorHandler(ctx, ErrForbidden)
			}

			return ctx.Next()
		}
	}
}

// RequireMinimumRole admits any role at or above min in the hierarchy.
func (a *HTTPAuth) RequireMinimumRole(min string) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			claims, ok := GetRouterClaims(ctx, a.cfg.GetContextKey())
			if !ok {
				return a.ErrorHandler(ctx, ErrForbidden)
			}

			if !claims.IsAtLeast(min) {
				return a.ErrorHandler(ctx, ErrForbidden)
			}

			return ctx.Next()
		}
	}
}

func (a *HTTPAuth) revocationListener() ValidationListener {
	return func(ctx router.Context, claims jwtware.AuthClaims) error {
		sid, err := uuid.Parse(claims.SessionID())
		if err != nil {
			return ErrTokenRevoked
		}

		owner, err := uuid.Parse(claims.Subject())
		if err != nil {
			return ErrTokenRevoked
		}

		if _, err := a.sessions.FindActive(ctx.Context(), sid, owner); err != nil {
			return ErrTokenRevoked
		}

		return nil
	}
}

// SetTokenCookies writes both token cookies. Lifetimes track the token
// TTLs so the browser drops a cookie around the time its token expires.
func (a *HTTPAuth) SetTokenCookies(c router.Context, pair TokenPair) {
	a.setCookie(c, CookieAccessToken, pair.AccessToken, a.cfg.GetAccessTokenTTL())
	a.setCookie(c, CookieRefreshToken, pair.RefreshToken, a.cfg.GetRefreshTokenTTL())
}

// ClearTokenCookies expires both token cookies.
func (a *HTTPAuth) ClearTokenCookies(c router.Context) {
	a.cookieDel(c, CookieAccessToken)
	a.cookieDel(c, CookieRefreshToken)
}

func (a *HTTPAuth) setCookie(c router.Context, name, val string, duration time.Duration) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    val,
		Domain:   a.cfg.GetCookieDomain(),
		Expires:  time.Now().Add(duration),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Strict",
	})
}

func (a *HTTPAuth) cookieDel(c router.Context, name string) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Domain:   a.cfg.GetCookieDomain(),
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Strict",
	})
}

func (a *HTTPAuth) defaultErrHandler(c router.Context, err error) error {
	if errors.Is(err, jwtware.ErrAccessDenied) {
		err = ErrForbidden
	}

	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryAuth, "Invalid authentication token").
			WithTextCode(TextCodeTokenMalformed).
			WithCode(errors.CodeUnauthorized)
	}

	a.Logger.Info(
		"Middleware error handler error=%s category=%s details=%s",
		richErr.Message,
		richErr.Category,
		print.MaybePrettyJSON(richErr.Metadata),
	)

	return c.JSON(richErr.Code, router.ViewContext{
		"error":     richErr.Message,
		"text_code": richErr.TextCode,
	})
}

// codecValidator adapts a codec verify function to the middleware's
// validator contract.
type codecValidator struct {
	verify func(raw string) (AuthClaims, error)
}

func (v codecValidator) Validate(raw string) (jwtware.AuthClaims, error) {
	claims, err := v.verify(raw)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
