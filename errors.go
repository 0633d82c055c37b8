package auth

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeIdentityNotFound   = "auth_identity_not_found"
	TextCodeEmailExists        = "auth_email_exists"
	TextCodeCredentialMismatch = "auth_credential_mismatch"
	TextCodeTooManyAttempts    = "auth_too_many_attempts"
	TextCodeTokenExpired       = "auth_token_expired"
	TextCodeTokenMalformed     = "auth_token_malformed"
	TextCodeTokenSignature     = "auth_token_bad_signature"
	TextCodeTokenAlgorithm     = "auth_token_bad_algorithm"
	TextCodeTokenRevoked       = "auth_token_revoked"
	TextCodeForbidden          = "auth_forbidden"
	TextCodeKeyMaterial        = "auth_key_material"
	TextCodeEmptyPassword      = "auth_empty_password"
)

// ErrIdentityNotFound is returned when no identity matches a lookup.
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithTextCode(TextCodeIdentityNotFound).
	WithCode(errors.CodeNotFound)

// ErrEmailAlreadyExists is returned during registration when the email is
// taken. Registration intentionally reveals this; login never does.
var ErrEmailAlreadyExists = errors.New("email already exists", errors.CategoryValidation).
	WithTextCode(TextCodeEmailExists).
	WithCode(errors.CodeBadRequest)

// ErrMismatchedHashAndPassword is the single error reported for both an
// unknown email and a wrong password, so callers cannot enumerate accounts.
var ErrMismatchedHashAndPassword = errors.New("email or password does not match", errors.CategoryValidation).
	WithTextCode(TextCodeCredentialMismatch).
	WithCode(errors.CodeBadRequest)

// ErrTooManyLoginAttempts is returned while an account is cooling down.
var ErrTooManyLoginAttempts = errors.New("too many login attempts", errors.CategoryAuth).
	WithTextCode(TextCodeTooManyAttempts).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired marks a token past its expiry.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed marks a token that could not be parsed.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrTokenSignature marks a token whose signature did not verify.
var ErrTokenSignature = errors.New("token signature mismatch", errors.CategoryAuth).
	WithTextCode(TextCodeTokenSignature).
	WithCode(errors.CodeUnauthorized)

// ErrTokenAlgorithm marks a token signed with an unexpected method.
var ErrTokenAlgorithm = errors.New("unexpected token signing method", errors.CategoryAuth).
	WithTextCode(TextCodeTokenAlgorithm).
	WithCode(errors.CodeUnauthorized)

// ErrTokenRevoked marks a refresh token with no backing session record.
// At the HTTP boundary it is indistinguishable from ErrTokenSignature.
var ErrTokenRevoked = errors.New("token is no longer valid", errors.CategoryAuth).
	WithTextCode(TextCodeTokenRevoked).
	WithCode(errors.CodeUnauthorized)

// ErrForbidden is returned when a valid identity lacks the required role.
var ErrForbidden = errors.New("insufficient permissions", errors.CategoryAuthz).
	WithTextCode(TextCodeForbidden).
	WithCode(errors.CodeForbidden)

// ErrKeyMaterial is an infrastructure failure: signing keys could not be
// loaded. Surfaced as a server error, never as an authentication outcome.
var ErrKeyMaterial = errors.New("error while reading signing key", errors.CategoryInternal).
	WithTextCode(TextCodeKeyMaterial).
	WithCode(errors.CodeInternal)

// ErrNoEmptyString rejects empty passwords before hashing.
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(errors.CodeBadRequest)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// IsUnauthenticated reports whether err should map to a 401 at the boundary.
func IsUnauthenticated(err error) bool {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.Category == errors.CategoryAuth
}
