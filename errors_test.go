package auth_test

import (
	"fmt"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	auth "github.com/nexlify/go-tenant-auth"
	"github.com/stretchr/testify/assert"
)

func TestSentinelErrors_CategoriesAndCodes(t *testing.T) {
	t.Run("identity not found", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryNotFound, auth.ErrIdentityNotFound.Category)
		assert.Equal(t, goerrors.CodeNotFound, auth.ErrIdentityNotFound.Code)
		assert.Equal(t, auth.TextCodeIdentityNotFound, auth.ErrIdentityNotFound.TextCode)
	})

	t.Run("email exists", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryValidation, auth.ErrEmailAlreadyExists.Category)
		assert.Equal(t, goerrors.CodeBadRequest, auth.ErrEmailAlreadyExists.Code)
		assert.Equal(t, auth.TextCodeEmailExists, auth.ErrEmailAlreadyExists.TextCode)
	})

	t.Run("credential mismatch", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryValidation, auth.ErrMismatchedHashAndPassword.Category)
		assert.Equal(t, goerrors.CodeBadRequest, auth.ErrMismatchedHashAndPassword.Code)
		assert.Equal(t, auth.TextCodeCredentialMismatch, auth.ErrMismatchedHashAndPassword.TextCode)
	})

	t.Run("too many attempts", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryAuth, auth.ErrTooManyLoginAttempts.Category)
		assert.Equal(t, goerrors.CodeUnauthorized, auth.ErrTooManyLoginAttempts.Code)
		assert.Equal(t, auth.TextCodeTooManyAttempts, auth.ErrTooManyLoginAttempts.TextCode)
	})

	t.Run("token failures are unauthorized", func(t *testing.T) {
		for _, err := range []*goerrors.Error{
			auth.ErrTokenExpired,
			auth.ErrTokenMalformed,
			auth.ErrTokenSignature,
			auth.ErrTokenAlgorithm,
			auth.ErrTokenRevoked,
		} {
			assert.Equal(t, goerrors.CategoryAuth, err.Category, err.TextCode)
			assert.Equal(t, goerrors.CodeUnauthorized, err.Code, err.TextCode)
		}
	})

	t.Run("forbidden", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryAuthz, auth.ErrForbidden.Category)
		assert.Equal(t, goerrors.CodeForbidden, auth.ErrForbidden.Code)
		assert.Equal(t, auth.TextCodeForbidden, auth.ErrForbidden.TextCode)
	})

	t.Run("key material", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryInternal, auth.ErrKeyMaterial.Category)
		assert.Equal(t, goerrors.CodeInternal, auth.ErrKeyMaterial.Code)
		assert.Equal(t, auth.TextCodeKeyMaterial, auth.ErrKeyMaterial.TextCode)
	})

	t.Run("empty password", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryValidation, auth.ErrNoEmptyString.Category)
		assert.Equal(t, goerrors.CodeBadRequest, auth.ErrNoEmptyString.Code)
		assert.Equal(t, auth.TextCodeEmptyPassword, auth.ErrNoEmptyString.TextCode)
	})
}

func TestSentinelErrors_IdentityThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("refresh failed: %w", auth.ErrTokenRevoked)
	assert.True(t, goerrors.Is(wrapped, auth.ErrTokenRevoked))
	assert.False(t, goerrors.Is(wrapped, auth.ErrTokenExpired))
}

func TestIsTokenExpiredError(t *testing.T) {
	assert.True(t, auth.IsTokenExpiredError(auth.ErrTokenExpired))
	assert.True(t, auth.IsTokenExpiredError(fmt.Errorf("while verifying: %w", auth.ErrTokenExpired)))
	assert.False(t, auth.IsTokenExpiredError(auth.ErrTokenMalformed))
	assert.False(t, auth.IsTokenExpiredError(nil))
}

func TestIsMalformedError(t *testing.T) {
	assert.True(t, auth.IsMalformedError(auth.ErrTokenMalformed))
	assert.True(t, auth.IsMalformedError(fmt.Errorf("missing or malformed JWT")))
	assert.False(t, auth.IsMalformedError(auth.ErrTokenExpired))
	assert.False(t, auth.IsMalformedError(nil))
}

func TestIsUnauthenticated(t *testing.T) {
	assert.True(t, auth.IsUnauthenticated(auth.ErrTokenExpired))
	assert.True(t, auth.IsUnauthenticated(auth.ErrTokenRevoked))
	assert.True(t, auth.IsUnauthenticated(auth.ErrTooManyLoginAttempts))

	assert.False(t, auth.IsUnauthenticated(auth.ErrForbidden))
	assert.False(t, auth.IsUnauthenticated(auth.ErrMismatchedHashAndPassword))
	assert.False(t, auth.IsUnauthenticated(fmt.Errorf("plain error")))
	assert.False(t, auth.IsUnauthenticated(nil))
}
