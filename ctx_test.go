package auth_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	auth "github.com/nexlify/go-tenant-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserContext(t *testing.T) {
	user := &auth.User{
		ID:    uuid.New(),
		Email: "rosa@example.com",
		Role:  auth.RoleCustomer,
	}

	ctx := auth.WithContext(context.Background(), user)

	got, ok := auth.FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "rosa@example.com", got.Email)
}

func TestUserContext_Missing(t *testing.T) {
	_, ok := auth.FromContext(context.Background())
	assert.False(t, ok)
}

func TestClaimsContext(t *testing.T) {
	claims := newClaims()
	ctx := auth.WithClaimsContext(context.Background(), claims)

	got, ok := auth.GetClaims(ctx)
	require.True(t, ok)
	assert.Equal(t, claims.Subject(), got.Subject())
	assert.Equal(t, claims.Role(), got.Role())

	_, ok = auth.GetClaims(context.Background())
	assert.False(t, ok)
}

func TestHasRole(t *testing.T) {
	ctx := auth.WithClaimsContext(context.Background(), newClaims())

	assert.True(t, auth.HasRole(ctx, auth.RoleManager))
	assert.False(t, auth.HasRole(ctx, auth.RoleAdmin))
	assert.False(t, auth.HasRole(context.Background(), auth.RoleManager))
}

func TestGetRouterClaims(t *testing.T) {
	claims := newClaims()

	ctx := new(MockContext)
	ctx.On("Locals", "session").Return(claims)

	got, ok := auth.GetRouterClaims(ctx, "session")
	require.True(t, ok)
	assert.Equal(t, claims.Subject(), got.Subject())
}

func TestGetRouterClaims_DefaultKey(t *testing.T) {
	claims := newClaims()

	ctx := new(MockContext)
	ctx.On("Locals", "user").Return(claims)

	_, ok := auth.GetRouterClaims(ctx, "")
	assert.True(t, ok)
}

func TestGetRouterClaims_Missing(t *testing.T) {
	ctx := new(MockContext)
	ctx.On("Locals", "user").Return(nil)

	_, ok := auth.GetRouterClaims(ctx, "user")
	assert.False(t, ok)
}
