package service

import (
	"context"
	"testing"

	"github.com/driftwoodhq/authgate/internal/authgate/domain"
	"github.com/driftwoodhq/authgate/internal/authgate/store"
	"github.com/stretchr/testify/require"
)

func newUserService(t *testing.T) (*UserService, *AuthService) {
	t.Helper()

	auth, st := newAuthService(t)
	return &UserService{Store: st}, auth
}

func str(s string) *string { return &s }

func TestUserUpdate(t *testing.T) {
	users, auth := newUserService(t)
	ctx := context.Background()

	registerUser(t, auth, "alice", "s3cret-password")
	registerUser(t, auth, "bob", "bobs-password")

	alice, err := users.Store.Users().GetUserByUsername(ctx, "alice")
	require.NoError(t, err)

	t.Run("changes fields", func(t *testing.T) {
		updated, err := users.Update(ctx, alice.ID, UserUpdate{
			Email: str("alice@corp.example.com"),
			Roles: []string{"user", "admin"},
		})
		require.NoError(t, err)
		require.Equal(t, "alice@corp.example.com", updated.Email)
		require.Equal(t, []domain.Role{domain.RoleUser, domain.RoleAdmin}, updated.Roles)
	})

	t.Run("username conflict", func(t *testing.T) {
		var opErr *OperationError
		_, err := users.Update(ctx, alice.ID, UserUpdate{Username: str("bob")})
		require.ErrorAs(t, err, &opErr)
		require.Equal(t, "Username is already taken", opErr.Reason)
	})

	t.Run("email conflict", func(t *testing.T) {
		var opErr *OperationError
		_, err := users.Update(ctx, alice.ID, UserUpdate{Email: str("bob@example.com")})
		require.ErrorAs(t, err, &opErr)
		require.Equal(t, "Email is already in use", opErr.Reason)
	})

	t.Run("unchanged username is not a conflict", func(t *testing.T) {
		_, err := users.Update(ctx, alice.ID, UserUpdate{Username: str("alice")})
		require.NoError(t, err)
	})

	t.Run("unknown role", func(t *testing.T) {
		var opErr *OperationError
		_, err := users.Update(ctx, alice.ID, UserUpdate{Roles: []string{"wizard"}})
		require.ErrorAs(t, err, &opErr)
	})

	t.Run("password change takes effect", func(t *testing.T) {
		_, err := users.Update(ctx, alice.ID, UserUpdate{Password: str("new-password")})
		require.NoError(t, err)

		_, err = auth.Login(ctx, "alice", "s3cret-password")
		require.ErrorIs(t, err, ErrInvalidCredentials)

		_, err = auth.Login(ctx, "alice", "new-password")
		require.NoError(t, err)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := users.Update(ctx, "no-such-id", UserUpdate{Email: str("x@example.com")})
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestUserDelete(t *testing.T) {
	users, auth := newUserService(t)
	ctx := context.Background()

	registerUser(t, auth, "alice", "s3cret-password")
	registerUser(t, auth, "bob", "bobs-password")

	alice, err := users.Store.Users().GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	bob, err := users.Store.Users().GetUserByUsername(ctx, "bob")
	require.NoError(t, err)

	// Promote alice so the self-delete guard applies.
	_, err = users.Update(ctx, alice.ID, UserUpdate{Roles: []string{"admin"}})
	require.NoError(t, err)

	t.Run("admin cannot delete own account", func(t *testing.T) {
		var opErr *OperationError
		err := users.Delete(ctx, alice.ID, alice.ID)
		require.ErrorAs(t, err, &opErr)
		require.Equal(t, "Administrators cannot delete their own accounts", opErr.Reason)
	})

	t.Run("admin deletes another user and their tokens", func(t *testing.T) {
		pair, err := auth.Login(ctx, "bob", "bobs-password")
		require.NoError(t, err)

		require.NoError(t, users.Delete(ctx, alice.ID, bob.ID))

		_, err = users.Get(ctx, bob.ID)
		require.ErrorIs(t, err, store.ErrNotFound)

		_, err = auth.Refresh(ctx, pair.RefreshToken)
		require.ErrorIs(t, err, ErrRefreshNotFound)
	})

	t.Run("non-admin may delete own account", func(t *testing.T) {
		registerUser(t, auth, "carol", "carols-password")
		carol, err := users.Store.Users().GetUserByUsername(ctx, "carol")
		require.NoError(t, err)

		require.NoError(t, users.Delete(ctx, carol.ID, carol.ID))
	})

	t.Run("missing user", func(t *testing.T) {
		err := users.Delete(ctx, alice.ID, "no-such-id")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}
