package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/driftwoodhq/authgate/internal/authgate/domain"
	"github.com/driftwoodhq/authgate/internal/authgate/store"
	"github.com/driftwoodhq/authgate/internal/authgate/store/drivers/sqlite"
	"github.com/driftwoodhq/authgate/pkg/cryptox"
	"github.com/driftwoodhq/authgate/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "authgate-service-test")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newAuthService(t *testing.T) (*AuthService, store.Store) {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	signer, err := jwtx.NewSignerHS256(testSecret)
	require.NoError(t, err)
	verifier, err := jwtx.NewVerifierHS256(testSecret, jwtx.VerifyOptions{Issuer: "authgate-test"})
	require.NoError(t, err)

	return &AuthService{
		Store:      st,
		Signer:     signer,
		Verifier:   verifier,
		Issuer:     "authgate-test",
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	}, st
}

func registerUser(t *testing.T, svc *AuthService, username, password string) {
	t.Helper()

	msg, err := svc.Register(context.Background(), username, username+"@example.com", password, nil)
	require.NoError(t, err)
	require.Equal(t, MsgUserRegistered, msg)
}

func TestRegisterMessages(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	registerUser(t, svc, "alice", "s3cret-password")

	t.Run("duplicate username", func(t *testing.T) {
		msg, err := svc.Register(ctx, "alice", "new@example.com", "pw", nil)
		require.NoError(t, err)
		require.Equal(t, MsgUsernameTaken, msg)
	})

	t.Run("duplicate email", func(t *testing.T) {
		msg, err := svc.Register(ctx, "alice2", "alice@example.com", "pw", nil)
		require.NoError(t, err)
		require.Equal(t, MsgEmailInUse, msg)
	})

	t.Run("unknown role", func(t *testing.T) {
		var opErr *OperationError
		_, err := svc.Register(ctx, "mallory", "mallory@example.com", "pw", []string{"superuser"})
		require.ErrorAs(t, err, &opErr)
	})

	t.Run("empty roles default to user", func(t *testing.T) {
		registerUser(t, svc, "bob", "bobs-password")

		pair, err := svc.Login(ctx, "bob", "bobs-password")
		require.NoError(t, err)
		require.Equal(t, []domain.Role{domain.RoleUser}, pair.Roles)
	})
}

func TestLogin(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	registerUser(t, svc, "alice", "s3cret-password")

	t.Run("success returns usable pair", func(t *testing.T) {
		pair, err := svc.Login(ctx, "alice", "s3cret-password")
		require.NoError(t, err)
		require.Equal(t, "Bearer", pair.TokenType)
		require.Equal(t, "alice", pair.Username)
		require.NotEmpty(t, pair.AccessToken)
		require.NotEmpty(t, pair.RefreshToken)

		claims, err := svc.Verifier.Verify(pair.AccessToken)
		require.NoError(t, err)
		require.Equal(t, "alice", claims.Subject)
		require.Equal(t, pair.UserID, claims.UID)
		require.Equal(t, []string{"ROLE_USER"}, claims.Roles)
	})

	t.Run("wrong password is generic", func(t *testing.T) {
		_, err := svc.Login(ctx, "alice", "wrong")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown user is the same generic error", func(t *testing.T) {
		_, err := svc.Login(ctx, "nobody", "whatever")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestLoginReplacesRefreshToken(t *testing.T) {
	svc, st := newAuthService(t)
	ctx := context.Background()

	registerUser(t, svc, "alice", "s3cret-password")

	first, err := svc.Login(ctx, "alice", "s3cret-password")
	require.NoError(t, err)

	second, err := svc.Login(ctx, "alice", "s3cret-password")
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// The first refresh token is dead; only the latest works.
	_, err = svc.Refresh(ctx, first.RefreshToken)
	require.ErrorIs(t, err, ErrRefreshNotFound)

	_, err = svc.Refresh(ctx, second.RefreshToken)
	require.NoError(t, err)

	n, err := st.RefreshTokens().DeleteUserRefreshTokens(ctx, first.UserID)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestRefreshDoesNotRotate(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	registerUser(t, svc, "alice", "s3cret-password")

	pair, err := svc.Login(ctx, "alice", "s3cret-password")
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, pair.RefreshToken, refreshed.RefreshToken)
	require.NotEmpty(t, refreshed.AccessToken)
	require.Equal(t, pair.UserID, refreshed.UserID)

	// Still valid for a second refresh since it was not rotated.
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshUnknownToken(t *testing.T) {
	svc, _ := newAuthService(t)

	_, err := svc.Refresh(context.Background(), "never-issued")
	require.ErrorIs(t, err, ErrRefreshNotFound)
}

func TestRefreshExpiredTokenIsPurged(t *testing.T) {
	svc, st := newAuthService(t)
	svc.RefreshTTL = -time.Minute // issue already-expired tokens
	ctx := context.Background()

	registerUser(t, svc, "alice", "s3cret-password")

	pair, err := svc.Login(ctx, "alice", "s3cret-password")
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrRefreshExpired)

	// The expired record was deleted, so a retry reports not-found.
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrRefreshNotFound)

	hash := cryptox.FingerprintToken(pair.RefreshToken)
	_, err = st.RefreshTokens().GetRefreshTokenByHash(ctx, hash)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestLogoutIsUnconditional(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	registerUser(t, svc, "alice", "s3cret-password")

	pair, err := svc.Login(ctx, "alice", "s3cret-password")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, pair.UserID))

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrRefreshNotFound)

	// Logging out again with nothing left to delete still succeeds.
	require.NoError(t, svc.Logout(ctx, pair.UserID))
}

func TestValidate(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	registerUser(t, svc, "alice", "s3cret-password")

	pair, err := svc.Login(ctx, "alice", "s3cret-password")
	require.NoError(t, err)

	require.True(t, svc.Validate(pair.AccessToken))
	require.False(t, svc.Validate("not-a-token"))
	require.False(t, svc.Validate(pair.AccessToken+"x"))
}
