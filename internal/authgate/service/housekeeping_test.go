package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/driftwoodhq/authgate/internal/authgate/domain"
	"github.com/driftwoodhq/authgate/internal/authgate/store"
	"github.com/driftwoodhq/authgate/pkg/cryptox"
	"github.com/driftwoodhq/authgate/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestHousekeepingSweepsExpiredTokens(t *testing.T) {
	auth, st := newAuthService(t)
	ctx := context.Background()

	registerUser(t, auth, "alice", "s3cret-password")
	alice, err := st.Users().GetUserByUsername(ctx, "alice")
	require.NoError(t, err)

	expired := domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    alice.ID,
		TokenHash: cryptox.FingerprintToken("stale"),
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, st.RefreshTokens().UpsertRefreshToken(ctx, expired))

	hk := NewHousekeepingService(st, slog.Default(), time.Hour)
	hk.Start() // sweeps once immediately
	hk.Stop()

	_, err = st.RefreshTokens().GetRefreshTokenByHash(ctx, expired.TokenHash)
	require.ErrorIs(t, err, store.ErrNotFound)
}
