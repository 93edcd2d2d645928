package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/driftwoodhq/authgate/internal/authgate/domain"
	"github.com/driftwoodhq/authgate/internal/authgate/store"
	"github.com/driftwoodhq/authgate/pkg/cryptox"
	"github.com/driftwoodhq/authgate/pkg/idx"
	"github.com/driftwoodhq/authgate/pkg/jwtx"
	"github.com/driftwoodhq/authgate/pkg/slogx"
)

var (
	// ErrInvalidCredentials is deliberately generic. Login never reveals
	// whether the username or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrRefreshNotFound means the presented refresh token has no record.
	ErrRefreshNotFound = errors.New("refresh token not found")

	// ErrRefreshExpired means the record existed but its expiry has
	// passed. The record is purged as a side effect.
	ErrRefreshExpired = errors.New("refresh token expired")
)

// Signup outcome messages. Duplicate username/email is reported as an
// ordinary message rather than a hard error.
const (
	MsgUserRegistered = "User registered successfully!"
	MsgUsernameTaken  = "Error: Username is already taken!"
	MsgEmailInUse     = "Error: Email is already in use!"
)

// AuthService owns the credential lifecycle: login, signup, refresh,
// logout and token validation. It holds no per-call state; every method
// is an independent invocation.
type AuthService struct {
	Store      store.Store
	Signer     jwtx.Signer
	Verifier   jwtx.Verifier
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Login verifies the credentials and issues a fresh token pair. A login
// replaces any refresh token the user already holds; there is never more
// than one live refresh token per user.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.TokenPair, error) {
	now := time.Now()
	l := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		l.Info("login failed", slog.String("username", user.Username))
		return nil, ErrInvalidCredentials
	}

	accessToken, err := s.IssueAccessToken(user, now)
	if err != nil {
		return nil, err
	}

	refreshOpaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, err
	}

	record := domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    user.ID,
		TokenHash: cryptox.FingerprintToken(refreshOpaque),
		ExpiresAt: now.Add(s.RefreshTTL),
	}
	if err := s.Store.RefreshTokens().UpsertRefreshToken(ctx, record); err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshOpaque,
		TokenType:    "Bearer",
		UserID:       user.ID,
		Username:     user.Username,
		Email:        user.Email,
		Roles:        user.Roles,
	}, nil
}

// Register creates a new account. Duplicate username or email produces a
// message result, not an error; only infrastructure failures return one.
func (s *AuthService) Register(ctx context.Context, username, email, password string, roleNames []string) (string, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	taken, err := s.Store.Users().ExistsByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	if taken {
		return MsgUsernameTaken, nil
	}

	inUse, err := s.Store.Users().ExistsByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if inUse {
		return MsgEmailInUse, nil
	}

	roles, err := domain.ParseRoles(roleNames)
	if err != nil {
		return "", &OperationError{Reason: err.Error()}
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return "", err
	}

	user := domain.User{
		ID:           idx.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Roles:        roles,
	}
	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		return "", err
	}

	slogx.FromContext(ctx).Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)
	return MsgUserRegistered, nil
}

// Refresh exchanges a live refresh token for a new access token. The
// refresh token itself is not rotated: the same opaque string comes back
// and its expiry does not advance. Only a fresh login replaces it.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	now := time.Now()

	hash := cryptox.FingerprintToken(strings.TrimSpace(refreshToken))

	record, err := s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRefreshNotFound
		}
		return nil, err
	}

	if record.Expired(now) {
		// Expired records are purged on sight; the store never hands an
		// expired token back as usable.
		err := s.Store.WithTx(ctx, func(tx store.Tx) error {
			return tx.RefreshTokens().DeleteRefreshTokenByHash(ctx, hash)
		})
		if err != nil {
			return nil, err
		}
		return nil, ErrRefreshExpired
	}

	// Roles are re-derived from the user record so a refreshed token
	// reflects role changes made since login.
	user, err := s.Store.Users().GetUserByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRefreshNotFound
		}
		return nil, err
	}

	accessToken, err := s.IssueAccessToken(user, now)
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		UserID:       user.ID,
		Username:     user.Username,
		Email:        user.Email,
		Roles:        user.Roles,
	}, nil
}

// Logout drops the user's refresh token. It succeeds unconditionally;
// logging out with nothing to delete is not an error.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	n, err := s.Store.RefreshTokens().DeleteUserRefreshTokens(ctx, userID)
	if err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("user logged out",
		slog.String("user_id", userID),
		slog.Int64("tokens_deleted", n),
	)
	return nil
}

// Validate reports whether the access token verifies. Claims are not
// exposed through this path.
func (s *AuthService) Validate(token string) bool {
	_, err := s.Verifier.Verify(token)
	return err == nil
}

// IssueAccessToken signs a fresh access token for the user with the
// configured validity window.
func (s *AuthService) IssueAccessToken(user domain.User, now time.Time) (string, error) {
	claims := jwtx.NewAccessClaims(
		user.Username,
		user.ID,
		domain.RoleNames(user.Roles),
		s.AccessTTL,
		s.Issuer,
		now,
	)
	return s.Signer.Sign(claims)
}
