package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/driftwoodhq/authgate/internal/authgate/domain"
	"github.com/driftwoodhq/authgate/internal/authgate/store"
	"github.com/driftwoodhq/authgate/pkg/cryptox"
	"github.com/driftwoodhq/authgate/pkg/slogx"
)

// OperationError is a business-rule violation with a user-facing reason.
// Handlers translate it to a 400 without further inspection.
type OperationError struct {
	Reason string
}

func (e *OperationError) Error() string { return e.Reason }

// UserUpdate carries the mutable fields of an account. Nil means "leave
// unchanged".
type UserUpdate struct {
	Username *string
	Email    *string
	Password *string
	Roles    []string
}

// UserService owns account management: listing, lookup, updates and
// deletion. Authentication lives in AuthService.
type UserService struct {
	Store store.Store
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.Store.Users().ListUsers(ctx)
}

func (s *UserService) Get(ctx context.Context, id string) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, id)
}

// Update applies the given changes to the account. Username and email
// stay unique; role names must parse into the closed role set.
func (s *UserService) Update(ctx context.Context, id string, upd UserUpdate) (domain.User, error) {
	user, err := s.Store.Users().GetUserByID(ctx, id)
	if err != nil {
		return domain.User{}, err
	}

	if upd.Username != nil {
		username := strings.TrimSpace(*upd.Username)
		if username != user.Username {
			taken, err := s.Store.Users().ExistsByUsername(ctx, username)
			if err != nil {
				return domain.User{}, err
			}
			if taken {
				return domain.User{}, &OperationError{Reason: "Username is already taken"}
			}
			user.Username = username
		}
	}

	if upd.Email != nil {
		email := strings.TrimSpace(*upd.Email)
		if email != user.Email {
			inUse, err := s.Store.Users().ExistsByEmail(ctx, email)
			if err != nil {
				return domain.User{}, err
			}
			if inUse {
				return domain.User{}, &OperationError{Reason: "Email is already in use"}
			}
			user.Email = email
		}
	}

	if upd.Password != nil {
		hash, err := cryptox.HashPassword(*upd.Password)
		if err != nil {
			return domain.User{}, err
		}
		user.PasswordHash = hash
	}

	if upd.Roles != nil {
		roles, err := domain.ParseRoles(upd.Roles)
		if err != nil {
			return domain.User{}, &OperationError{Reason: err.Error()}
		}
		user.Roles = roles
	}

	if err := s.Store.Users().UpdateUser(ctx, user); err != nil {
		return domain.User{}, err
	}

	slogx.FromContext(ctx).Info("user updated", slog.String("user_id", user.ID))
	return user, nil
}

// Delete removes the account and its refresh token. Administrators cannot
// delete their own account, so there is always someone left holding the
// keys.
func (s *UserService) Delete(ctx context.Context, actorID, targetID string) error {
	target, err := s.Store.Users().GetUserByID(ctx, targetID)
	if err != nil {
		return err
	}

	if actorID == targetID && domain.HasAdmin(target.Roles) {
		return &OperationError{Reason: "Administrators cannot delete their own accounts"}
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.RefreshTokens().DeleteUserRefreshTokens(ctx, targetID); err != nil {
			return err
		}
		return tx.Users().DeleteUser(ctx, targetID)
	})
	if err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("user deleted",
		slog.String("user_id", targetID),
		slog.String("deleted_by", actorID),
	)
	return nil
}
