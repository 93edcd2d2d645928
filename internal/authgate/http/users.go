package http

import (
	"net/http"
	"slices"

	"github.com/driftwoodhq/authgate/internal/authgate/domain"
	"github.com/driftwoodhq/authgate/internal/authgate/service"
	"github.com/driftwoodhq/authgate/pkg/httpx"
)

// UsersHandler serves account management endpoints. Listing is admin-only
// (enforced in the router); per-user operations allow admins and the
// account owner.
type UsersHandler struct {
	UserService *service.UserService
}

func isAdmin(r *http.Request) bool {
	return slices.Contains(httpx.RolesFromContext(r.Context()), string(domain.RoleAdmin))
}

// canAccess reports whether the caller may operate on the target account.
func canAccess(r *http.Request, targetID string) bool {
	return isAdmin(r) || httpx.UserIDFromContext(r.Context()) == targetID
}

func (h *UsersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.UserService.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]profileResponse, 0, len(users))
	for _, u := range users {
		out = append(out, profileResponse{
			ID:       u.ID,
			Username: u.Username,
			Email:    u.Email,
			Roles:    domain.RoleNames(u.Roles),
		})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *UsersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !canAccess(r, id) {
		writeAPIError(w, r, http.StatusForbidden, "insufficient privileges")
		return
	}

	user, err := h.UserService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, profileResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Roles:    domain.RoleNames(user.Roles),
	})
}

type updateUserRequest struct {
	Username *string  `json:"username,omitempty"`
	Email    *string  `json:"email,omitempty"`
	Password *string  `json:"password,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

func (h *UsersHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !canAccess(r, id) {
		writeAPIError(w, r, http.StatusForbidden, "insufficient privileges")
		return
	}

	var req updateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	// Only admins hand out roles.
	if req.Roles != nil && !isAdmin(r) {
		writeAPIError(w, r, http.StatusForbidden, "only administrators may change roles")
		return
	}

	user, err := h.UserService.Update(r.Context(), id, service.UserUpdate{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Roles:    req.Roles,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, profileResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Roles:    domain.RoleNames(user.Roles),
	})
}

func (h *UsersHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !canAccess(r, id) {
		writeAPIError(w, r, http.StatusForbidden, "insufficient privileges")
		return
	}

	actorID := httpx.UserIDFromContext(r.Context())
	if err := h.UserService.Delete(r.Context(), actorID, id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, messageResponse{Message: "User deleted successfully"})
}
