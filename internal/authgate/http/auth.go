package http

import (
	"net/http"
	"strings"

	"github.com/driftwoodhq/authgate/internal/authgate/domain"
	"github.com/driftwoodhq/authgate/internal/authgate/service"
	"github.com/driftwoodhq/authgate/pkg/httpx"
)

// AuthHandler serves the credential lifecycle endpoints.
type AuthHandler struct {
	AuthService *service.AuthService
	UserService *service.UserService
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenPairResponse struct {
	TokenType    string   `json:"tokenType"`
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	ID           string   `json:"id"`
	Username     string   `json:"username"`
	Email        string   `json:"email"`
	Roles        []string `json:"roles"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func tokenPairFrom(pair *domain.TokenPair) tokenPairResponse {
	return tokenPairResponse{
		TokenType:    pair.TokenType,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ID:           pair.UserID,
		Username:     pair.Username,
		Email:        pair.Email,
		Roles:        domain.RoleNames(pair.Roles),
	}
}

func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		writeAPIError(w, r, http.StatusBadRequest, "username and password are required")
		return
	}

	pair, err := h.AuthService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, tokenPairFrom(pair))
}

type signupRequest struct {
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Roles    []string `json:"roles,omitempty"`
}

// HandleSignup registers an account. Duplicate username or email comes
// back as a 200 with the failure text in the message, matching the login
// service's long-standing contract with its clients.
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Username) == "" ||
		strings.TrimSpace(req.Email) == "" ||
		req.Password == "" {
		writeAPIError(w, r, http.StatusBadRequest, "username, email and password are required")
		return
	}

	msg, err := h.AuthService.Register(r.Context(), req.Username, req.Email, req.Password, req.Roles)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, messageResponse{Message: msg})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.RefreshToken) == "" {
		writeAPIError(w, r, http.StatusBadRequest, "refreshToken is required")
		return
	}

	pair, err := h.AuthService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, tokenPairFrom(pair))
}

// HandleLogout drops the caller's refresh token. The subject comes from
// the verified access token, not the request body.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFromContext(r.Context())
	if userID == "" {
		writeAPIError(w, r, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := h.AuthService.Logout(r.Context(), userID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, messageResponse{Message: "Log out successful!"})
}

type validateRequest struct {
	Token string `json:"token"`
}

type validateResponse struct {
	Valid bool `json:"valid"`
}

func (h *AuthHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	httpx.WriteJSON(w, http.StatusOK, validateResponse{
		Valid: h.AuthService.Validate(req.Token),
	})
}

type profileResponse struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

// HandleMe returns the authenticated caller's public profile.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFromContext(r.Context())
	if userID == "" {
		writeAPIError(w, r, http.StatusUnauthorized, "not authenticated")
		return
	}

	user, err := h.UserService.Get(r.Context(), userID)
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
