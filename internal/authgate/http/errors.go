package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/driftwoodhq/authgate/internal/authgate/service"
	"github.com/driftwoodhq/authgate/internal/authgate/store"
	"github.com/driftwoodhq/authgate/pkg/httpx"
	"github.com/driftwoodhq/authgate/pkg/slogx"
)

// apiError is the uniform error payload at the application boundary. The
// edge filter has its own, smaller shape.
type apiError struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Path      string    `json:"path"`
}

func writeAPIError(w http.ResponseWriter, r *http.Request, code int, message string) {
	httpx.WriteJSON(w, code, apiError{
		Timestamp: time.Now().UTC(),
		Status:    code,
		Error:     http.StatusText(code),
		Message:   message,
		Path:      r.URL.Path,
	})
}

// writeServiceError translates service and store failures into the uniform
// payload. Anything uncategorized becomes a 500 carrying no more than the
// error's message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var opErr *service.OperationError

	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		writeAPIError(w, r, http.StatusUnauthorized, "invalid username or password")
	case errors.Is(err, service.ErrRefreshNotFound):
		writeAPIError(w, r, http.StatusForbidden, "Refresh token is not in database!")
	case errors.Is(err, service.ErrRefreshExpired):
		writeAPIError(w, r, http.StatusForbidden, "Refresh token was expired. Please make a new signin request")
	case errors.As(err, &opErr):
		writeAPIError(w, r, http.StatusBadRequest, opErr.Reason)
	case errors.Is(err, store.ErrNotFound):
		writeAPIError(w, r, http.StatusNotFound, "resource not found")
	default:
		slogx.FromContext(r.Context()).Error("request failed",
			"path", r.URL.Path, "err", err)
		writeAPIError(w, r, http.StatusInternalServerError, err.Error())
	}
}

// decodeJSON decodes the request body, rejecting unknown fields. A false
// return means the 400 has already been written.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}
