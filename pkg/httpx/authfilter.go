package httpx

import (
	"errors"
	"net/http"
	"strings"

	"github.com/driftwoodhq/authgate/pkg/jwtx"
	"github.com/driftwoodhq/authgate/pkg/slogx"
)

// filterError is the uniform rejection body written at the edge.
type filterError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func writeFilterError(w http.ResponseWriter, code int, message string) {
	WriteJSON(w, code, filterError{Status: code, Message: message})
}

// AuthFilter authenticates inbound requests. Paths matching one of the
// public prefixes pass through untouched; everything else must carry a
// valid bearer token, which is verified once here and attached to the
// request context for downstream handlers.
//
// It must run before anything that assumes identity is already attached,
// so keep it first in the chain (after request logging).
func AuthFilter(v jwtx.Verifier, publicPrefixes []string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, prefix := range publicPrefixes {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			authenticate(v, next, w, r)
		})
	}
}

// RequireAuth authenticates every request it wraps. Use it on individual
// protected routes; AuthFilter is the whole-pipeline variant.
func RequireAuth(v jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authenticate(v, next, w, r)
		})
	}
}

func authenticate(v jwtx.Verifier, next http.Handler, w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(authz, "Bearer ") {
		writeFilterError(w, http.StatusUnauthorized, "missing or invalid authorization header")
		return
	}
	raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))
	if raw == "" {
		writeFilterError(w, http.StatusUnauthorized, "missing or invalid authorization header")
		return
	}

	claims, err := v.Verify(raw)
	if err != nil {
		switch {
		case errors.Is(err, jwtx.ErrExpired):
			writeFilterError(w, http.StatusUnauthorized, "token expired")
		case errors.Is(err, jwtx.ErrMalformed), errors.Is(err, jwtx.ErrInvalidSig):
			writeFilterError(w, http.StatusUnauthorized, "invalid token signature")
		default:
			// Catch-all. The sentinel text is short and safe to surface.
			writeFilterError(w, http.StatusUnauthorized, "authentication error: "+err.Error())
		}
		log.Warn("token verification failed", "path", r.URL.Path, "err", err)
		return
	}

	next.ServeHTTP(w, r.WithContext(ContextWithAuth(ctx, claims)))
}

// RequireAnyRole rejects with 403 unless the authenticated caller holds at
// least one of the listed roles. Must run after AuthFilter/RequireAuth.
func RequireAnyRole(required ...string) Middleware {
	want := make(map[string]struct{}, len(required))
	for _, role := range required {
		want[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, role := range RolesFromContext(r.Context()) {
				if _, ok := want[role]; ok {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeFilterError(w, http.StatusForbidden, "insufficient privileges")
		})
	}
}
