package gateway

import (
	"net/http"
	"net/http/httputil"
	"strings"

	"github.com/driftwoodhq/authgate/pkg/httpx"
	"github.com/driftwoodhq/authgate/pkg/slogx"
)

// Identity headers injected for upstream services. Anything the client
// sent under these names is dropped first; only the gateway speaks them.
const (
	HeaderUserID    = "X-User-Id"
	HeaderUsername  = "X-User-Name"
	HeaderUserRoles = "X-User-Roles"
)

type route struct {
	prefix string
	proxy  *httputil.ReverseProxy
}

// proxyHandler forwards requests to the upstream whose prefix matches the
// request path. Longest prefix wins.
type proxyHandler struct {
	routes []route
}

func newProxyHandler(cfgRoutes []Route) *proxyHandler {
	h := &proxyHandler{}
	for _, r := range cfgRoutes {
		proxy := httputil.NewSingleHostReverseProxy(r.Upstream)
		proxy.ErrorHandler = func(w http.ResponseWriter, req *http.Request, err error) {
			slogx.FromContext(req.Context()).Error("upstream request failed",
				"path", req.URL.Path, "err", err)
			httpx.WriteJSON(w, http.StatusBadGateway, map[string]any{
				"status":  http.StatusBadGateway,
				"message": "upstream unavailable",
			})
		}
		h.routes = append(h.routes, route{prefix: r.Prefix, proxy: proxy})
	}
	return h
}

func (h *proxyHandler) match(path string) *route {
	var best *route
	for i := range h.routes {
		r := &h.routes[i]
		if strings.HasPrefix(path, r.prefix) {
			if best == nil || len(r.prefix) > len(best.prefix) {
				best = r
			}
		}
	}
	return best
}

func (h *proxyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	matched := h.match(r.URL.Path)
	if matched == nil {
		httpx.WriteJSON(w, http.StatusNotFound, map[string]any{
			"status":  http.StatusNotFound,
			"message": "no route for path",
		})
		return
	}

	// Clients never get to impersonate via identity headers.
	r.Header.Del(HeaderUserID)
	r.Header.Del(HeaderUsername)
	r.Header.Del(HeaderUserRoles)

	ctx := r.Context()
	if userID := httpx.UserIDFromContext(ctx); userID != "" {
		r.Header.Set(HeaderUserID, userID)
		r.Header.Set(HeaderUsername, httpx.UsernameFromContext(ctx))
		r.Header.Set(HeaderUserRoles, strings.Join(httpx.RolesFromContext(ctx), " "))
	}

	matched.proxy.ServeHTTP(w, r)
}
