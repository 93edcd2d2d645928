package gateway

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/driftwoodhq/authgate/pkg/jwtx"
)

// Route maps a path prefix to an upstream service.
type Route struct {
	Prefix   string
	Upstream *url.URL
}

type Config struct {
	JWTSecret string // Required: must match the auth service's signing secret
	Issuer    string // Optional: expected issuer claim (default: authgate)

	// Routes come from GATEWAY_ROUTES as comma-separated prefix=url pairs,
	// e.g. "/api/auth=http://auth:8080,/api/orders=http://orders:8081".
	Routes []Route

	// PublicPrefixes lists path prefixes forwarded without a token.
	PublicPrefixes []string

	Env                 string
	LogLevel            string
	LogFormat           string
	Port                int
	ShutdownGracePeriod time.Duration
}

// defaultPublicPrefixes covers the endpoints a client must reach before it
// holds any token.
var defaultPublicPrefixes = []string{
	"/api/auth/login",
	"/api/auth/signup",
	"/api/auth/refresh-token",
	"/api/auth/validate",
}

func LoadConfig() (Config, error) {
	cfg := Config{
		JWTSecret:           os.Getenv("AUTH_JWT_SECRET"),
		Issuer:              getEnvOrDefault("AUTH_ISSUER", "authgate"),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8000),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	if len(cfg.JWTSecret) < jwtx.MinSecretBytes {
		return Config{}, errors.New("AUTH_JWT_SECRET is required and must be at least 32 bytes")
	}

	routes, err := parseRoutes(getEnvOrDefault("GATEWAY_ROUTES", "/api=http://localhost:8080"))
	if err != nil {
		return Config{}, err
	}
	cfg.Routes = routes

	cfg.PublicPrefixes = defaultPublicPrefixes
	if raw := os.Getenv("GATEWAY_PUBLIC_PREFIXES"); raw != "" {
		cfg.PublicPrefixes = splitAndTrim(raw)
	}

	return cfg, nil
}

// parseRoutes parses comma-separated prefix=url pairs. Longer prefixes are
// matched first at request time, so ordering here does not matter.
func parseRoutes(raw string) ([]Route, error) {
	var routes []Route
	for _, pair := range splitAndTrim(raw) {
		prefix, target, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid route %q, want prefix=url", pair)
		}

		prefix = strings.TrimSpace(prefix)
		if !strings.HasPrefix(prefix, "/") {
			return nil, fmt.Errorf("route prefix %q must start with /", prefix)
		}

		upstream, err := url.Parse(strings.TrimSpace(target))
		if err != nil || upstream.Scheme == "" || upstream.Host == "" {
			return nil, fmt.Errorf("invalid upstream url %q for prefix %q", target, prefix)
		}

		routes = append(routes, Route{Prefix: prefix, Upstream: upstream})
	}

	if len(routes) == 0 {
		return nil, errors.New("no gateway routes configured")
	}
	return routes, nil
}

func splitAndTrim(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
