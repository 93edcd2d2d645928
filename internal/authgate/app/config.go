package app

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/driftwoodhq/authgate/pkg/jwtx"
)

type Config struct {
	Issuer    string // Optional: issuer claim for tokens (default: authgate)
	JWTSecret string // Required: HS256 signing secret, at least 32 bytes

	AccessTokenTTL  time.Duration // Optional: access token validity window (default: 15m)
	RefreshTokenTTL time.Duration // Optional: refresh token validity window (default: 168h)

	DatabaseFile         string        // Optional: path to SQLite database file (default: ./authgate.db)
	PepperFile           string        // Optional: path to password pepper file (default: ./pepper)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Expired-token sweep interval (default: 1h)
}

var ErrMissingSecret = errors.New("AUTH_JWT_SECRET is required and must be at least 32 bytes")

func LoadConfig() (Config, error) {
	cfg := Config{
		Issuer:               getEnvOrDefault("AUTH_ISSUER", "authgate"),
		JWTSecret:            os.Getenv("AUTH_JWT_SECRET"),
		AccessTokenTTL:       getEnvValidityOrDefault("AUTH_ACCESS_TOKEN_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTokenTTL:      getEnvValidityOrDefault("AUTH_REFRESH_TOKEN_TTL", jwtx.DefaultRefreshTokenTTL),
		DatabaseFile:         getEnvOrDefault("AUTH_DATABASE_FILE", "authgate.db"),
		PepperFile:           getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvValidityOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvValidityOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	if len(cfg.JWTSecret) < jwtx.MinSecretBytes {
		return Config{}, ErrMissingSecret
	}
	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		return Config{}, errors.New("token validity windows must be positive")
	}

	return cfg, nil
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

// getEnvValidityOrDefault parses a duration like "15m" or "24h". A bare
// integer is read as milliseconds for compatibility with deployments that
// configure validity windows that way.
func getEnvValidityOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	if millis, err := strconv.Atoi(value); err == nil && millis > 0 {
		return time.Duration(millis) * time.Millisecond
	}

	return defaultValue
}
