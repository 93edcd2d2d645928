package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/driftwoodhq/authgate/pkg/httpx"
	"github.com/driftwoodhq/authgate/pkg/jwtx"
	"github.com/driftwoodhq/authgate/pkg/slogx"
)

const BuildVersion = "v0.1.0"

// Application is the edge gateway: it authenticates inbound requests once
// and forwards them, annotated with the caller's identity, to upstream
// services.
type Application struct {
	cfg    Config
	logger *slog.Logger

	server *http.Server
}

func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "gateway",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	verifier, err := jwtx.NewVerifierHS256([]byte(cfg.JWTSecret), jwtx.VerifyOptions{
		Issuer: cfg.Issuer,
		Leeway: 30 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token verifier: %w", err)
	}

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app.buildHandler(verifier),
		ReadHeaderTimeout: 3 * time.Second,
	}

	return app, nil
}

// buildHandler assembles the edge pipeline. The auth filter runs before
// everything that assumes identity, so it sits directly after request
// logging.
func (app *Application) buildHandler(verifier jwtx.Verifier) http.Handler {
	mux := http.NewServeMux()

	startTime := time.Now()
	health := func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"uptime":  time.Since(startTime).String(),
			"version": BuildVersion,
		})
	}
	mux.HandleFunc("GET /livez", health)
	// The gateway holds no stateful dependencies, so ready == live.
	mux.HandleFunc("GET /readyz", health)

	mux.Handle("/", newProxyHandler(app.cfg.Routes))

	return httpx.Chain(mux,
		slogx.HTTPMiddleware(app.logger),
		httpx.AuthFilter(verifier, append([]string{"/livez", "/readyz"}, app.cfg.PublicPrefixes...)),
	)
}

// Run starts the gateway and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("gateway starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"routes", len(app.cfg.Routes),
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully drains in-flight requests.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down gateway...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
			return err
		}
	}

	app.logger.Info("gateway stopped")
	return nil
}
