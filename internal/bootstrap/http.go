package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/target/jobstatus/config"
	httpx "github.com/target/jobstatus/internal/http"
	"github.com/target/jobstatus/internal/service"
)

const rateLimitSweepInterval = time.Minute

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services *ServiceContainer
	Logger   *slog.Logger
	// Listener is optional; when nil the server listens on Config.HTTP.Addr.
	Listener net.Listener
}

// BuildHTTPHandler builds the router and, when configured, its rate limiter.
func BuildHTTPHandler(cfg *HTTPServerConfig) (http.Handler, *httpx.RateLimiter) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var limiter *httpx.RateLimiter
	if cfg.Config.HTTP.RateLimitEnabled() {
		limiter = httpx.NewRateLimiter(httpx.RateLimitConfig{
			RequestsPerSecond: cfg.Config.HTTP.RateLimitRPS,
			Burst:             cfg.Config.HTTP.RateLimitBurst,
		})
		logger.Info("HTTP rate limiting enabled",
			"rps", cfg.Config.HTTP.RateLimitRPS,
			"burst", cfg.Config.HTTP.RateLimitBurst)
	}

	return httpx.NewRouter(httpx.RouterServices{
		Status:      cfg.Services.Status,
		Logger:      logger,
		RateLimiter: limiter,
	}), limiter
}

// StartHTTPServer creates and starts the HTTP server. Serve errors other
// than http.ErrServerClosed are sent to errCh.
func StartHTTPServer(cfg *HTTPServerConfig, handler http.Handler, errCh chan<- error) (*http.Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	addr := cfg.Config.HTTP.Addr
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8000"
	}

	ln := cfg.Listener
	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("listen on %s: %w", addr, err)
		}
	}

	server := &http.Server{
		Addr:              ln.Addr().String(),
		Handler:           handler,
		ReadTimeout:       cfg.Config.HTTP.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Config.HTTP.WriteTimeout,
		IdleTimeout:       120 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	return server, nil
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Context context.Context
	Server  *http.Server
	// Status is drained of in-flight failure notifications after the server stops.
	Status *service.StatusService
	Logger *slog.Logger
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("shutting down HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(cfg.Context, shutdownWaitTimeout)
	defer cancel()

	if err := cfg.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	if cfg.Status != nil {
		if err := cfg.Status.Wait(shutdownCtx); err != nil {
			return fmt.Errorf("wait for failure notifications: %w", err)
		}
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("HTTP server stopped")
	}

	return nil
}
