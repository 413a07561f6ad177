package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/target/jobstatus/config"
)

const shutdownWaitTimeout = 15 * time.Second

// RunConfig contains everything Run needs.
type RunConfig struct {
	Config *config.AppConfig
	Logger *slog.Logger
	// Listener is optional; see HTTPServerConfig.
	Listener net.Listener
}

// Run opens the job store, starts the HTTP server and blocks until ctx is
// done or the server fails, then shuts everything down.
func Run(ctx context.Context, cfg *RunConfig) error {
	if cfg == nil || cfg.Config == nil {
		return errors.New("run config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store, err := OpenStore(ctx, cfg.Config, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close job store failed", "error", cerr)
		}
	}()

	services, err := NewServices(&ServiceDeps{Config: cfg.Config, Store: store.JobStore, Logger: logger})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := services.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close services failed", "error", cerr)
		}
	}()

	logger.InfoContext(ctx, "starting jobstatus service",
		"store_backend", store.Backend,
		"error_threshold", cfg.Config.Jobs.ErrorThreshold,
		"default_completion_delay", cfg.Config.Jobs.DefaultCompletionDelay,
		"metrics_enabled", services.Observability.MetricsSink != nil,
		"failure_notifications_enabled", services.Observability.FailureNotifier.Enabled())

	httpCfg := &HTTPServerConfig{Config: cfg.Config, Services: services, Logger: logger, Listener: cfg.Listener}
	handler, limiter := BuildHTTPHandler(httpCfg)

	serviceCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if limiter != nil {
		go limiter.Run(serviceCtx, rateLimitSweepInterval)
	}

	errCh := make(chan error, 1)
	server, err := StartHTTPServer(httpCfg, handler, errCh)
	if err != nil {
		return err
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down services...")
	case runErr = <-errCh:
		logger.Error("service error", "error", runErr)
	}
	cancel()

	// ctx is already done here, so shutdown gets its own deadline.
	stopErr := ShutdownHTTPServer(ShutdownConfig{
		Context: context.WithoutCancel(ctx),
		Server:  server,
		Status:  services.Status,
		Logger:  logger,
	})
	if stopErr != nil {
		stopErr = fmt.Errorf("graceful stop: %w", stopErr)
	}
	return errors.Join(runErr, stopErr)
}
