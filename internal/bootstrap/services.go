package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/jobstatus/config"
	"github.com/target/jobstatus/internal/core"
	domainjob "github.com/target/jobstatus/internal/domain/job"
	"github.com/target/jobstatus/internal/observability/notify/slack"
	"github.com/target/jobstatus/internal/observability/statsd"
	"github.com/target/jobstatus/internal/service"
	"github.com/target/jobstatus/internal/service/failurenotifier"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Status        *service.StatusService
	Observability ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	// MetricsSink is nil when metrics are disabled.
	MetricsSink     *statsd.Client
	MetricsConfig   config.ObservabilityMetricsConfig
	FailureNotifier *failurenotifier.Service
	NotifierConfig  config.ObservabilityNotificationsConfig
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config *config.AppConfig
	Store  core.JobStore
	Logger *slog.Logger
}

// NewServices wires the status service to its store, policies and observability adapters.
func NewServices(deps *ServiceDeps) (*ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return nil, errors.New("service config is required")
	}
	if deps.Store == nil {
		return nil, errors.New("job store is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	statusPolicy, err := domainjob.NewStatusPolicy(cfg.Jobs.ErrorThreshold)
	if err != nil {
		return nil, fmt.Errorf("status policy: %w", err)
	}
	delayPolicy, err := domainjob.NewDelayPolicy(cfg.Jobs.DefaultCompletionDelay, cfg.Jobs.MaxCompletionDelay)
	if err != nil {
		return nil, fmt.Errorf("delay policy: %w", err)
	}

	obs := buildObservability(logger, cfg.Observability, statusPolicy.ErrorThreshold())

	opts := service.StatusServiceOptions{
		Store:         deps.Store,
		StatusPolicy:  statusPolicy,
		DelayPolicy:   delayPolicy,
		Logger:        logger,
		NotifyTimeout: notifyTimeout(cfg.Observability.Notifications),
	}
	// Leave the interfaces nil rather than holding typed nil pointers.
	if obs.MetricsSink != nil {
		opts.Metrics = obs.MetricsSink
	}
	if obs.FailureNotifier.Enabled() {
		opts.FailureNotifier = obs.FailureNotifier
	}

	status, err := service.NewStatusService(opts)
	if err != nil {
		return nil, fmt.Errorf("status service: %w", err)
	}

	return &ServiceContainer{Status: status, Observability: obs}, nil
}

// Close releases observability resources.
func (c *ServiceContainer) Close() error {
	if c == nil || c.Observability.MetricsSink == nil {
		return nil
	}
	return c.Observability.MetricsSink.Close()
}

// buildObservability configures metrics and notification adapters.
// Adapter failures are logged and the adapter is skipped.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig, threshold float64) ObservabilityContainer {
	var metricsSink *statsd.Client
	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Enabled: true,
			Address: cfg.Metrics.StatsdAddress,
			Prefix:  cfg.Metrics.Prefix,
			Logger:  logger,
		})
		if err != nil {
			logger.Error("failed to initialise statsd client", "error", err)
		} else {
			metricsSink = client
		}
	}

	return ObservabilityContainer{
		MetricsSink:     metricsSink,
		MetricsConfig:   cfg.Metrics,
		FailureNotifier: buildFailureNotifier(logger, cfg.Notifications, threshold),
		NotifierConfig:  cfg.Notifications,
	}
}

func buildFailureNotifier(
	logger *slog.Logger,
	cfg config.ObservabilityNotificationsConfig,
	threshold float64,
) *failurenotifier.Service {
	if !cfg.Enabled {
		return failurenotifier.NewService(failurenotifier.Options{Logger: logger})
	}

	sinks := make([]failurenotifier.SinkRegistration, 0, 1)
	if cfg.Slack.Enabled {
		client, err := slack.NewClient(slack.Config{
			WebhookURL: cfg.Slack.WebhookURL,
			Channel:    cfg.Slack.Channel,
			Username:   cfg.Slack.Username,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			logger.Error("failed to initialise slack notifier", "error", err)
		} else {
			sinks = append(sinks, failurenotifier.SinkRegistration{Name: "slack", Sink: client})
		}
	}

	return failurenotifier.NewService(failurenotifier.Options{
		Logger:         logger,
		Sinks:          sinks,
		ErrorThreshold: threshold,
	})
}

// notifyTimeout covers every delivery attempt plus the backoff between them.
func notifyTimeout(cfg config.ObservabilityNotificationsConfig) time.Duration {
	attempts := time.Duration(cfg.RetryLimit + 1)
	backoff := time.Duration(cfg.RetryLimit*(cfg.RetryLimit+1)/2) * 200 * time.Millisecond
	return cfg.Timeout*attempts + backoff
}
