package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ClientConfig configures the jobctl command line client.
//
// Values come from JOBSTATUS_* environment variables and can be overridden
// per invocation with command flags.
type ClientConfig struct {
	// BaseURL is the root of the status service, e.g. http://127.0.0.1:8000.
	BaseURL string `env:"URL" envDefault:"http://127.0.0.1:8000"`

	// CompletionDelaySeconds is sent as delay_seconds when submitting.
	CompletionDelaySeconds int `env:"COMPLETION_DELAY_SECONDS" envDefault:"20"`

	// PollingIntervalSeconds is the pause between status queries.
	PollingIntervalSeconds int `env:"POLLING_INTERVAL_SECONDS" envDefault:"5"`

	// TimeoutSeconds bounds the total time spent polling a single job.
	TimeoutSeconds int `env:"TIMEOUT_SECONDS" envDefault:"3600"`

	// RequestTimeout bounds a single HTTP request to the service.
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`

	// NoColor disables ANSI colors even on a terminal.
	NoColor bool `env:"NO_COLOR" envDefault:"false"`
}

// Sanitize trims string fields and fills zero durations.
func (c *ClientConfig) Sanitize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 10 * time.Second
	}
}

// Validate reports configuration that would make polling impossible.
func (c *ClientConfig) Validate() error {
	var errs []error
	if c.BaseURL == "" {
		errs = append(errs, errors.New("base url is required"))
	} else if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("invalid base url: %q", c.BaseURL))
	}
	if c.CompletionDelaySeconds < 0 {
		errs = append(errs, fmt.Errorf("completion delay must be >= 0, got %d", c.CompletionDelaySeconds))
	}
	if c.PollingIntervalSeconds <= 0 {
		errs = append(errs, fmt.Errorf("polling interval must be > 0, got %d", c.PollingIntervalSeconds))
	}
	if c.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("timeout must be >= 0, got %d", c.TimeoutSeconds))
	}
	return errors.Join(errs...)
}

// CompletionDelay returns the configured delay as a duration.
func (c *ClientConfig) CompletionDelay() time.Duration {
	return time.Duration(c.CompletionDelaySeconds) * time.Second
}

// PollingInterval returns the configured interval as a duration.
func (c *ClientConfig) PollingInterval() time.Duration {
	return time.Duration(c.PollingIntervalSeconds) * time.Second
}

// Timeout returns the configured polling timeout as a duration.
func (c *ClientConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
