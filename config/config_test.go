package config

import (
	"reflect"
	"strings"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func TestParseStoreBackend(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    StoreBackend
		expectError bool
	}{
		{name: "empty defaults to memory", input: "", expected: StoreBackendMemory},
		{name: "memory", input: "memory", expected: StoreBackendMemory},
		{name: "postgres", input: "postgres", expected: StoreBackendPostgres},
		{name: "redis with whitespace and case", input: "  ReDiS ", expected: StoreBackendRedis},
		{name: "unknown backend", input: "mongo", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStoreBackend(tt.input)
			if tt.expectError {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				if !strings.Contains(err.Error(), "invalid store backend") {
					t.Fatalf("unexpected error message: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Fatalf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestValidStoreBackends(t *testing.T) {
	expected := []StoreBackend{StoreBackendMemory, StoreBackendPostgres, StoreBackendRedis}
	if got := ValidStoreBackends(); !reflect.DeepEqual(got, expected) {
		t.Fatalf("expected %v, got %v", expected, got)
	}
}

func TestStoreConfig_UsesMethods(t *testing.T) {
	cfg := StoreConfig{Backend: " Postgres "}
	cfg.Sanitize()
	if !cfg.UsesPostgres() || cfg.UsesRedis() {
		t.Fatalf("expected postgres only, got %q", cfg.Backend)
	}

	cfg = StoreConfig{Backend: "bogus"}
	if cfg.UsesPostgres() || cfg.UsesRedis() {
		t.Fatalf("invalid backend should not report any store")
	}
}

func TestAppConfig_ParseEnv(t *testing.T) {
	t.Setenv("STORE_BACKEND", "redis")
	t.Setenv("REDIS_URI", "redis://cache:6379/2")
	t.Setenv("REDIS_KEY_PREFIX", "staging")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("HTTP_RATE_LIMIT_RPS", "2.5")
	t.Setenv("JOB_ERROR_THRESHOLD", "0.35")
	t.Setenv("JOB_DEFAULT_COMPLETION_DELAY", "45s")
	t.Setenv("LOG_LEVEL", " DEBUG ")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	cfg.Sanitize()

	if !cfg.Store.UsesRedis() {
		t.Fatalf("expected redis backend, got %q", cfg.Store.Backend)
	}
	if cfg.Redis.URI != "redis://cache:6379/2" || cfg.Redis.KeyPrefix != "staging" {
		t.Fatalf("unexpected redis config: %+v", cfg.Redis)
	}
	if cfg.Postgres.Host != "db.internal" || cfg.Postgres.Port != 5432 {
		t.Fatalf("unexpected db config: %+v", cfg.Postgres)
	}
	if cfg.HTTP.Addr != ":9000" || !cfg.HTTP.RateLimitEnabled() {
		t.Fatalf("unexpected http config: %+v", cfg.HTTP)
	}
	if cfg.Jobs.ErrorThreshold != 0.35 {
		t.Fatalf("expected threshold 0.35, got %v", cfg.Jobs.ErrorThreshold)
	}
	if cfg.Jobs.DefaultCompletionDelay != 45*time.Second {
		t.Fatalf("expected delay 45s, got %v", cfg.Jobs.DefaultCompletionDelay)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected log level to be normalised, got %q", cfg.LogLevel)
	}
}

func TestAppConfig_Defaults(t *testing.T) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	cfg.Sanitize()

	if b, err := cfg.Store.GetBackend(); err != nil || b != StoreBackendMemory {
		t.Fatalf("expected memory backend, got %q (%v)", b, err)
	}
	if cfg.HTTP.Addr != ":8000" {
		t.Fatalf("expected :8000, got %q", cfg.HTTP.Addr)
	}
	if cfg.HTTP.RateLimitEnabled() {
		t.Fatalf("rate limiting should be off by default")
	}
	if cfg.Jobs.ErrorThreshold != DefaultErrorThreshold {
		t.Fatalf("expected default threshold, got %v", cfg.Jobs.ErrorThreshold)
	}
	if cfg.Jobs.DefaultCompletionDelay != DefaultCompletionDelay {
		t.Fatalf("expected default delay, got %v", cfg.Jobs.DefaultCompletionDelay)
	}
}

func TestAppConfig_SlogLevel(t *testing.T) {
	cases := map[string]string{
		"debug":   "DEBUG",
		"warn":    "WARN",
		"warning": "WARN",
		"error":   "ERROR",
		"":        "INFO",
		"chatty":  "INFO",
	}
	for in, want := range cases {
		cfg := AppConfig{LogLevel: in}
		if got := cfg.SlogLevel().String(); got != want {
			t.Fatalf("level %q: expected %s, got %s", in, want, got)
		}
	}
}

func TestJobsConfig_Sanitize(t *testing.T) {
	cfg := JobsConfig{
		ErrorThreshold:         1.5,
		DefaultCompletionDelay: 48 * time.Hour,
		MaxCompletionDelay:     0,
	}
	cfg.Sanitize()

	if cfg.ErrorThreshold != 1 {
		t.Fatalf("expected threshold clamped to 1, got %v", cfg.ErrorThreshold)
	}
	if cfg.MaxCompletionDelay != 24*time.Hour {
		t.Fatalf("expected max delay default, got %v", cfg.MaxCompletionDelay)
	}
	if cfg.DefaultCompletionDelay != 24*time.Hour {
		t.Fatalf("expected default delay capped to max, got %v", cfg.DefaultCompletionDelay)
	}

	cfg = JobsConfig{ErrorThreshold: -1, DefaultCompletionDelay: -time.Second, MaxCompletionDelay: time.Hour}
	cfg.Sanitize()
	if cfg.ErrorThreshold != -1 {
		t.Fatalf("negative threshold should be preserved, got %v", cfg.ErrorThreshold)
	}
	if cfg.DefaultCompletionDelay != DefaultCompletionDelay {
		t.Fatalf("expected negative delay reset, got %v", cfg.DefaultCompletionDelay)
	}
}

func TestHTTPConfig_Sanitize(t *testing.T) {
	cfg := HTTPConfig{RateLimitRPS: -3, RateLimitBurst: 0}
	cfg.Sanitize()

	if cfg.Addr != ":8000" {
		t.Fatalf("expected default addr, got %q", cfg.Addr)
	}
	if cfg.RateLimitRPS != 0 || cfg.RateLimitEnabled() {
		t.Fatalf("expected rate limiting disabled, got %v", cfg.RateLimitRPS)
	}
	if cfg.RateLimitBurst != 1 {
		t.Fatalf("expected burst floor of 1, got %d", cfg.RateLimitBurst)
	}
	if cfg.ReadTimeout != 30*time.Second || cfg.WriteTimeout != 30*time.Second {
		t.Fatalf("expected default timeouts, got %v/%v", cfg.ReadTimeout, cfg.WriteTimeout)
	}
}

func TestClientConfig_ParseEnv(t *testing.T) {
	t.Setenv("JOBSTATUS_URL", "http://jobs.example.com:8080/ ")
	t.Setenv("JOBSTATUS_POLLING_INTERVAL_SECONDS", "2")
	t.Setenv("JOBSTATUS_TIMEOUT_SECONDS", "30")

	var cfg ClientConfig
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "JOBSTATUS_"}); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	cfg.Sanitize()

	if cfg.BaseURL != "http://jobs.example.com:8080" {
		t.Fatalf("expected trimmed base url, got %q", cfg.BaseURL)
	}
	if cfg.CompletionDelay() != 20*time.Second {
		t.Fatalf("expected default completion delay, got %v", cfg.CompletionDelay())
	}
	if cfg.PollingInterval() != 2*time.Second {
		t.Fatalf("expected 2s interval, got %v", cfg.PollingInterval())
	}
	if cfg.Timeout() != 30*time.Second {
		t.Fatalf("expected 30s timeout, got %v", cfg.Timeout())
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestClientConfig_Validate(t *testing.T) {
	valid := ClientConfig{
		BaseURL:                "http://127.0.0.1:8000",
		CompletionDelaySeconds: 20,
		PollingIntervalSeconds: 5,
		TimeoutSeconds:         3600,
	}

	tests := []struct {
		name    string
		mutate  func(*ClientConfig)
		wantErr string
	}{
		{name: "valid", mutate: func(*ClientConfig) {}},
		{name: "zero timeout allowed", mutate: func(c *ClientConfig) { c.TimeoutSeconds = 0 }},
		{name: "missing url", mutate: func(c *ClientConfig) { c.BaseURL = "" }, wantErr: "base url is required"},
		{name: "relative url", mutate: func(c *ClientConfig) { c.BaseURL = "jobs" }, wantErr: "invalid base url"},
		{name: "zero interval", mutate: func(c *ClientConfig) { c.PollingIntervalSeconds = 0 }, wantErr: "polling interval"},
		{name: "negative timeout", mutate: func(c *ClientConfig) { c.TimeoutSeconds = -1 }, wantErr: "timeout must be"},
		{name: "negative delay", mutate: func(c *ClientConfig) { c.CompletionDelaySeconds = -5 }, wantErr: "completion delay"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestObservabilityMetricsConfig_Sanitize(t *testing.T) {
	cfg := ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: " ",
	}

	cfg.Sanitize()

	if cfg.Enabled {
		t.Fatalf("expected enabled to be false when address is empty")
	}

	cfg = ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: " statsd:1234 ",
	}

	cfg.Sanitize()

	if !cfg.IsEnabled() {
		t.Fatalf("expected metrics to remain enabled")
	}
	if cfg.StatsdAddress != "statsd:1234" {
		t.Fatalf("expected address to be trimmed, got %q", cfg.StatsdAddress)
	}
	if cfg.Prefix != "jobstatus" {
		t.Fatalf("expected default prefix, got %q", cfg.Prefix)
	}
}

func TestObservabilityNotificationsConfig_Sanitize(t *testing.T) {
	cfg := ObservabilityNotificationsConfig{
		Enabled:    false,
		Timeout:    0,
		RetryLimit: -2,
		Slack:      SlackNotificationConfig{Enabled: true, WebhookURL: "https://hooks.slack.test/x"},
	}
	cfg.Sanitize()

	if cfg.Timeout != 5*time.Second {
		t.Fatalf("expected default timeout, got %v", cfg.Timeout)
	}
	if cfg.RetryLimit != 0 {
		t.Fatalf("expected retry limit floor of 0, got %d", cfg.RetryLimit)
	}
	if cfg.Slack.Enabled {
		t.Fatalf("slack should be disabled when notifications are disabled")
	}

	cfg = ObservabilityNotificationsConfig{
		Enabled: true,
		Slack:   SlackNotificationConfig{Enabled: true, WebhookURL: "  ", Username: " "},
	}
	cfg.Sanitize()

	if cfg.Slack.Enabled {
		t.Fatalf("slack should be disabled without webhook url")
	}
	if cfg.Slack.Username != "jobstatus" {
		t.Fatalf("expected default username, got %q", cfg.Slack.Username)
	}

	cfg = ObservabilityNotificationsConfig{
		Enabled: true,
		Slack:   SlackNotificationConfig{Enabled: true, WebhookURL: " https://hooks.slack.test/x "},
	}
	cfg.Sanitize()
	if !cfg.Slack.Enabled || cfg.Slack.WebhookURL != "https://hooks.slack.test/x" {
		t.Fatalf("expected slack enabled with trimmed url, got %+v", cfg.Slack)
	}
}
