package config

import "time"

const (
	// DefaultErrorThreshold is the fraction of jobs fated to report "error".
	DefaultErrorThreshold = 0.2
	// DefaultCompletionDelay applies when a submit request omits delay_seconds.
	DefaultCompletionDelay = 20 * time.Second
)

// JobsConfig contains the job status policy.
type JobsConfig struct {
	// ErrorThreshold: jobs whose failure roll is <= this value report "error".
	// A negative value disables error injection entirely.
	ErrorThreshold float64 `env:"JOB_ERROR_THRESHOLD" envDefault:"0.2"`

	// DefaultCompletionDelay is used when a submit request carries no delay.
	DefaultCompletionDelay time.Duration `env:"JOB_DEFAULT_COMPLETION_DELAY" envDefault:"20s"`

	// MaxCompletionDelay caps the delay a caller may request.
	MaxCompletionDelay time.Duration `env:"JOB_MAX_COMPLETION_DELAY" envDefault:"24h"`
}

// Sanitize applies guardrails to job policy values.
func (j *JobsConfig) Sanitize() {
	if j.ErrorThreshold > 1 {
		j.ErrorThreshold = 1
	}
	if j.DefaultCompletionDelay < 0 {
		j.DefaultCompletionDelay = DefaultCompletionDelay
	}
	if j.MaxCompletionDelay <= 0 {
		j.MaxCompletionDelay = 24 * time.Hour
	}
	if j.DefaultCompletionDelay > j.MaxCompletionDelay {
		j.DefaultCompletionDelay = j.MaxCompletionDelay
	}
}
