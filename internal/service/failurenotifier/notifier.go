// Package failurenotifier fans job failure events out to notification sinks.
package failurenotifier

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/target/jobstatus/internal/core"
	"github.com/target/jobstatus/internal/domain/model"
	"github.com/target/jobstatus/internal/observability/notify"
)

// SinkRegistration pairs a sink implementation with a human-readable name for logging.
type SinkRegistration struct {
	Name string
	Sink notify.Sink
}

// Options configures the failure notifier service.
type Options struct {
	Logger *slog.Logger
	Sinks  []SinkRegistration
	// ErrorThreshold is reported alongside the roll so operators can see why the job failed.
	ErrorThreshold float64
	// Now defaults to time.Now.
	Now func() time.Time
}

// Service dispatches failure events to all registered sinks.
type Service struct {
	logger    *slog.Logger
	sinks     []SinkRegistration
	threshold float64
	now       func() time.Time
}

var _ core.JobFailureNotifier = (*Service)(nil)

// NewService constructs a failure notifier.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var sinks []SinkRegistration
	for _, entry := range opts.Sinks {
		if entry.Sink == nil {
			continue
		}
		if entry.Name == "" {
			entry.Name = "sink"
		}
		sinks = append(sinks, entry)
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		logger:    logger.With("component", "failure_notifier"),
		sinks:     sinks,
		threshold: opts.ErrorThreshold,
		now:       now,
	}
}

// NotifyJobFailure sends the failed record to every sink and waits for all deliveries.
// Delivery errors are logged, never returned.
func (s *Service) NotifyJobFailure(ctx context.Context, rec model.JobRecord) {
	if !s.Enabled() {
		return
	}

	payload := s.Payload(rec)

	var wg sync.WaitGroup
	for _, entry := range s.sinks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := entry.Sink.SendJobFailure(ctx, payload); err != nil {
				s.logger.ErrorContext(ctx, "failure notifier delivery error",
					"sink", entry.Name,
					"job_id", payload.JobID,
					"error", err,
				)
			}
		}()
	}
	wg.Wait()
}

// Payload builds the notification for rec.
func (s *Service) Payload(rec model.JobRecord) notify.JobFailurePayload {
	return notify.JobFailurePayload{
		JobID:           rec.JobID,
		Status:          string(model.JobStatusError),
		Error:           fmt.Sprintf("job %s reported error after %s", rec.JobID, s.now().Sub(rec.SubmittedAt).Round(time.Millisecond)),
		Severity:        notify.SeverityCritical,
		SubmittedAt:     rec.SubmittedAt,
		CompletionDelay: rec.CompletionDelay,
		FailureRoll:     rec.FailureRoll,
		ErrorThreshold:  s.threshold,
		OccurredAt:      s.now(),
		Metadata: map[string]string{
			"error_threshold": strconv.FormatFloat(s.threshold, 'f', -1, 64),
		},
	}
}

// Enabled reports whether the notifier has any active sinks.
func (s *Service) Enabled() bool {
	return s != nil && len(s.sinks) > 0
}
