package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/target/jobstatus/internal/core"
	domainjob "github.com/target/jobstatus/internal/domain/job"
	"github.com/target/jobstatus/internal/domain/model"
	apperrors "github.com/target/jobstatus/internal/errors"
	"github.com/target/jobstatus/internal/observability/metrics"
	"github.com/target/jobstatus/internal/observability/statsd"
)

const (
	defaultNotifyTimeout = 10 * time.Second
	// maxResolveAttempts bounds re-reads after losing a conditional update to a
	// concurrent query or resubmission of the same id.
	maxResolveAttempts = 3
)

// StatusServiceOptions groups dependencies for StatusService.
type StatusServiceOptions struct {
	Store           core.JobStore             // Required: job record store
	StatusPolicy    *domainjob.StatusPolicy   // Optional: defaults to DefaultStatusPolicy
	DelayPolicy     *domainjob.DelayPolicy    // Optional: defaults to DefaultDelayPolicy
	Roller          domainjob.Roller          // Optional: defaults to RandomRoller
	Clock           func() time.Time          // Optional: defaults to time.Now
	SubmissionIDs   func() string             // Optional: defaults to uuid.NewString
	Logger          *slog.Logger              // Optional: structured logger
	FailureNotifier core.JobFailureNotifier   // Optional: told about committed error transitions
	Metrics         statsd.Sink               // Optional: metrics sink
	NotifyTimeout   time.Duration             // Optional: bounds a failure notification, default 10s
}

// StatusService submits jobs and answers status queries.
//
// Every query re-evaluates a pending record against the clock and persists a
// resulting transition through the store's conditional update before reporting it.
type StatusService struct {
	store         core.JobStore
	statusPolicy  *domainjob.StatusPolicy
	delayPolicy   *domainjob.DelayPolicy
	roller        domainjob.Roller
	clock         func() time.Time
	submissionIDs func() string
	logger        *slog.Logger
	notifier      core.JobFailureNotifier
	metrics       statsd.Sink
	notifyTimeout time.Duration

	notifications sync.WaitGroup
}

// NewStatusService constructs a new StatusService.
func NewStatusService(opts StatusServiceOptions) (*StatusService, error) {
	if opts.Store == nil {
		return nil, errors.New("JobStore is required")
	}

	statusPolicy := opts.StatusPolicy
	if statusPolicy == nil {
		statusPolicy = domainjob.DefaultStatusPolicy()
	}

	delayPolicy := opts.DelayPolicy
	if delayPolicy == nil {
		delayPolicy = domainjob.DefaultDelayPolicy()
	}

	roller := opts.Roller
	if roller == nil {
		roller = domainjob.RandomRoller{}
	}

	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	submissionIDs := opts.SubmissionIDs
	if submissionIDs == nil {
		submissionIDs = uuid.NewString
	}

	sink := opts.Metrics
	if sink == nil {
		sink = statsd.Discard
	}

	notifyTimeout := opts.NotifyTimeout
	if notifyTimeout <= 0 {
		notifyTimeout = defaultNotifyTimeout
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "status_service")
		logger.Debug("StatusService initialized",
			"error_threshold", statusPolicy.ErrorThreshold(),
			"default_delay", delayPolicy.Default(),
		)
	}

	return &StatusService{
		store:         opts.Store,
		statusPolicy:  statusPolicy,
		delayPolicy:   delayPolicy,
		roller:        roller,
		clock:         clock,
		submissionIDs: submissionIDs,
		logger:        logger,
		notifier:      opts.FailureNotifier,
		metrics:       sink,
		notifyTimeout: notifyTimeout,
	}, nil
}

// MustNewStatusService constructs a new StatusService and panics on error.
// Use this when you're certain the options are valid (e.g., in main.go).
func MustNewStatusService(opts StatusServiceOptions) *StatusService {
	svc, err := NewStatusService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create StatusService: %v", err))
	}
	return svc
}

// DefaultCompletionDelay is the delay applied when a submitter does not choose one.
func (s *StatusService) DefaultCompletionDelay() time.Duration {
	return s.delayPolicy.Default()
}

// Submit creates or resets the record for req.JobID: status pending, a fresh
// submission id and failure roll, and a submission time of now.
func (s *StatusService) Submit(ctx context.Context, req model.SubmitJobRequest) (*model.JobRecord, error) {
	start := time.Now()
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	requested := req.CompletionDelay
	decision := s.delayPolicy.Resolve(&requested)
	if decision.Clamped() && s.logger != nil {
		s.logger.InfoContext(ctx, "clamped completion delay",
			"job_id", req.JobID,
			"requested", requested,
			"delay", decision.Delay,
		)
	}

	rec := model.JobRecord{
		JobID:           req.JobID,
		SubmissionID:    s.submissionIDs(),
		CompletionDelay: decision.Delay,
		FailureRoll:     s.roller.Roll(),
		SubmittedAt:     s.clock().UTC(),
		Status:          model.JobStatusPending,
	}

	if err := s.store.Create(ctx, rec); err != nil {
		appErr := apperrors.StoreUnavailable(err, "could not store job "+req.JobID)
		s.emit(metrics.JobMetric{Operation: metrics.OpSubmit, Result: metrics.ResultError, Err: appErr})
		if s.logger != nil {
			s.logger.WarnContext(ctx, "job submit failed", "job_id", req.JobID, "error", err)
		}
		return nil, appErr
	}

	s.emit(metrics.JobMetric{Operation: metrics.OpSubmit, Result: metrics.ResultSuccess, Duration: time.Since(start)})
	if s.logger != nil {
		s.logger.DebugContext(ctx, "job submitted",
			"job_id", rec.JobID,
			"submission_id", rec.SubmissionID,
			"completion_delay", rec.CompletionDelay,
			"completes_at", rec.CompletesAt(),
		)
	}
	return &rec, nil
}

// GetStatus reports the status of jobID at the current instant.
// Unknown ids yield a NotFound error; store failures yield StoreUnavailable.
func (s *StatusService) GetStatus(ctx context.Context, jobID string) (model.JobStatus, error) {
	start := time.Now()
	status, err := s.resolve(ctx, jobID)

	in := metrics.JobMetric{Operation: metrics.OpStatusQuery, Duration: time.Since(start)}
	switch {
	case err == nil:
		in.Result, in.Status = metrics.ResultSuccess, string(status)
	case apperrors.IsNotFound(err):
		in.Result = metrics.ResultNotFound
	default:
		in.Result, in.Err = metrics.ResultError, err
	}
	s.emit(in)

	return status, err
}

// Ready reports whether the store is reachable.
func (s *StatusService) Ready(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return apperrors.StoreUnavailable(err, "job store is not reachable")
	}
	return nil
}

// Wait blocks until in-flight failure notifications finish or ctx ends.
func (s *StatusService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.notifications.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *StatusService) resolve(ctx context.Context, jobID string) (model.JobStatus, error) {
	if err := model.ValidateJobID(jobID); err != nil {
		return "", apperrors.ValidationField("job_id", err.Error())
	}

	// stored is what the store last held; an unpersisted transition is never reported.
	var stored model.JobStatus
	for range maxResolveAttempts {
		rec, err := s.load(ctx, jobID)
		if err != nil {
			return "", err
		}
		stored = rec.Status

		res := s.statusPolicy.Resolve(*rec, s.clock())
		if !res.Mutated {
			return res.Status, nil
		}

		// The transition is tied to the submission it was computed from, so a
		// resubmission landing in between makes it miss.
		ok, err := s.store.UpdateStatus(ctx, rec.Transition(res.Status))
		if err != nil {
			if s.logger != nil {
				s.logger.WarnContext(ctx, "persist status transition failed", "job_id", jobID, "error", err)
			}
			return "", apperrors.StoreUnavailable(err, "could not record status of job "+jobID)
		}
		if ok {
			s.committed(ctx, *rec, res.Status)
			return res.Status, nil
		}

		// Another writer moved or replaced the record first; resolve what it stored.
		if s.logger != nil {
			s.logger.DebugContext(ctx, "lost status transition race, re-reading",
				"job_id", jobID, "submission_id", rec.SubmissionID)
		}
	}
	return stored, nil
}

func (s *StatusService) load(ctx context.Context, jobID string) (*model.JobRecord, error) {
	rec, err := s.store.Get(ctx, jobID)
	switch {
	case errors.Is(err, model.ErrJobNotFound):
		return nil, apperrors.JobNotFound(jobID)
	case err != nil:
		if s.logger != nil {
			s.logger.WarnContext(ctx, "job store read failed", "job_id", jobID, "error", err)
		}
		return nil, apperrors.StoreUnavailable(err, "could not read job "+jobID)
	default:
		return rec, nil
	}
}

func (s *StatusService) committed(ctx context.Context, rec model.JobRecord, next model.JobStatus) {
	s.emit(metrics.JobMetric{
		Operation: metrics.OpTransition,
		Status:    string(next),
		Result:    metrics.ResultSuccess,
		Duration:  s.clock().Sub(rec.SubmittedAt),
	})
	if s.logger != nil {
		s.logger.InfoContext(ctx, "job reached terminal status",
			"job_id", rec.JobID,
			"status", next,
			"failure_roll", rec.FailureRoll,
		)
	}

	if next != model.JobStatusError || s.notifier == nil {
		return
	}

	rec.Status = next
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	s.notifications.Add(1)
	go func() {
		defer s.notifications.Done()
		defer cancel()
		s.notifier.NotifyJobFailure(notifyCtx, rec)
	}()
}

func (s *StatusService) emit(in metrics.JobMetric) {
	metrics.EmitJobOperation(s.metrics, in)
}
