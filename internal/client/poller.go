package client

import (
	"context"
	"time"

	"github.com/target/jobstatus/internal/domain/model"
	apperrors "github.com/target/jobstatus/internal/errors"
)

// Reason explains why a poll loop stopped.
type Reason string

const (
	// ReasonTerminal means the job reached completed or error.
	ReasonTerminal Reason = "terminal"
	// ReasonFailed means a status query failed.
	ReasonFailed Reason = "failed"
	// ReasonTimedOut means the timeout elapsed while the job was still pending.
	ReasonTimedOut Reason = "timed_out"
	// ReasonCanceled means the caller's context was done.
	ReasonCanceled Reason = "canceled"
)

// Result is the outcome of polling one job.
type Result struct {
	JobID string `json:"job_id"`
	// Status is the last status observed; empty if no query succeeded.
	Status   model.JobStatus `json:"status,omitempty"`
	Reason   Reason          `json:"reason"`
	Attempts int             `json:"attempts"`
	Elapsed  time.Duration   `json:"elapsed"`
	Err      error           `json:"-"`
}

// Observation is reported after every successful status query.
type Observation struct {
	JobID   string
	Status  model.JobStatus
	Attempt int
	Elapsed time.Duration
}

// Observer receives poll progress.
type Observer interface {
	Observe(Observation)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Observation)

// Observe implements Observer.
func (f ObserverFunc) Observe(o Observation) { f(o) }

// PollerOptions configures a Poller.
type PollerOptions struct {
	Querier  StatusQuerier                        // Required
	Interval time.Duration                        // Required: > 0
	Timeout  time.Duration                        // >= 0; zero performs exactly one query
	Observer Observer                             // Optional
	Clock    func() time.Time                     // Optional: defaults to time.Now
	Wait     func(time.Duration) <-chan time.Time // Optional: defaults to time.After
}

// Poller repeatedly queries a job's status until it is terminal, a query
// fails, the timeout elapses, or the caller cancels.
type Poller struct {
	querier  StatusQuerier
	interval time.Duration
	timeout  time.Duration
	observer Observer
	clock    func() time.Time
	wait     func(time.Duration) <-chan time.Time
}

// NewPoller validates opts and constructs a Poller.
func NewPoller(opts PollerOptions) (*Poller, error) {
	if opts.Querier == nil {
		return nil, apperrors.InvalidConfiguration("poller requires a status querier")
	}
	if opts.Interval <= 0 {
		return nil, apperrors.InvalidConfigurationf("polling interval must be > 0, got %s", opts.Interval)
	}
	if opts.Timeout < 0 {
		return nil, apperrors.InvalidConfigurationf("polling timeout must be >= 0, got %s", opts.Timeout)
	}

	p := &Poller{
		querier:  opts.Querier,
		interval: opts.Interval,
		timeout:  opts.Timeout,
		observer: opts.Observer,
		clock:    opts.Clock,
		wait:     opts.Wait,
	}
	if p.observer == nil {
		p.observer = ObserverFunc(func(Observation) {})
	}
	if p.clock == nil {
		p.clock = time.Now
	}
	if p.wait == nil {
		p.wait = time.After
	}
	return p, nil
}

// Poll queries jobID immediately and then once per interval while the job
// is pending and less than the timeout has elapsed since the first query.
//
// A timed out poll returns a nil error with Reason ReasonTimedOut. Failed
// and canceled polls return the error that stopped them, also set on
// Result.Err. Cancellation is checked before each query and during each
// wait; a query already in flight runs to completion.
func (p *Poller) Poll(ctx context.Context, jobID string) (Result, error) {
	res := Result{JobID: jobID}
	start := p.clock()
	stop := func(reason Reason, err error) (Result, error) {
		res.Reason = reason
		res.Err = err
		res.Elapsed = p.clock().Sub(start)
		return res, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return stop(ReasonCanceled, canceled(err))
		}

		status, err := p.querier.GetStatus(context.WithoutCancel(ctx), jobID)
		res.Attempts++
		if err != nil {
			return stop(ReasonFailed, err)
		}
		res.Status = status

		elapsed := p.clock().Sub(start)
		p.observer.Observe(Observation{JobID: jobID, Status: status, Attempt: res.Attempts, Elapsed: elapsed})

		if status.Terminal() {
			return stop(ReasonTerminal, nil)
		}
		if elapsed >= p.timeout {
			return stop(ReasonTimedOut, nil)
		}

		select {
		case <-ctx.Done():
			return stop(ReasonCanceled, canceled(ctx.Err()))
		case <-p.wait(p.interval):
		}
	}
}

func canceled(err error) error {
	return apperrors.Wrap(err, apperrors.ErrCodeCanceled, "polling canceled")
}
