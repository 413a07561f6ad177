// Package job holds the pure policies that decide how a submitted job evolves.
package job

import (
	"errors"
	"time"

	"github.com/target/jobstatus/internal/domain/model"
)

// DefaultErrorThreshold is the roll at or below which a job is fated to fail.
const DefaultErrorThreshold = 0.2

// ErrInvalidErrorThreshold indicates a threshold above 1.
var ErrInvalidErrorThreshold = errors.New("error threshold must be <= 1")

// StatusPolicy resolves the status a job reports at a given instant.
type StatusPolicy struct {
	errorThreshold float64
}

// NewStatusPolicy constructs a StatusPolicy. A negative threshold disables error injection.
func NewStatusPolicy(errorThreshold float64) (*StatusPolicy, error) {
	if errorThreshold > 1 {
		return nil, ErrInvalidErrorThreshold
	}
	return &StatusPolicy{errorThreshold: errorThreshold}, nil
}

// DefaultStatusPolicy returns a policy using DefaultErrorThreshold.
func DefaultStatusPolicy() *StatusPolicy {
	return &StatusPolicy{errorThreshold: DefaultErrorThreshold}
}

// ErrorThreshold returns the configured threshold.
func (p *StatusPolicy) ErrorThreshold() float64 {
	if p == nil {
		return DefaultErrorThreshold
	}
	return p.errorThreshold
}

// Resolution captures the outcome of resolving a record.
type Resolution struct {
	Status model.JobStatus
	// Mutated is true when Status differs from the stored status and must be
	// persisted before it is reported.
	Mutated bool
}

// Resolve decides the status of rec at now. Terminal records are returned as is.
// The failure check precedes the clock check, so a job fated to fail reports
// error even after its completion time has passed.
func (p *StatusPolicy) Resolve(rec model.JobRecord, now time.Time) Resolution {
	if rec.Status != model.JobStatusPending {
		return Resolution{Status: rec.Status}
	}
	if rec.FailureRoll <= p.ErrorThreshold() {
		return Resolution{Status: model.JobStatusError, Mutated: true}
	}
	if !now.Before(rec.CompletesAt()) {
		return Resolution{Status: model.JobStatusCompleted, Mutated: true}
	}
	return Resolution{Status: model.JobStatusPending}
}

// Fate reports the terminal status rec will eventually reach.
func (p *StatusPolicy) Fate(rec model.JobRecord) model.JobStatus {
	if rec.Status.Terminal() {
		return rec.Status
	}
	if rec.FailureRoll <= p.ErrorThreshold() {
		return model.JobStatusError
	}
	return model.JobStatusCompleted
}
