// Package core defines the ports between the job status service and its adapters.
package core

import (
	"context"

	"github.com/target/jobstatus/internal/domain/model"
)

// JobStore keeps exactly one JobRecord per job id.
//
// Records are copied in and out; callers never share memory with the store.
// Implementations must make UpdateStatus atomic per job id so that concurrent
// transitions out of the same status cannot both succeed, and a transition
// computed from one submission never lands on a later one.
type JobStore interface {
	// Create inserts rec, replacing any existing record with the same id.
	Create(ctx context.Context, rec model.JobRecord) error
	// Get returns a copy of the record or model.ErrJobNotFound.
	Get(ctx context.Context, jobID string) (*model.JobRecord, error)
	// UpdateStatus sets the status to t.To only if the stored record still has
	// t.SubmissionID and t.From. It returns false, nil otherwise.
	UpdateStatus(ctx context.Context, t model.StatusTransition) (bool, error)
	// Delete removes the record. Deleting an absent record is not an error.
	Delete(ctx context.Context, jobID string) error
	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}

// JobFailureNotifier is told about jobs that committed a transition to error.
type JobFailureNotifier interface {
	NotifyJobFailure(ctx context.Context, rec model.JobRecord)
}
