// Package client implements the caller side of the job status protocol:
// an HTTP client for the status service and a poller that turns repeated
// status queries into one final outcome per job.
package client

import (
	"context"

	"github.com/target/jobstatus/internal/domain/model"
)

// StatusQuerier reads the current status of a job.
type StatusQuerier interface {
	GetStatus(ctx context.Context, jobID string) (model.JobStatus, error)
}

// StatusQuerierFunc adapts a function to StatusQuerier.
type StatusQuerierFunc func(ctx context.Context, jobID string) (model.JobStatus, error)

// GetStatus implements StatusQuerier.
func (f StatusQuerierFunc) GetStatus(ctx context.Context, jobID string) (model.JobStatus, error) {
	return f(ctx, jobID)
}
