package data

import (
	"errors"
	"fmt"

	"github.com/target/jobstatus/internal/domain/model"
)

// Shared sentinel errors for data-layer stores.
var (
	// ErrJobIDRequired is returned when a store call carries an empty job id.
	ErrJobIDRequired = errors.New("job_id is required")
	// ErrSubmissionIDRequired is returned when a record or transition has no submission id.
	ErrSubmissionIDRequired = errors.New("submission_id is required")
	// ErrInvalidStatus is returned when a record or transition names an unknown status.
	ErrInvalidStatus = errors.New("invalid job status")
)

func validateRecord(rec model.JobRecord) error {
	if rec.JobID == "" {
		return ErrJobIDRequired
	}
	if rec.SubmissionID == "" {
		return ErrSubmissionIDRequired
	}
	if !rec.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, rec.Status)
	}
	return nil
}

func validateTransition(t model.StatusTransition) error {
	if t.JobID == "" {
		return ErrJobIDRequired
	}
	if t.SubmissionID == "" {
		return ErrSubmissionIDRequired
	}
	if !t.From.Valid() || !t.To.Valid() {
		return fmt.Errorf("%w: %q -> %q", ErrInvalidStatus, t.From, t.To)
	}
	return nil
}
