// Package model defines the core data types shared by the job status service and its clients.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// JobStatus represents the externally visible status of a job.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type JobStatus string

const (
	// JobStatusPending indicates the job has not finished yet.
	JobStatusPending JobStatus = "pending"
	// JobStatusCompleted indicates the job finished successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusError indicates the job failed.
	JobStatusError JobStatus = "error"
)

// MaxJobIDLength bounds caller-assigned job identifiers.
const MaxJobIDLength = 255

// ErrJobNotFound is returned by stores when no record exists for a job id.
var ErrJobNotFound = errors.New("job not found")

// Valid returns true if the JobStatus is one of the known values.
func (s JobStatus) Valid() bool {
	return s == JobStatusPending || s == JobStatusCompleted || s == JobStatusError
}

// Terminal reports whether the status can no longer change.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusError
}

// String implements fmt.Stringer.
func (s JobStatus) String() string {
	return string(s)
}

// UnmarshalText implements encoding.TextUnmarshaler so statuses decode strictly.
func (s *JobStatus) UnmarshalText(text []byte) error {
	v := JobStatus(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("invalid JobStatus: %q", string(text))
	}
	*s = v
	return nil
}

// JobRecord is the stored state of one submitted job.
//
// Everything except Status is fixed at submission. Status leaves pending at
// most once and only through a store's conditional update. SubmissionID is
// new for every submission, so a resubmitted job is a different record.
type JobRecord struct {
	JobID           string        `json:"job_id"           db:"job_id"`
	SubmissionID    string        `json:"submission_id"    db:"submission_id"`
	CompletionDelay time.Duration `json:"completion_delay" db:"completion_delay_ms"`
	FailureRoll     float64       `json:"failure_roll"     db:"failure_roll"`
	SubmittedAt     time.Time     `json:"submitted_at"     db:"submitted_at"`
	Status          JobStatus     `json:"status"           db:"status"`
}

// Transition returns the conditional update that moves this submission from
// its current status to next.
func (r *JobRecord) Transition(next JobStatus) StatusTransition {
	return StatusTransition{JobID: r.JobID, SubmissionID: r.SubmissionID, From: r.Status, To: next}
}

// StatusTransition is a conditional status change. It applies only while the
// stored record still belongs to SubmissionID and holds From.
type StatusTransition struct {
	JobID        string
	SubmissionID string
	From         JobStatus
	To           JobStatus
}

// CompletesAt returns the instant after which the job may report completed.
func (r *JobRecord) CompletesAt() time.Time {
	return r.SubmittedAt.Add(r.CompletionDelay)
}

// SubmitJobRequest represents a request to create (or reset) a job.
type SubmitJobRequest struct {
	JobID           string        `json:"job_id"`
	CompletionDelay time.Duration `json:"completion_delay"`
}

// Validate validates the SubmitJobRequest fields.
func (r *SubmitJobRequest) Validate() error {
	if err := ValidateJobID(r.JobID); err != nil {
		return err
	}
	if r.CompletionDelay < 0 {
		return errors.New("completion delay must be >= 0")
	}
	return nil
}

// ValidateJobID checks that a job id is usable as a store key and as a
// single URL path segment.
func ValidateJobID(id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("job id is required")
	}
	if id == "." || id == ".." {
		return fmt.Errorf("job id %q is reserved", id)
	}
	if len(id) > MaxJobIDLength {
		return fmt.Errorf("job id must be at most %d bytes", MaxJobIDLength)
	}
	return nil
}

// JobStatusResponse is the body returned by GET /status/{job_id}.
type JobStatusResponse struct {
	Result JobStatus `json:"result"`
}
