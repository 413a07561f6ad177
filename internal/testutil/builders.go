// Package testutil provides testing utilities and helpers for the job status service.
package testutil

import (
	"time"

	"github.com/target/jobstatus/internal/domain/model"
)

// JobRecordBuilder provides a fluent interface for building JobRecord values for testing.
type JobRecordBuilder struct {
	rec model.JobRecord
}

// NewJobRecord creates a JobRecordBuilder with sensible defaults:
// a pending job submitted at TestTime with a 20s delay, fated to complete.
func NewJobRecord() *JobRecordBuilder {
	return &JobRecordBuilder{
		rec: model.JobRecord{
			JobID:           "job-1",
			SubmissionID:    "sub-1",
			CompletionDelay: 20 * time.Second,
			FailureRoll:     0.5,
			SubmittedAt:     TestTime(),
			Status:          model.JobStatusPending,
		},
	}
}

// WithID sets the job id.
func (b *JobRecordBuilder) WithID(id string) *JobRecordBuilder {
	b.rec.JobID = id
	return b
}

// WithSubmissionID sets the submission id.
func (b *JobRecordBuilder) WithSubmissionID(id string) *JobRecordBuilder {
	b.rec.SubmissionID = id
	return b
}

// WithDelay sets the completion delay.
func (b *JobRecordBuilder) WithDelay(d time.Duration) *JobRecordBuilder {
	b.rec.CompletionDelay = d
	return b
}

// WithRoll sets the failure roll.
func (b *JobRecordBuilder) WithRoll(roll float64) *JobRecordBuilder {
	b.rec.FailureRoll = roll
	return b
}

// FatedToFail sets a roll at or below the default error threshold.
func (b *JobRecordBuilder) FatedToFail() *JobRecordBuilder {
	b.rec.FailureRoll = 0.05
	return b
}

// WithSubmittedAt sets the submission time.
func (b *JobRecordBuilder) WithSubmittedAt(t time.Time) *JobRecordBuilder {
	b.rec.SubmittedAt = t
	return b
}

// WithStatus sets the stored status.
func (b *JobRecordBuilder) WithStatus(s model.JobStatus) *JobRecordBuilder {
	b.rec.Status = s
	return b
}

// Build returns a copy of the built record.
func (b *JobRecordBuilder) Build() model.JobRecord {
	return b.rec
}

// BuildPtr returns a pointer to a copy of the built record.
func (b *JobRecordBuilder) BuildPtr() *model.JobRecord {
	rec := b.rec
	return &rec
}
