package client_test

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/target/jobstatus/internal/client"
	"github.com/target/jobstatus/internal/domain/model"
	apperrors "github.com/target/jobstatus/internal/errors"
)

func TestDisplay_Observe(t *testing.T) {
	var buf bytes.Buffer
	d := client.NewDisplay(&buf, false)

	d.Observe(client.Observation{JobID: "J2", Status: model.JobStatusPending, Elapsed: 5012 * time.Millisecond})

	assert.Equal(t, "\nStatus of J2 :  pending\nElapsed time: 5.01 seconds\n\n", buf.String())
	assert.NotContains(t, buf.String(), "\033[", "a buffer is never a terminal")
}

func TestDisplay_Attributes(t *testing.T) {
	var buf bytes.Buffer
	client.NewDisplay(&buf, true).Attributes(client.Attributes{
		JobID:                  "JOB_001",
		DelaySeconds:           20,
		PollingIntervalSeconds: 5,
		TimeoutSeconds:         3600,
	})

	want := "\nInstantiated a client instance with the following attributes:\n" +
		"job_id: JOB_001\n" +
		"delay_seconds: 20\n" +
		"polling_interval_seconds: 5\n" +
		"timeout_seconds: 3600\n\n"
	assert.Equal(t, want, buf.String())
}

func TestFailureHint(t *testing.T) {
	assert.Equal(t,
		"x could not be found.\nPlease ensure the job has been submitted",
		client.FailureHint("x", apperrors.JobNotFound("x")))
	assert.Equal(t,
		"Failed to get the status of the job x. Try again later",
		client.FailureHint("x", apperrors.StoreUnavailable(errors.New("down"), "down")))
}
