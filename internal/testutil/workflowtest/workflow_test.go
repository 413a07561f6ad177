package workflowtest_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/jobstatus/internal/client"
	domainjob "github.com/target/jobstatus/internal/domain/job"
	"github.com/target/jobstatus/internal/domain/model"
	apperrors "github.com/target/jobstatus/internal/errors"
	"github.com/target/jobstatus/internal/testutil/workflowtest"
)

func forEachBackend(t *testing.T, fn func(t *testing.T, backend workflowtest.Backend)) {
	t.Helper()
	for _, backend := range workflowtest.Backends() {
		t.Run(string(backend), func(t *testing.T) {
			fn(t, backend)
		})
	}
}

func TestWorkflow_ImmediateJobCompletes(t *testing.T) {
	forEachBackend(t, func(t *testing.T, backend workflowtest.Backend) {
		opts := workflowtest.DefaultOptions()
		opts.Backend = backend

		workflowtest.WithHarness(t, opts, func(h *workflowtest.Harness) {
			res, err := h.SubmitAndPoll(context.Background(), "J1", 0, 10*time.Millisecond, time.Second)
			require.NoError(t, err)
			assert.Equal(t, client.ReasonTerminal, res.Reason)
			assert.Equal(t, model.JobStatusCompleted, res.Status)
			assert.Equal(t, 1, res.Attempts)
		})
	})
}

func TestWorkflow_LongJobTimesOutPending(t *testing.T) {
	forEachBackend(t, func(t *testing.T, backend workflowtest.Backend) {
		opts := workflowtest.DefaultOptions()
		opts.Backend = backend

		workflowtest.WithHarness(t, opts, func(h *workflowtest.Harness) {
			start := time.Now()
			res, err := h.SubmitAndPoll(context.Background(), "J2", 100*time.Second, 20*time.Millisecond, 100*time.Millisecond)
			require.NoError(t, err)
			assert.Equal(t, client.ReasonTimedOut, res.Reason)
			assert.Equal(t, model.JobStatusPending, res.Status)
			assert.GreaterOrEqual(t, res.Attempts, 2)
			assert.Less(t, time.Since(start), 2*time.Second)
		})
	})
}

func TestWorkflow_FatedJobReportsErrorForever(t *testing.T) {
	forEachBackend(t, func(t *testing.T, backend workflowtest.Backend) {
		opts := workflowtest.DefaultOptions()
		opts.Backend = backend
		opts.Roller = domainjob.FixedRoller(0.1)

		workflowtest.WithHarness(t, opts, func(h *workflowtest.Harness) {
			ctx := context.Background()
			res, err := h.SubmitAndPoll(ctx, "J3", 0, 10*time.Millisecond, time.Second)
			require.NoError(t, err)
			assert.Equal(t, model.JobStatusError, res.Status)

			for range 3 {
				status, statusErr := h.Client.GetStatus(ctx, "J3")
				require.NoError(t, statusErr)
				assert.Equal(t, model.JobStatusError, status)
			}
		})
	})
}

func TestWorkflow_UnknownJobFailsWithoutWaiting(t *testing.T) {
	workflowtest.WithHarness(t, workflowtest.DefaultOptions(), func(h *workflowtest.Harness) {
		start := time.Now()
		res, err := h.Poller(time.Hour, time.Hour, nil).Poll(context.Background(), "nope")
		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
		assert.Equal(t, client.ReasonFailed, res.Reason)
		assert.Equal(t, 1, res.Attempts)
		assert.Less(t, time.Since(start), time.Second)
	})
}

func TestWorkflow_CompletesAfterDelay(t *testing.T) {
	var mu sync.Mutex
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	opts := workflowtest.DefaultOptions()
	opts.Clock = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(d)
	}

	workflowtest.WithHarness(t, opts, func(h *workflowtest.Harness) {
		ctx := context.Background()
		_, err := h.Client.Submit(ctx, "J4", 20*time.Second)
		require.NoError(t, err)

		status, err := h.Client.GetStatus(ctx, "J4")
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusPending, status)

		advance(20*time.Second - time.Nanosecond)
		status, err = h.Client.GetStatus(ctx, "J4")
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusPending, status)

		advance(time.Nanosecond)
		status, err = h.Client.GetStatus(ctx, "J4")
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusCompleted, status)
	})
}

func TestWorkflow_ResubmitResetsJob(t *testing.T) {
	workflowtest.WithHarness(t, workflowtest.DefaultOptions(), func(h *workflowtest.Harness) {
		ctx := context.Background()
		_, err := h.Client.Submit(ctx, "J5", 0)
		require.NoError(t, err)
		status, err := h.Client.GetStatus(ctx, "J5")
		require.NoError(t, err)
		require.Equal(t, model.JobStatusCompleted, status)

		_, err = h.Client.Submit(ctx, "J5", time.Hour)
		require.NoError(t, err)
		status, err = h.Client.GetStatus(ctx, "J5")
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusPending, status)
	})
}

func TestWorkflow_ConcurrentPollersAgree(t *testing.T) {
	forEachBackend(t, func(t *testing.T, backend workflowtest.Backend) {
		opts := workflowtest.DefaultOptions()
		opts.Backend = backend
		opts.Roller = domainjob.FixedRoller(0.05)

		workflowtest.WithHarness(t, opts, func(h *workflowtest.Harness) {
			ctx := context.Background()
			const jobs = 4
			for i := range jobs {
				_, err := h.Client.Submit(ctx, fmt.Sprintf("job-%d", i), 0)
				require.NoError(t, err)
			}

			p := h.Poller(5*time.Millisecond, time.Second, nil)
			results := make([]client.Result, jobs*2)
			var wg sync.WaitGroup
			for i := range results {
				wg.Add(1)
				go func() {
					defer wg.Done()
					results[i], _ = p.Poll(ctx, fmt.Sprintf("job-%d", i%jobs))
				}()
			}
			wg.Wait()

			for _, res := range results {
				assert.Equal(t, client.ReasonTerminal, res.Reason, res.JobID)
				assert.Equal(t, model.JobStatusError, res.Status, res.JobID)
			}
		})
	})
}
