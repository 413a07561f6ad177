package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/target/jobstatus/internal/client"
)

const defaultParallel = 8

type submitView struct {
	JobID        string `json:"job_id"`
	DelaySeconds int    `json:"delay_seconds"`
	Message      string `json:"message"`
}

type statusView struct {
	JobID  string `json:"job_id"`
	Result string `json:"result"`
}

type pollView struct {
	JobID          string  `json:"job_id"`
	Status         string  `json:"status"`
	Reason         string  `json:"reason"`
	Attempts       int     `json:"attempts"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	Error          string  `json:"error,omitempty"`
}

func newPollView(r client.Result) pollView {
	v := pollView{
		JobID:          r.JobID,
		Status:         r.Status.String(),
		Reason:         string(r.Reason),
		Attempts:       r.Attempts,
		ElapsedSeconds: seconds(r.Elapsed),
	}
	if r.Err != nil {
		v.Error = r.Err.Error()
	}
	return v
}

func newSubmitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "submit JOB_ID...",
		Short: "Submit one or more jobs",
		Long:  "Submit registers each job id with the service. Resubmitting an id restarts it.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := a.apiClient()
			if err != nil {
				return err
			}

			views := make([]submitView, 0, len(args))
			for _, id := range args {
				msg, err := api.Submit(cmd.Context(), id, a.cfg.CompletionDelay())
				if err != nil {
					return fmt.Errorf("submit %s: %w", id, err)
				}
				views = append(views, submitView{JobID: id, DelaySeconds: a.cfg.CompletionDelaySeconds, Message: msg})
				if !a.jsonOutput() {
					a.display.Message(msg)
				}
			}

			if a.jsonOutput() {
				return a.render(oneOrMany(views))
			}
			return nil
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status JOB_ID",
		Short: "Query the current status of a job once",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := a.apiClient()
			if err != nil {
				return err
			}

			id := args[0]
			start := time.Now()
			status, err := api.GetStatus(cmd.Context(), id)
			if err != nil {
				if !a.jsonOutput() {
					a.display.Failure(id, err)
				}
				return fmt.Errorf("status %s: %w", id, err)
			}

			if a.jsonOutput() {
				return a.render(statusView{JobID: id, Result: status.String()})
			}
			a.display.Observe(client.Observation{JobID: id, Status: status, Attempt: 1, Elapsed: time.Since(start)})
			return nil
		},
	}
}

func newPollCmd(a *app) *cobra.Command {
	parallel := defaultParallel
	cmd := &cobra.Command{
		Use:   "poll JOB_ID...",
		Short: "Poll jobs until they finish or the timeout elapses",
		Long: "Poll queries each job every --interval seconds until it reports completed or error, " +
			"a query fails, or --timeout seconds have passed. Jobs are polled concurrently.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.pollJobs(cmd.Context(), args, parallel)
		},
	}
	cmd.Flags().IntVar(&parallel, "parallel", defaultParallel, "maximum jobs polled at once")
	return cmd
}

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run [JOB_ID]",
		Short: "Submit a job and poll it to completion",
		Long:  "Run submits a job (a random id is generated when none is given) and then polls it.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := uuid.NewString()
			if len(args) == 1 {
				id = args[0]
			}

			api, err := a.apiClient()
			if err != nil {
				return err
			}
			if !a.jsonOutput() {
				a.display.Attributes(a.attributes(id))
			}

			msg, err := api.Submit(cmd.Context(), id, a.cfg.CompletionDelay())
			if err != nil {
				return fmt.Errorf("submit %s: %w", id, err)
			}
			if !a.jsonOutput() {
				a.display.Message(msg)
			}
			return a.pollJobs(cmd.Context(), []string{id}, 1)
		},
	}
}

func (a *app) pollJobs(ctx context.Context, ids []string, parallel int) error {
	api, err := a.apiClient()
	if err != nil {
		return err
	}
	p, err := a.poller(api)
	if err != nil {
		return err
	}

	results := make([]client.Result, len(ids))
	var g errgroup.Group
	g.SetLimit(max(parallel, 1))
	for i, id := range ids {
		g.Go(func() error {
			results[i], _ = p.Poll(ctx, id)
			return nil
		})
	}
	_ = g.Wait()

	return a.reportPolls(results)
}

func (a *app) reportPolls(results []client.Result) error {
	var errs []error
	views := make([]pollView, 0, len(results))
	for _, r := range results {
		views = append(views, newPollView(r))
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("poll %s: %w", r.JobID, r.Err))
		}
		if a.jsonOutput() {
			continue
		}

		switch r.Reason {
		case client.ReasonFailed:
			a.display.Failure(r.JobID, r.Err)
		case client.ReasonTimedOut:
			a.display.Message(fmt.Sprintf("Timed out waiting for %s after %s seconds; last status: %s",
				r.JobID, formatFloat(seconds(r.Elapsed)), r.Status))
		case client.ReasonCanceled:
			a.display.Message("Stopped polling " + r.JobID)
		case client.ReasonTerminal:
		}
	}

	if a.jsonOutput() {
		if err := a.render(oneOrMany(views)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *app) attributes(jobID string) client.Attributes {
	return client.Attributes{
		JobID:                  jobID,
		DelaySeconds:           a.cfg.CompletionDelaySeconds,
		PollingIntervalSeconds: a.cfg.PollingIntervalSeconds,
		TimeoutSeconds:         a.cfg.TimeoutSeconds,
	}
}

// oneOrMany renders a single element without the surrounding array.
func oneOrMany[T any](items []T) any {
	if len(items) == 1 {
		return items[0]
	}
	return items
}
