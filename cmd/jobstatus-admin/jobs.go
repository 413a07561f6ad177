package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/target/jobstatus/config"
	"github.com/target/jobstatus/internal/bootstrap"
	"github.com/target/jobstatus/internal/domain/model"
)

type jobOptions struct {
	JobID   string
	Timeout time.Duration
	JSON    bool
	Yes     bool
}

func runPing(cmdCtx *commandContext, args []string) error {
	opts, err := parseJobFlags(cmdCtx, "ping", args, false)
	if err != nil {
		return err
	}
	return withStore(cmdCtx, opts.Timeout, func(ctx context.Context, store *bootstrap.Store) error {
		start := time.Now()
		if pingErr := store.JobStore.Ping(ctx); pingErr != nil {
			return fmt.Errorf("ping %s store: %w", store.Backend, pingErr)
		}
		return writef(cmdCtx.Out, "%s store reachable (%s)\n", store.Backend, time.Since(start).Round(time.Millisecond))
	})
}

func runJobShow(cmdCtx *commandContext, args []string) error {
	opts, err := parseJobFlags(cmdCtx, "job-show", args, true)
	if err != nil {
		return err
	}
	return withStore(cmdCtx, opts.Timeout, func(ctx context.Context, store *bootstrap.Store) error {
		rec, getErr := store.JobStore.Get(ctx, opts.JobID)
		if errors.Is(getErr, model.ErrJobNotFound) {
			return fmt.Errorf("job %q not found in %s store", opts.JobID, store.Backend)
		}
		if getErr != nil {
			return fmt.Errorf("get job %q: %w", opts.JobID, getErr)
		}
		if opts.JSON {
			enc := json.NewEncoder(cmdCtx.Out)
			enc.SetIndent("", "  ")
			return enc.Encode(rec)
		}
		return printJobRecord(cmdCtx, rec)
	})
}

func runJobDelete(cmdCtx *commandContext, args []string) error {
	opts, err := parseJobFlags(cmdCtx, "job-delete", args, true)
	if err != nil {
		return err
	}
	if !opts.Yes {
		if confirmErr := cmdCtx.confirm(fmt.Sprintf("About to delete job %q.", opts.JobID)); confirmErr != nil {
			return confirmErr
		}
	}
	return withStore(cmdCtx, opts.Timeout, func(ctx context.Context, store *bootstrap.Store) error {
		if delErr := store.JobStore.Delete(ctx, opts.JobID); delErr != nil {
			return fmt.Errorf("delete job %q: %w", opts.JobID, delErr)
		}
		cmdCtx.Logger.Info("job deleted", "job_id", opts.JobID, "store_backend", store.Backend)
		return writef(cmdCtx.Out, "deleted %s\n", opts.JobID)
	})
}

func printJobRecord(cmdCtx *commandContext, rec *model.JobRecord) error {
	tw := tabwriter.NewWriter(cmdCtx.Out, 0, 0, 2, ' ', 0)
	rows := [][2]string{
		{"Job ID", rec.JobID},
		{"Submission", rec.SubmissionID},
		{"Status", rec.Status.String()},
		{"Submitted", rec.SubmittedAt.UTC().Format(time.RFC3339Nano)},
		{"Completion delay", rec.CompletionDelay.String()},
		{"Completes at", rec.CompletesAt().UTC().Format(time.RFC3339Nano)},
		{"Failure roll", fmt.Sprintf("%.4f", rec.FailureRoll)},
	}
	for _, row := range rows {
		if _, err := fmt.Fprintf(tw, "%s:\t%s\n", row[0], row[1]); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// withStore opens the configured backend. The memory backend is rejected
// since a fresh process would only ever see an empty store.
func withStore(
	cmdCtx *commandContext,
	timeout time.Duration,
	f func(context.Context, *bootstrap.Store) error,
) error {
	backend, err := cmdCtx.Config.Store.GetBackend()
	if err != nil {
		return err
	}
	if backend == config.StoreBackendMemory {
		return errors.New("job commands need STORE_BACKEND=postgres or STORE_BACKEND=redis")
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, timeout)
	defer cancel()

	open := cmdCtx.OpenStore
	if open == nil {
		open = bootstrap.OpenStore
	}
	store, err := open(ctx, &cmdCtx.Config, cmdCtx.Logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			cmdCtx.Logger.Warn("store close failed", "error", cerr)
		}
	}()

	return f(ctx, store)
}

func parseJobFlags(cmdCtx *commandContext, name string, args []string, needsID bool) (jobOptions, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cmdCtx.ErrOut)

	opts := jobOptions{}
	fs.DurationVar(&opts.Timeout, "timeout", defaultCommandTimeout, "Maximum duration for the store operation")
	fs.BoolVar(&opts.JSON, "json", false, "Print the record as JSON")
	fs.BoolVar(&opts.Yes, "yes", false, "Skip confirmation prompt")

	if err := fs.Parse(args); err != nil {
		return jobOptions{}, err
	}
	if opts.Timeout <= 0 {
		return jobOptions{}, errors.New("--timeout must be greater than zero")
	}

	if !needsID {
		if fs.NArg() > 0 {
			return jobOptions{}, fmt.Errorf("%s takes no arguments", name)
		}
		return opts, nil
	}
	if fs.NArg() != 1 {
		return jobOptions{}, fmt.Errorf("usage: jobstatus-admin %s [flags] JOB_ID", name)
	}
	opts.JobID = fs.Arg(0)
	if err := model.ValidateJobID(opts.JobID); err != nil {
		return jobOptions{}, err
	}
	return opts, nil
}
