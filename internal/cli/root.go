// Package cli implements the jobctl command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/target/jobstatus/config"
	"github.com/target/jobstatus/internal/client"
)

const envPrefix = "JOBSTATUS_"

var (
	version = "dev"
	commit  = "none"
)

// Execute runs jobctl with the process arguments and returns the exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// app carries resolved settings shared by every command.
type app struct {
	cfg     config.ClientConfig
	cfgErr  error
	output  string
	query   string
	verbose bool
	out     io.Writer
	errOut  io.Writer
	logger  *slog.Logger
	display *client.Display
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}
	a.cfg, a.cfgErr = loadClientConfig()

	root := &cobra.Command{
		Use:           "jobctl",
		Short:         "Submit jobs and poll their status",
		Long:          "Command-line client for the job status service.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.prepare()
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfg.BaseURL, "url", a.cfg.BaseURL, "status service base URL ($JOBSTATUS_URL)")
	pf.IntVar(&a.cfg.CompletionDelaySeconds, "delay", a.cfg.CompletionDelaySeconds, "seconds until a submitted job completes")
	pf.IntVar(&a.cfg.PollingIntervalSeconds, "interval", a.cfg.PollingIntervalSeconds, "seconds between status queries")
	pf.IntVar(&a.cfg.TimeoutSeconds, "timeout", a.cfg.TimeoutSeconds, "seconds to keep polling a pending job")
	pf.DurationVar(&a.cfg.RequestTimeout, "request-timeout", a.cfg.RequestTimeout, "timeout for a single HTTP request")
	pf.BoolVar(&a.cfg.NoColor, "no-color", a.cfg.NoColor, "disable colored output")
	pf.StringVarP(&a.output, "output", "o", outputText, "output format (text, json)")
	pf.StringVar(&a.query, "query", "", "JMESPath expression applied to JSON output")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "log HTTP requests to stderr")

	root.AddCommand(
		newSubmitCmd(a),
		newStatusCmd(a),
		newPollCmd(a),
		newRunCmd(a),
		newConfigCmd(a),
		newVersionCmd(a),
	)
	return root
}

func loadClientConfig() (config.ClientConfig, error) {
	var cfg config.ClientConfig
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return cfg, fmt.Errorf("load .env file: %w", err)
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (a *app) prepare() error {
	if a.cfgErr != nil {
		return a.cfgErr
	}
	if err := validateOutput(a.output, a.query); err != nil {
		return err
	}
	if a.query != "" {
		a.output = outputJSON
	}

	a.cfg.Sanitize()
	if err := a.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid client config: %w", err)
	}

	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: level}))
	a.display = client.NewDisplay(a.out, a.cfg.NoColor)
	return nil
}

func (a *app) jsonOutput() bool {
	return a.output == outputJSON
}

func (a *app) apiClient() (*client.APIClient, error) {
	return client.NewAPIClient(client.APIClientOptions{
		BaseURL:        a.cfg.BaseURL,
		RequestTimeout: a.cfg.RequestTimeout,
		Logger:         a.logger,
	})
}

func (a *app) poller(q client.StatusQuerier) (*client.Poller, error) {
	opts := client.PollerOptions{
		Querier:  q,
		Interval: a.cfg.PollingInterval(),
		Timeout:  a.cfg.Timeout(),
	}
	if !a.jsonOutput() {
		opts.Observer = a.display
	}
	return client.NewPoller(opts)
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the jobctl version",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if a.jsonOutput() {
				return a.render(map[string]string{"version": version, "commit": commit})
			}
			_, err := fmt.Fprintf(a.out, "jobctl version %s (commit: %s)\n", version, commit)
			return err
		},
	}
}

func seconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
