package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/target/jobstatus/config"
	"github.com/target/jobstatus/internal/bootstrap"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type openStoreFn func(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*bootstrap.Store, error)

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	Out    io.Writer
	ErrOut io.Writer
	In     io.Reader
	// OpenStore defaults to bootstrap.OpenStore.
	OpenStore openStoreFn
}

const (
	defaultMigrationTimeout = 5 * time.Minute
	defaultCommandTimeout   = 30 * time.Second
)

func main() {
	os.Exit(run(os.Args[1:])) //nolint:forbidigo // CLI must propagate its exit status to callers
}

func run(args []string) int {
	logger := bootstrap.InitLogger()

	if len(args) < 1 {
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		return 2
	}

	cmdName := args[0]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		return 2
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmdCtx := &commandContext{
		Ctx:       ctx,
		Logger:    logger,
		Config:    cfg,
		Out:       os.Stdout,
		ErrOut:    os.Stderr,
		In:        os.Stdin,
		OpenStore: bootstrap.OpenStore,
	}
	if runErr := cmd.run(cmdCtx, args[1:]); runErr != nil {
		logger.ErrorContext(ctx, "command failed", "command", cmdName, "error", runErr)
		return 1
	}
	return 0
}

func commands() map[string]command {
	return map[string]command{
		"migrate": {
			name:        "migrate",
			description: "Run database migrations",
			run:         runMigrations,
		},
		"db-reset": {
			name:        "db-reset",
			description: "Drop the database schema and re-run migrations",
			run:         runDBReset,
		},
		"ping": {
			name:        "ping",
			description: "Check that the configured job store is reachable",
			run:         runPing,
		},
		"job-show": {
			name:        "job-show",
			description: "Print the stored record for a job",
			run:         runJobShow,
		},
		"job-delete": {
			name:        "job-delete",
			description: "Delete the stored record for a job",
			run:         runJobDelete,
		},
	}
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: jobstatus-admin <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(w, "Available commands:\n"); err != nil {
		return err
	}
	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writef(w, "  %-12s %s\n", name, cmds[name].description); err != nil {
			return err
		}
	}
	return nil
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, s string) error {
	_, err := fmt.Fprintln(w, s)
	return err
}
