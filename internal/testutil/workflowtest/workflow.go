// Package workflowtest runs the job status server and client together for end-to-end tests.
package workflowtest

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"time"

	"github.com/target/jobstatus/internal/client"
	"github.com/target/jobstatus/internal/core"
	"github.com/target/jobstatus/internal/data"
	domainjob "github.com/target/jobstatus/internal/domain/job"
	httpx "github.com/target/jobstatus/internal/http"
	"github.com/target/jobstatus/internal/service"
	"github.com/target/jobstatus/internal/testutil"
)

// Backend names the JobStore a harness runs against.
type Backend string

const (
	// BackendMemory uses the in-process store.
	BackendMemory Backend = "memory"
	// BackendRedis uses a Redis test instance and skips when none is reachable.
	BackendRedis Backend = "redis"
	// BackendPostgres uses the Postgres test database and skips when it is unreachable.
	BackendPostgres Backend = "postgres"
)

// Backends lists every backend a workflow can be run against.
func Backends() []Backend {
	return []Backend{BackendMemory, BackendRedis, BackendPostgres}
}

// Options configures the harness.
type Options struct {
	Backend Backend
	// Roller fixes the failure roll of every submitted job. Defaults to a roll
	// that always completes.
	Roller domainjob.Roller
	// Clock drives the server's notion of time. Defaults to time.Now.
	Clock func() time.Time
	// ErrorThreshold of zero means domainjob.DefaultErrorThreshold.
	ErrorThreshold float64
	// RequestTimeout bounds each client request.
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

// DefaultOptions returns options for a memory-backed harness whose jobs complete.
func DefaultOptions() Options {
	return Options{
		Backend:        BackendMemory,
		Roller:         domainjob.FixedRoller(0.9),
		ErrorThreshold: domainjob.DefaultErrorThreshold,
		RequestTimeout: 2 * time.Second,
	}
}

// Harness is a running job status server plus a client pointed at it.
type Harness struct {
	t  testutil.TestingTB
	ts *httptest.Server

	Store  core.JobStore
	Status *service.StatusService
	Client *client.APIClient
}

// New starts a server on the configured backend. The caller must Close it.
func New(t testutil.TestingTB, opts Options) *Harness {
	t.Helper()

	if opts.Backend == "" {
		opts.Backend = BackendMemory
	}
	if opts.Roller == nil {
		opts.Roller = domainjob.FixedRoller(0.9)
	}
	if opts.ErrorThreshold == 0 {
		opts.ErrorThreshold = domainjob.DefaultErrorThreshold
	}
	if opts.RequestTimeout == 0 {
		opts.RequestTimeout = 2 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	h := &Harness{t: t, Store: newStore(t, opts.Backend)}

	policy, err := domainjob.NewStatusPolicy(opts.ErrorThreshold)
	if err != nil {
		t.Fatalf("status policy: %v", err)
	}
	h.Status = service.MustNewStatusService(service.StatusServiceOptions{
		Store:        h.Store,
		StatusPolicy: policy,
		Roller:       opts.Roller,
		Clock:        opts.Clock,
		Logger:       opts.Logger,
	})

	h.ts = httptest.NewServer(httpx.NewRouter(httpx.RouterServices{Status: h.Status, Logger: opts.Logger}))

	h.Client, err = client.NewAPIClient(client.APIClientOptions{
		BaseURL:        h.ts.URL,
		HTTPClient:     h.ts.Client(),
		RequestTimeout: opts.RequestTimeout,
		Logger:         opts.Logger,
	})
	if err != nil {
		h.ts.Close()
		t.Fatalf("api client: %v", err)
	}
	return h
}

func newStore(t testutil.TestingTB, backend Backend) core.JobStore {
	switch backend {
	case BackendRedis:
		rc := testutil.SetupTestRedis(t)
		if rc == nil {
			return nil
		}
		store, err := data.NewRedisJobStore(data.RedisJobStoreOptions{Client: rc, KeyPrefix: "workflowtest"})
		if err != nil {
			t.Fatalf("redis job store: %v", err)
		}
		return store
	case BackendPostgres:
		db := testutil.SetupTestDB(t)
		if db == nil {
			return nil
		}
		return data.NewJobRepo(db, data.RepoConfig{})
	default:
		return data.NewMemoryJobStore()
	}
}

// BaseURL returns the server's root URL.
func (h *Harness) BaseURL() string {
	return h.ts.URL
}

// Close stops the server and waits for in-flight failure notifications.
func (h *Harness) Close() {
	h.ts.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.Status.Wait(ctx); err != nil {
		h.t.Logf("warning: failure notifications still running: %v", err)
	}
}

// Poller builds a poller against the harness client.
func (h *Harness) Poller(interval, timeout time.Duration, observer client.Observer) *client.Poller {
	h.t.Helper()
	p, err := client.NewPoller(client.PollerOptions{
		Querier:  h.Client,
		Interval: interval,
		Timeout:  timeout,
		Observer: observer,
	})
	if err != nil {
		h.t.Fatalf("poller: %v", err)
	}
	return p
}

// SubmitAndPoll submits jobID with the given delay and polls it to a result.
func (h *Harness) SubmitAndPoll(
	ctx context.Context,
	jobID string,
	delay, interval, timeout time.Duration,
) (client.Result, error) {
	h.t.Helper()
	if _, err := h.Client.Submit(ctx, jobID, delay); err != nil {
		h.t.Fatalf("submit %s: %v", jobID, err)
	}
	return h.Poller(interval, timeout, nil).Poll(ctx, jobID)
}

// WithHarness runs fn against a fresh harness and closes it afterwards.
func WithHarness(t testutil.TestingTB, opts Options, fn func(*Harness)) {
	t.Helper()
	h := New(t, opts)
	defer h.Close()
	fn(h)
}
