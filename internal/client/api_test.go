package client_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/jobstatus/internal/client"
	"github.com/target/jobstatus/internal/data"
	domainjob "github.com/target/jobstatus/internal/domain/job"
	"github.com/target/jobstatus/internal/domain/model"
	apperrors "github.com/target/jobstatus/internal/errors"
	httpx "github.com/target/jobstatus/internal/http"
	"github.com/target/jobstatus/internal/service"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newServer(t *testing.T, roll float64) (*httptest.Server, *data.MemoryJobStore) {
	t.Helper()
	store := data.NewMemoryJobStore()
	svc := service.MustNewStatusService(service.StatusServiceOptions{
		Store:  store,
		Roller: domainjob.FixedRoller(roll),
		Logger: discardLogger(),
	})
	srv := httptest.NewServer(httpx.NewRouter(httpx.RouterServices{Status: svc, Logger: discardLogger()}))
	t.Cleanup(srv.Close)
	return srv, store
}

func newAPIClient(t *testing.T, baseURL string) *client.APIClient {
	t.Helper()
	c, err := client.NewAPIClient(client.APIClientOptions{BaseURL: baseURL, Logger: discardLogger()})
	require.NoError(t, err)
	return c
}

func TestNewAPIClient_Validation(t *testing.T) {
	for _, raw := range []string{"", "   ", "not a url", "/relative"} {
		_, err := client.NewAPIClient(client.APIClientOptions{BaseURL: raw})
		assert.True(t, apperrors.IsInvalidConfiguration(err), "%q: %v", raw, err)
	}

	_, err := client.NewAPIClient(client.APIClientOptions{BaseURL: "http://localhost:8000/"})
	assert.NoError(t, err)
}

func TestAPIClient_SubmitAndStatus(t *testing.T) {
	srv, store := newServer(t, 0.5)
	c := newAPIClient(t, srv.URL)
	ctx := context.Background()

	msg, err := c.Submit(ctx, "J1", 0)
	require.NoError(t, err)
	assert.Equal(t, "Successfully submitted the job: J1", msg)

	status, err := c.GetStatus(ctx, "J1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCompleted, status)

	_, err = c.Submit(ctx, "J2", 100*time.Second)
	require.NoError(t, err)
	rec, err := store.Get(ctx, "J2")
	require.NoError(t, err)
	assert.Equal(t, 100*time.Second, rec.CompletionDelay)

	status, err = c.GetStatus(ctx, "J2")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusPending, status)
}

func TestAPIClient_SubmitServerDefaultDelay(t *testing.T) {
	srv, store := newServer(t, 0.5)
	c := newAPIClient(t, srv.URL)

	_, err := c.Submit(context.Background(), "d", -1)
	require.NoError(t, err)

	rec, err := store.Get(context.Background(), "d")
	require.NoError(t, err)
	assert.Equal(t, domainjob.DefaultCompletionDelay, rec.CompletionDelay)
}

func TestAPIClient_EscapesJobID(t *testing.T) {
	srv, store := newServer(t, 0.5)
	c := newAPIClient(t, srv.URL)

	_, err := c.Submit(context.Background(), "video 1?x", 0)
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "video 1?x")
	assert.NoError(t, err)
}

func TestAPIClient_StatusNotFound(t *testing.T) {
	srv, _ := newServer(t, 0.5)
	c := newAPIClient(t, srv.URL)

	_, err := c.GetStatus(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, "Job ID ghost could not be found", apperrors.GetMessage(err))
}

func TestAPIClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{name: "unavailable", status: http.StatusServiceUnavailable, body: `{"error":"store_unavailable","detail":"down"}`, check: apperrors.IsStoreUnavailable},
		{name: "bad request", status: http.StatusBadRequest, body: `{"error":"validation","detail":"bad","field":"delay_seconds"}`, check: apperrors.IsValidation},
		{name: "server error", status: http.StatusInternalServerError, body: "boom", check: apperrors.IsInternal},
		{name: "teapot", status: http.StatusTeapot, body: "", check: apperrors.IsInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			t.Cleanup(srv.Close)

			_, err := newAPIClient(t, srv.URL).GetStatus(context.Background(), "j")
			assert.True(t, tt.check(err), "got %v", err)
		})
	}
}

func TestAPIClient_BadStatusBody(t *testing.T) {
	for _, body := range []string{`{"result":"exploded"}`, `{}`, `{"result":null}`, `not json`} {
		t.Run(body, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, body)
			}))
			t.Cleanup(srv.Close)

			status, err := newAPIClient(t, srv.URL).GetStatus(context.Background(), "j")
			assert.True(t, apperrors.IsInternal(err), "got %v", err)
			assert.Empty(t, status)
		})
	}
}

func TestAPIClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newAPIClient(t, url).GetStatus(context.Background(), "j")
	assert.True(t, apperrors.IsTransport(err), "got %v", err)
}

func TestAPIClient_RequestTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	c, err := client.NewAPIClient(client.APIClientOptions{
		BaseURL:        srv.URL,
		RequestTimeout: 20 * time.Millisecond,
		Logger:         discardLogger(),
	})
	require.NoError(t, err)

	_, err = c.GetStatus(context.Background(), "slow")
	assert.True(t, apperrors.IsTransport(err), "got %v", err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAPIClient_RejectsUnroutableJobIDs(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = io.WriteString(w, `{"status":"ok"}`)
	}))
	t.Cleanup(srv.Close)
	c := newAPIClient(t, srv.URL)

	for _, id := range []string{"", ".", ".."} {
		_, err := c.GetStatus(context.Background(), id)
		assert.True(t, apperrors.IsValidation(err), "%q: %v", id, err)

		_, err = c.Submit(context.Background(), id, 0)
		assert.True(t, apperrors.IsValidation(err), "%q: %v", id, err)
	}
	assert.Zero(t, hits.Load(), "no request may reach the server")
}

func TestPollAgainstServer(t *testing.T) {
	srv, _ := newServer(t, 0.0)
	c := newAPIClient(t, srv.URL)
	ctx := context.Background()

	_, err := c.Submit(ctx, "doomed", 0)
	require.NoError(t, err)

	p, err := client.NewPoller(client.PollerOptions{Querier: c, Interval: 10 * time.Millisecond, Timeout: time.Second})
	require.NoError(t, err)

	res, err := p.Poll(ctx, "doomed")
	require.NoError(t, err)
	assert.Equal(t, client.ReasonTerminal, res.Reason)
	assert.Equal(t, model.JobStatusError, res.Status)
}
