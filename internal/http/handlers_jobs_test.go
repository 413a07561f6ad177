package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/jobstatus/internal/data"
	domainjob "github.com/target/jobstatus/internal/domain/job"
	"github.com/target/jobstatus/internal/domain/model"
	"github.com/target/jobstatus/internal/mocks"
	"github.com/target/jobstatus/internal/service"
	"github.com/target/jobstatus/internal/testutil"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type routerFixture struct {
	handler http.Handler
	store   *data.MemoryJobStore
	clock   *manualClock
}

func newRouterFixture(t *testing.T, roll float64) *routerFixture {
	t.Helper()
	store := data.NewMemoryJobStore()
	clock := &manualClock{now: testutil.TestTime()}
	svc := service.MustNewStatusService(service.StatusServiceOptions{
		Store:  store,
		Roller: domainjob.FixedRoller(roll),
		Clock:  clock.Now,
	})
	return &routerFixture{
		handler: NewRouter(RouterServices{Status: svc, Logger: testLogger()}),
		store:   store,
		clock:   clock,
	}
}

func (f *routerFixture) do(method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decodeStatus(t *testing.T, rec *httptest.ResponseRecorder) model.JobStatus {
	t.Helper()
	var body model.JobStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Result
}

func TestSubmitHandler(t *testing.T) {
	t.Run("default delay", func(t *testing.T) {
		f := newRouterFixture(t, 0.5)

		rec := f.do(http.MethodPost, "/submit/video-1")
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "Successfully submitted the job: video-1", rec.Body.String())
		assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))

		stored, err := f.store.Get(context.Background(), "video-1")
		require.NoError(t, err)
		assert.Equal(t, 20*time.Second, stored.CompletionDelay)
		assert.Equal(t, model.JobStatusPending, stored.Status)
	})

	t.Run("explicit delay", func(t *testing.T) {
		f := newRouterFixture(t, 0.5)

		rec := f.do(http.MethodPost, "/submit/v?delay_seconds=0")
		require.Equal(t, http.StatusCreated, rec.Code)

		stored, err := f.store.Get(context.Background(), "v")
		require.NoError(t, err)
		assert.Zero(t, stored.CompletionDelay)
	})

	for _, bad := range []string{"-1", "abc", "1.5"} {
		t.Run("invalid delay "+bad, func(t *testing.T) {
			f := newRouterFixture(t, 0.5)

			rec := f.do(http.MethodPost, "/submit/v?delay_seconds="+bad)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var body ErrorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "validation", body.Error)
			assert.Equal(t, "delay_seconds", body.Field)
			assert.Equal(t, 0, f.store.Len())
		})
	}

	t.Run("wrong method", func(t *testing.T) {
		f := newRouterFixture(t, 0.5)
		rec := f.do(http.MethodGet, "/submit/v")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestStatusHandler(t *testing.T) {
	t.Run("pending then completed", func(t *testing.T) {
		f := newRouterFixture(t, 0.5)
		require.Equal(t, http.StatusCreated, f.do(http.MethodPost, "/submit/J2?delay_seconds=100").Code)

		rec := f.do(http.MethodGet, "/status/J2")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.Equal(t, model.JobStatusPending, decodeStatus(t, rec))

		f.clock.Advance(100 * time.Second)
		rec = f.do(http.MethodGet, "/status/J2")
		assert.Equal(t, model.JobStatusCompleted, decodeStatus(t, rec))
	})

	t.Run("zero delay completes at once", func(t *testing.T) {
		f := newRouterFixture(t, 0.5)
		require.Equal(t, http.StatusCreated, f.do(http.MethodPost, "/submit/J1?delay_seconds=0").Code)

		assert.Equal(t, model.JobStatusCompleted, decodeStatus(t, f.do(http.MethodGet, "/status/J1")))
	})

	t.Run("failing roll", func(t *testing.T) {
		f := newRouterFixture(t, 0.0)
		require.Equal(t, http.StatusCreated, f.do(http.MethodPost, "/submit/bad").Code)

		assert.Equal(t, `{"result":"error"}`+"\n", f.do(http.MethodGet, "/status/bad").Body.String())
	})

	t.Run("unknown job", func(t *testing.T) {
		f := newRouterFixture(t, 0.5)

		rec := f.do(http.MethodGet, "/status/ghost")
		assert.Equal(t, http.StatusNotFound, rec.Code)

		var body ErrorBody
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "not_found", body.Error)
		assert.Equal(t, "Job ID ghost could not be found", body.Detail)
	})
}

func TestHandlersStoreUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockJobStore(ctrl)
	store.EXPECT().Get(gomock.Any(), "j").Return(nil, errors.New("connection refused"))
	store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("connection refused"))

	svc := service.MustNewStatusService(service.StatusServiceOptions{Store: store})
	handler := NewRouter(RouterServices{Status: svc, Logger: testLogger()})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status/j", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":"store_unavailable"`)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/submit/j", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
