package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/target/jobstatus/internal/domain/model"
	apperrors "github.com/target/jobstatus/internal/errors"
)

// DefaultRequestTimeout bounds a single request when none is configured.
const DefaultRequestTimeout = 10 * time.Second

const maxBodyBytes = 64 << 10

// APIClientOptions configures an APIClient.
type APIClientOptions struct {
	BaseURL        string        // Required, e.g. http://127.0.0.1:8000
	HTTPClient     *http.Client  // Optional: defaults to a new http.Client
	RequestTimeout time.Duration // Optional: defaults to DefaultRequestTimeout
	Logger         *slog.Logger  // Optional: defaults to slog.Default()
}

// APIClient talks to the job status HTTP API.
type APIClient struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

var _ StatusQuerier = (*APIClient)(nil)

// NewAPIClient constructs an APIClient.
func NewAPIClient(opts APIClientOptions) (*APIClient, error) {
	raw := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if raw == "" {
		return nil, apperrors.InvalidConfiguration("base url is required")
	}
	base, err := url.Parse(raw)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, apperrors.InvalidConfigurationf("invalid base url %q", opts.BaseURL)
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &APIClient{
		base:    base,
		http:    hc,
		timeout: timeout,
		logger:  logger.With("component", "api_client"),
	}, nil
}

// Submit registers jobID with the service. A negative delay omits
// delay_seconds so the server default applies. It returns the server's
// confirmation message.
func (c *APIClient) Submit(ctx context.Context, jobID string, delay time.Duration) (string, error) {
	q := url.Values{}
	if delay >= 0 {
		q.Set("delay_seconds", strconv.FormatInt(int64(delay/time.Second), 10))
	}

	code, body, err := c.do(ctx, http.MethodPost, "submit", jobID, q)
	if err != nil {
		return "", err
	}
	if code != http.StatusCreated {
		return "", errorForStatus(jobID, code, body)
	}
	return strings.TrimSpace(string(body)), nil
}

// GetStatus queries GET /status/{job_id}.
func (c *APIClient) GetStatus(ctx context.Context, jobID string) (model.JobStatus, error) {
	code, body, err := c.do(ctx, http.MethodGet, "status", jobID, nil)
	if err != nil {
		return "", err
	}
	if code != http.StatusOK {
		return "", errorForStatus(jobID, code, body)
	}

	var resp model.JobStatusResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeInternal, "decode status response")
	}
	if !resp.Result.Valid() {
		return "", apperrors.Internalf("status response for job %s has no result", jobID)
	}
	return resp.Result, nil
}

func (c *APIClient) do(ctx context.Context, method, action, jobID string, q url.Values) (int, []byte, error) {
	if err := model.ValidateJobID(jobID); err != nil {
		return 0, nil, apperrors.ValidationField("job_id", err.Error())
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.base.JoinPath(action, url.PathEscape(jobID))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return 0, nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "build request")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, apperrors.Transport(err, fmt.Sprintf("%s %s failed", method, u.Path))
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, nil, apperrors.Transport(err, "read response body")
	}

	c.logger.DebugContext(ctx, "api request",
		"method", method,
		"path", u.Path,
		"status", resp.StatusCode,
		"duration", time.Since(start))
	return resp.StatusCode, body, nil
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
	Field  string `json:"field,omitempty"`
}

func errorForStatus(jobID string, code int, body []byte) error {
	var er errorResponse
	_ = json.Unmarshal(body, &er)

	switch code {
	case http.StatusNotFound:
		if er.Detail == "" {
			return apperrors.JobNotFound(jobID)
		}
		return apperrors.NotFound(er.Detail)
	case http.StatusServiceUnavailable:
		return apperrors.StoreUnavailable(errors.New(detailOr(er.Detail, body)), "status service unavailable")
	case http.StatusBadRequest:
		if er.Field != "" {
			return apperrors.ValidationField(er.Field, er.Detail)
		}
		return apperrors.Validation(detailOr(er.Detail, body))
	default:
		return apperrors.Internalf("unexpected response %d: %s", code, detailOr(er.Detail, body))
	}
}

func detailOr(detail string, body []byte) string {
	if detail != "" {
		return detail
	}
	if s := strings.TrimSpace(string(body)); s != "" {
		return s
	}
	return "no response body"
}
