package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/target/jobstatus/internal/domain/model"
	apperrors "github.com/target/jobstatus/internal/errors"
)

// StatusService is the behaviour the job handlers need from the service layer.
type StatusService interface {
	Submit(ctx context.Context, req model.SubmitJobRequest) (*model.JobRecord, error)
	GetStatus(ctx context.Context, jobID string) (model.JobStatus, error)
	DefaultCompletionDelay() time.Duration
	Ready(ctx context.Context) error
}

// JobHandlers provides HTTP handlers for job submission and status queries.
type JobHandlers struct {
	Svc    StatusService
	Logger *slog.Logger
}

// Submit handles POST /submit/{job_id}?delay_seconds=N.
func (h *JobHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("job_id")

	delay, err := h.parseDelay(r)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	rec, err := h.Svc.Submit(r.Context(), model.SubmitJobRequest{JobID: jobID, CompletionDelay: delay})
	if err != nil {
		h.logFailure(r, "submit", jobID, err)
		WriteAppError(w, err)
		return
	}

	WriteText(w, http.StatusCreated, "Successfully submitted the job: "+rec.JobID)
}

// GetStatus handles GET /status/{job_id}.
func (h *JobHandlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("job_id")

	status, err := h.Svc.GetStatus(r.Context(), jobID)
	if err != nil {
		h.logFailure(r, "status", jobID, err)
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, model.JobStatusResponse{Result: status})
}

// parseDelay reads delay_seconds as a non-negative whole number of seconds.
func (h *JobHandlers) parseDelay(r *http.Request) (time.Duration, error) {
	raw := r.URL.Query().Get("delay_seconds")
	if raw == "" {
		return h.Svc.DefaultCompletionDelay(), nil
	}

	seconds, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperrors.ValidationField("delay_seconds", "delay_seconds must be an integer")
	}
	if seconds < 0 {
		return 0, apperrors.ValidationField("delay_seconds", "delay_seconds must be >= 0")
	}
	seconds = min(seconds, maxDelaySeconds)
	return time.Duration(seconds) * time.Second, nil
}

// maxDelaySeconds keeps the duration conversion from overflowing; the service clamps further.
const maxDelaySeconds = int64(1<<63-1) / int64(time.Second)

func (h *JobHandlers) logFailure(r *http.Request, op, jobID string, err error) {
	if h.Logger == nil || apperrors.IsNotFound(err) || apperrors.IsValidation(err) {
		return
	}
	h.Logger.WarnContext(r.Context(), "job request failed",
		"op", op,
		"job_id", jobID,
		"request_id", RequestIDFromContext(r.Context()),
		"error", err,
	)
}
