package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/target/jobstatus/internal/data/pgxutil"
	"github.com/target/jobstatus/internal/domain/model"
	apperrors "github.com/target/jobstatus/internal/errors"
)

// RepoConfig holds configuration options for the job repository.
type RepoConfig struct {
	Logger *slog.Logger
	// Clock stamps created_at and updated_at. Defaults to SystemClock.
	Clock Clock
}

// JobRepo is the postgres-backed JobStore. Records live in the jobs table.
type JobRepo struct {
	DB     *sql.DB
	clock  Clock
	logger *slog.Logger
}

// NewJobRepo creates a new JobRepo instance with the given database connection and configuration.
func NewJobRepo(db *sql.DB, cfg RepoConfig) *JobRepo {
	clock := cfg.Clock
	if clock == nil {
		clock = SystemClock()
	}

	logger := cfg.Logger
	if logger != nil {
		logger = logger.With("component", "job_repo")
	}

	return &JobRepo{
		DB:     db,
		clock:  clock,
		logger: logger,
	}
}

const jobColumns = `
  job_id,
  submission_id,
  completion_delay_ms,
  failure_roll,
  submitted_at,
  status
`

// Create inserts rec, replacing any existing record with the same id.
func (r *JobRepo) Create(ctx context.Context, rec model.JobRecord) error {
	if err := validateRecord(rec); err != nil {
		return err
	}

	now := r.clock.Now()
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO jobs (job_id, submission_id, completion_delay_ms, failure_roll, submitted_at, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (job_id) DO UPDATE SET
			submission_id       = EXCLUDED.submission_id,
			completion_delay_ms = EXCLUDED.completion_delay_ms,
			failure_roll        = EXCLUDED.failure_roll,
			submitted_at        = EXCLUDED.submitted_at,
			status              = EXCLUDED.status,
			updated_at          = EXCLUDED.updated_at
	`,
		rec.JobID,
		rec.SubmissionID,
		rec.CompletionDelay.Milliseconds(),
		rec.FailureRoll,
		rec.SubmittedAt.UTC(),
		string(rec.Status),
		now,
	)
	if err != nil {
		return fmt.Errorf("create job %s: %w", rec.JobID, apperrors.MapDBError(err))
	}
	return nil
}

// Get retrieves a job record by its id.
func (r *JobRepo) Get(ctx context.Context, jobID string) (*model.JobRecord, error) {
	rec, err := pgxutil.QueryOne(ctx, r.DB, scanJobRecord, `
		SELECT `+jobColumns+`
		FROM jobs
		WHERE job_id = $1
	`, jobID)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", jobID, apperrors.MapDBError(err))
	}
	return &rec, nil
}

// UpdateStatus applies t only if the row still belongs to t's submission and holds t.From.
// The single conditional UPDATE is atomic per row, so concurrent callers cannot both win.
func (r *JobRepo) UpdateStatus(ctx context.Context, t model.StatusTransition) (bool, error) {
	if err := validateTransition(t); err != nil {
		return false, err
	}

	res, err := r.DB.ExecContext(ctx, `
		UPDATE jobs
		SET status = $4, updated_at = $5
		WHERE job_id = $1 AND submission_id = $2 AND status = $3
	`, t.JobID, t.SubmissionID, string(t.From), string(t.To), r.clock.Now())
	if err != nil {
		return false, fmt.Errorf("update job %s status: %w", t.JobID, apperrors.MapDBError(err))
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update job %s rows affected: %w", t.JobID, err)
	}

	if rowsAffected == 0 && r.logger != nil {
		r.logger.DebugContext(ctx, "conditional status update matched no row",
			"job_id", t.JobID,
			"submission_id", t.SubmissionID,
			"from", t.From,
			"to", t.To,
		)
	}
	return rowsAffected == 1, nil
}

// Delete removes the record. Deleting an absent record is not an error.
func (r *JobRepo) Delete(ctx context.Context, jobID string) error {
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM jobs WHERE job_id = $1`, jobID); err != nil {
		return fmt.Errorf("delete job %s: %w", jobID, apperrors.MapDBError(err))
	}
	return nil
}

// Ping verifies the database connection.
func (r *JobRepo) Ping(ctx context.Context) error {
	if err := r.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", apperrors.MapDBError(err))
	}
	return nil
}

func scanJobRecord(row pgx.CollectableRow) (model.JobRecord, error) {
	var (
		rec     model.JobRecord
		delayMS int64
		status  string
	)
	if err := row.Scan(&rec.JobID, &rec.SubmissionID, &delayMS, &rec.FailureRoll, &rec.SubmittedAt, &status); err != nil {
		return model.JobRecord{}, err
	}
	rec.CompletionDelay = time.Duration(delayMS) * time.Millisecond
	rec.Status = model.JobStatus(status)
	return rec, nil
}
