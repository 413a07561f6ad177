package data

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/target/jobstatus/internal/domain/model"
)

const (
	fieldJobID      = "job_id"
	fieldSubmission = "submission_id"
	fieldDelayMS    = "completion_delay_ms"
	fieldRoll       = "failure_roll"
	fieldSubmit     = "submitted_at"
	fieldStatus     = "status"
)

// compareAndSetStatus flips the status field to ARGV[3] only when the hash
// belongs to submission ARGV[1] and holds status ARGV[2]. A missing hash
// yields false from HMGET, which never equals a string.
var compareAndSetStatus = redis.NewScript(`
local current = redis.call('HMGET', KEYS[1], 'submission_id', 'status')
if current[1] == ARGV[1] and current[2] == ARGV[2] then
  redis.call('HSET', KEYS[1], 'status', ARGV[3])
  return 1
end
return 0
`)

// RedisJobStoreOptions configures a RedisJobStore.
type RedisJobStoreOptions struct {
	Client    redis.UniversalClient // Required
	KeyPrefix string                // Optional: defaults to "jobstatus"
	// RecordTTL expires records after the given duration. Zero keeps them forever.
	RecordTTL time.Duration
}

// RedisJobStore keeps each job record in a Redis hash.
type RedisJobStore struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

// NewRedisJobStore creates a RedisJobStore.
func NewRedisJobStore(opts RedisJobStoreOptions) (*RedisJobStore, error) {
	if opts.Client == nil {
		return nil, errors.New("redis client is required")
	}
	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = "jobstatus"
	}
	return &RedisJobStore{client: opts.Client, keyPrefix: prefix, ttl: opts.RecordTTL}, nil
}

// key uses a hash tag so every command for one job lands on one cluster slot.
func (s *RedisJobStore) key(jobID string) string {
	return s.keyPrefix + ":job:{" + jobID + "}"
}

// Create replaces the hash for rec.JobID in a single MULTI/EXEC.
func (s *RedisJobStore) Create(ctx context.Context, rec model.JobRecord) error {
	if err := validateRecord(rec); err != nil {
		return err
	}

	key := s.key(rec.JobID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, map[string]any{
			fieldJobID:      rec.JobID,
			fieldSubmission: rec.SubmissionID,
			fieldDelayMS:    rec.CompletionDelay.Milliseconds(),
			fieldRoll:       strconv.FormatFloat(rec.FailureRoll, 'g', -1, 64),
			fieldSubmit:     rec.SubmittedAt.UTC().Format(time.RFC3339Nano),
			fieldStatus:     string(rec.Status),
		})
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis create job %s: %w", rec.JobID, err)
	}
	return nil
}

// Get returns a copy of the record or model.ErrJobNotFound.
func (s *RedisJobStore) Get(ctx context.Context, jobID string) (*model.JobRecord, error) {
	fields, err := s.client.HGetAll(ctx, s.key(jobID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis get job %s: %w", jobID, err)
	}
	if len(fields) == 0 {
		return nil, model.ErrJobNotFound
	}

	rec, err := decodeJobHash(fields)
	if err != nil {
		return nil, fmt.Errorf("decode job %s: %w", jobID, err)
	}
	return rec, nil
}

// UpdateStatus atomically applies t if the hash is still t's submission in status t.From.
func (s *RedisJobStore) UpdateStatus(ctx context.Context, t model.StatusTransition) (bool, error) {
	if err := validateTransition(t); err != nil {
		return false, err
	}

	n, err := compareAndSetStatus.Run(ctx, s.client, []string{s.key(t.JobID)},
		t.SubmissionID, string(t.From), string(t.To)).Int()
	if err != nil {
		return false, fmt.Errorf("redis update job %s status: %w", t.JobID, err)
	}
	return n == 1, nil
}

// Delete removes the record. Deleting an absent record is not an error.
func (s *RedisJobStore) Delete(ctx context.Context, jobID string) error {
	if err := s.client.Del(ctx, s.key(jobID)).Err(); err != nil {
		return fmt.Errorf("redis delete job %s: %w", jobID, err)
	}
	return nil
}

// Ping checks connectivity to Redis.
func (s *RedisJobStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func decodeJobHash(fields map[string]string) (*model.JobRecord, error) {
	delayMS, err := strconv.ParseInt(fields[fieldDelayMS], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", fieldDelayMS, err)
	}
	roll, err := strconv.ParseFloat(fields[fieldRoll], 64)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", fieldRoll, err)
	}
	submitted, err := time.Parse(time.RFC3339Nano, fields[fieldSubmit])
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", fieldSubmit, err)
	}
	status := model.JobStatus(fields[fieldStatus])
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	return &model.JobRecord{
		JobID:           fields[fieldJobID],
		SubmissionID:    fields[fieldSubmission],
		CompletionDelay: time.Duration(delayMS) * time.Millisecond,
		FailureRoll:     roll,
		SubmittedAt:     submitted,
		Status:          status,
	}, nil
}
