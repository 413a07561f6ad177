package data

import (
	"context"
	"sync"

	"github.com/target/jobstatus/internal/domain/model"
)

// MemoryJobStore keeps job records in process memory.
// It is the default store and the one used by tests; records do not survive a restart.
type MemoryJobStore struct {
	mu   sync.RWMutex
	jobs map[string]model.JobRecord
}

// NewMemoryJobStore creates an empty MemoryJobStore.
func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{jobs: make(map[string]model.JobRecord)}
}

// Create inserts rec, replacing any existing record with the same id.
func (s *MemoryJobStore) Create(ctx context.Context, rec model.JobRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateRecord(rec); err != nil {
		return err
	}

	s.mu.Lock()
	s.jobs[rec.JobID] = rec
	s.mu.Unlock()
	return nil
}

// Get returns a copy of the record or model.ErrJobNotFound.
func (s *MemoryJobStore) Get(ctx context.Context, jobID string) (*model.JobRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	rec, ok := s.jobs[jobID]
	s.mu.RUnlock()
	if !ok {
		return nil, model.ErrJobNotFound
	}
	return &rec, nil
}

// UpdateStatus applies t if the stored record is still t's submission in status t.From.
func (s *MemoryJobStore) UpdateStatus(ctx context.Context, t model.StatusTransition) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := validateTransition(t); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.jobs[t.JobID]
	if !ok || rec.SubmissionID != t.SubmissionID || rec.Status != t.From {
		return false, nil
	}
	rec.Status = t.To
	s.jobs[t.JobID] = rec
	return true, nil
}

// Delete removes the record if present.
func (s *MemoryJobStore) Delete(ctx context.Context, jobID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.jobs, jobID)
	s.mu.Unlock()
	return nil
}

// Ping always succeeds.
func (s *MemoryJobStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Len returns the number of stored records.
func (s *MemoryJobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}
