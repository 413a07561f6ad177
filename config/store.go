package config

import (
	"fmt"
	"strings"
)

// StoreBackend names a JobStore implementation.
type StoreBackend string

const (
	// StoreBackendMemory keeps job records in process memory.
	StoreBackendMemory StoreBackend = "memory"
	// StoreBackendPostgres keeps job records in the jobs table.
	StoreBackendPostgres StoreBackend = "postgres"
	// StoreBackendRedis keeps job records in Redis hashes.
	StoreBackendRedis StoreBackend = "redis"
)

// ValidStoreBackends returns all valid store backend names.
func ValidStoreBackends() []StoreBackend {
	return []StoreBackend{
		StoreBackendMemory,
		StoreBackendPostgres,
		StoreBackendRedis,
	}
}

// ParseStoreBackend normalises and validates a backend name.
func ParseStoreBackend(raw string) (StoreBackend, error) {
	name := StoreBackend(strings.ToLower(strings.TrimSpace(raw)))
	switch name {
	case "":
		return StoreBackendMemory, nil
	case StoreBackendMemory, StoreBackendPostgres, StoreBackendRedis:
		return name, nil
	default:
		return "", fmt.Errorf(
			"invalid store backend: %q (valid options: memory, postgres, redis)",
			raw,
		)
	}
}

// StoreConfig selects the job store backend.
type StoreConfig struct {
	// Backend is one of memory, postgres, redis.
	Backend string `env:"STORE_BACKEND" envDefault:"memory"`
}

// Sanitize trims and lower-cases the backend name.
func (s *StoreConfig) Sanitize() {
	s.Backend = strings.ToLower(strings.TrimSpace(s.Backend))
	if s.Backend == "" {
		s.Backend = string(StoreBackendMemory)
	}
}

// GetBackend returns the validated backend.
func (s *StoreConfig) GetBackend() (StoreBackend, error) {
	return ParseStoreBackend(s.Backend)
}

// UsesPostgres reports whether the postgres backend is selected.
func (s *StoreConfig) UsesPostgres() bool {
	b, err := s.GetBackend()
	return err == nil && b == StoreBackendPostgres
}

// UsesRedis reports whether the redis backend is selected.
func (s *StoreConfig) UsesRedis() bool {
	b, err := s.GetBackend()
	return err == nil && b == StoreBackendRedis
}
