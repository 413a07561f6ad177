// Package mocks provides mock implementations for testing the job status service.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for our port interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	store := mocks.NewMockJobStore(ctrl)
//	store.EXPECT().Get(gomock.Any(), "job-1").Return(rec, nil)
package mocks

// Generate mock for JobStore interface from internal/core package.
// This creates MockJobStore with methods for all JobStore interface methods:
// Create, Get, UpdateStatus, Delete, Ping
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=job_store_mock.go github.com/target/jobstatus/internal/core JobStore

// Generate mock for JobFailureNotifier interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=job_failure_notifier_mock.go github.com/target/jobstatus/internal/core JobFailureNotifier

// Generate mock for StatusQuerier interface from internal/client package.
// This creates MockStatusQuerier used by poller tests to script status sequences.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=status_querier_mock.go github.com/target/jobstatus/internal/client StatusQuerier
