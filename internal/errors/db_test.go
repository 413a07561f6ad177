package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapDBError_NilError(t *testing.T) {
	err := MapDBError(nil)
	if err != nil {
		t.Errorf("MapDBError(nil) = %v, want nil", err)
	}
}

func TestMapDBError_ContextErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode ErrorCode
	}{
		{
			name:     "deadline exceeded",
			err:      context.DeadlineExceeded,
			wantCode: ErrCodeTimeout,
		},
		{
			name:     "canceled",
			err:      context.Canceled,
			wantCode: ErrCodeCanceled,
		},
		{
			name:     "wrapped deadline",
			err:      fmt.Errorf("query: %w", context.DeadlineExceeded),
			wantCode: ErrCodeTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(tt.err)
			if !IsAppError(err, tt.wantCode) {
				t.Errorf("MapDBError() code = %v, want %v", GetCode(err), tt.wantCode)
			}
		})
	}
}

func TestMapDBError_NoRows(t *testing.T) {
	err := MapDBError(pgx.ErrNoRows)
	if !IsNotFound(err) {
		t.Errorf("MapDBError(pgx.ErrNoRows) should be NotFound, got %v", GetCode(err))
	}
}

func TestMapDBError_PgErrors(t *testing.T) {
	tests := []struct {
		name      string
		pgErr     *pgconn.PgError
		wantCode  ErrorCode
		wantField string
	}{
		{
			name:     "connection failure",
			pgErr:    &pgconn.PgError{Code: pgerrcode.ConnectionFailure},
			wantCode: ErrCodeStoreUnavailable,
		},
		{
			name:     "admin shutdown",
			pgErr:    &pgconn.PgError{Code: pgerrcode.AdminShutdown},
			wantCode: ErrCodeStoreUnavailable,
		},
		{
			name:     "too many connections",
			pgErr:    &pgconn.PgError{Code: pgerrcode.TooManyConnections},
			wantCode: ErrCodeStoreUnavailable,
		},
		{
			name:     "read only transaction",
			pgErr:    &pgconn.PgError{Code: pgerrcode.ReadOnlySQLTransaction},
			wantCode: ErrCodeStoreUnavailable,
		},
		{
			name:      "check violation",
			pgErr:     &pgconn.PgError{Code: pgerrcode.CheckViolation, ColumnName: "status"},
			wantCode:  ErrCodeValidation,
			wantField: "status",
		},
		{
			name:     "string too long",
			pgErr:    &pgconn.PgError{Code: pgerrcode.StringDataRightTruncationDataException},
			wantCode: ErrCodeValidation,
		},
		{
			name:     "undefined table",
			pgErr:    &pgconn.PgError{Code: pgerrcode.UndefinedTable},
			wantCode: ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(tt.pgErr)
			if !IsAppError(err, tt.wantCode) {
				t.Fatalf("MapDBError() code = %v, want %v", GetCode(err), tt.wantCode)
			}
			if got := GetField(err); got != tt.wantField {
				t.Errorf("MapDBError() field = %q, want %q", got, tt.wantField)
			}
			var pgErr *pgconn.PgError
			if !errors.As(err, &pgErr) {
				t.Errorf("MapDBError() should preserve the PgError cause")
			}
		})
	}
}

func TestMapDBError_NetworkErrors(t *testing.T) {
	opErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	err := MapDBError(fmt.Errorf("ping: %w", opErr))
	if !IsStoreUnavailable(err) {
		t.Errorf("network error should map to StoreUnavailable, got %v", GetCode(err))
	}

	err = MapDBError(errors.New("sql: database is closed"))
	if !IsStoreUnavailable(err) {
		t.Errorf("closed database should map to StoreUnavailable, got %v", GetCode(err))
	}
}

func TestMapDBError_PassThrough(t *testing.T) {
	orig := errors.New("something else")
	if err := MapDBError(orig); !errors.Is(err, orig) || GetCode(err) != "" {
		t.Errorf("unrecognised errors should pass through unchanged, got %v", err)
	}
}

func IsAppError(err error, code ErrorCode) bool {
	return GetCode(err) == code
}
