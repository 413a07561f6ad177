// Package errors defines the structured error kinds shared by the job status service,
// its HTTP surface and the polling client.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeNotFound indicates the job id has no record.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeStoreUnavailable indicates the job store could not be read or written.
	ErrCodeStoreUnavailable ErrorCode = "store_unavailable"
	// ErrCodeInvalidConfiguration indicates a component was built with unusable settings.
	ErrCodeInvalidConfiguration ErrorCode = "invalid_configuration"
	// ErrCodeValidation indicates invalid input data.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeTransport indicates the network request to the service failed.
	ErrCodeTransport ErrorCode = "transport"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "internal"
	// ErrCodeTimeout indicates a timeout occurred.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeCanceled indicates the operation was canceled.
	ErrCodeCanceled ErrorCode = "canceled"
)

// AppError is a classified error. Field names the offending input for
// validation errors; Cause, when set, is reachable through errors.Is/As.
type AppError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Field   string
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

// Is matches another *AppError carrying the same code, so callers can write
// errors.Is(err, &AppError{Code: ErrCodeNotFound}).
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code && t.Message == "" && t.Cause == nil
}

func newError(code ErrorCode, cause error, message string) *AppError {
	return &AppError{Code: code, Message: message, Cause: cause}
}

// NotFound reports a missing record.
func NotFound(message string) *AppError { return newError(ErrCodeNotFound, nil, message) }

// NotFoundf is NotFound with a formatted message.
func NotFoundf(format string, args ...any) *AppError {
	return NotFound(fmt.Sprintf(format, args...))
}

// JobNotFound is the NotFound error reported for an unknown job id.
func JobNotFound(jobID string) *AppError {
	return NotFoundf("Job ID %s could not be found", jobID)
}

// StoreUnavailable wraps a failure of the job store.
func StoreUnavailable(err error, message string) *AppError {
	return newError(ErrCodeStoreUnavailable, err, message)
}

// InvalidConfiguration reports unusable component settings.
func InvalidConfiguration(message string) *AppError {
	return newError(ErrCodeInvalidConfiguration, nil, message)
}

// InvalidConfigurationf is InvalidConfiguration with a formatted message.
func InvalidConfigurationf(format string, args ...any) *AppError {
	return InvalidConfiguration(fmt.Sprintf(format, args...))
}

// Validation reports bad caller input.
func Validation(message string) *AppError { return newError(ErrCodeValidation, nil, message) }

// Validationf is Validation with a formatted message.
func Validationf(format string, args ...any) *AppError {
	return Validation(fmt.Sprintf(format, args...))
}

// ValidationField is Validation tied to one input field.
func ValidationField(field, message string) *AppError {
	e := Validation(message)
	e.Field = field
	return e
}

// Transport wraps a network failure talking to the service.
func Transport(err error, message string) *AppError {
	return newError(ErrCodeTransport, err, message)
}

// Internal reports an unexpected failure.
func Internal(message string) *AppError { return newError(ErrCodeInternal, nil, message) }

// Internalf is Internal with a formatted message.
func Internalf(format string, args ...any) *AppError {
	return Internal(fmt.Sprintf(format, args...))
}

// Wrap classifies err under code. A nil err stays nil.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return newError(code, err, message)
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool {
	return isCode(err, ErrCodeNotFound)
}

// IsStoreUnavailable checks if an error is a StoreUnavailable error.
func IsStoreUnavailable(err error) bool {
	return isCode(err, ErrCodeStoreUnavailable)
}

// IsInvalidConfiguration checks if an error is an InvalidConfiguration error.
func IsInvalidConfiguration(err error) bool {
	return isCode(err, ErrCodeInvalidConfiguration)
}

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool {
	return isCode(err, ErrCodeValidation)
}

// IsTransport checks if an error is a Transport error.
func IsTransport(err error) bool {
	return isCode(err, ErrCodeTransport)
}

// IsInternal checks if an error is an Internal error.
func IsInternal(err error) bool {
	return isCode(err, ErrCodeInternal)
}

// IsTimeout checks if an error is a Timeout error.
func IsTimeout(err error) bool {
	return isCode(err, ErrCodeTimeout)
}

// IsCanceled checks if an error is a Canceled error.
func IsCanceled(err error) bool {
	return isCode(err, ErrCodeCanceled)
}

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetField returns the Field from an error, or empty string if not an AppError or no field set.
func GetField(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}

// GetMessage returns the AppError message without its cause, or err.Error() otherwise.
func GetMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
