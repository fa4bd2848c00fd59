package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation error")
	ErrConflict        = errors.New("conflict")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidState marks an attendance transition that is not allowed from
	// the record's current state (e.g. checking in twice).
	ErrInvalidState = errors.New("invalid state")
)

// Machine-readable codes carried in AppError.Code.
const (
	CodeAlreadyCheckedIn   = "already_checked_in"
	CodeAlreadyCompleted   = "already_completed"
	CodeNoOpenSession      = "no_open_session"
	CodeAlreadyCheckedOut  = "already_checked_out"
	CodeInvalidTaskStatus  = "invalid_task_status"
	CodeMissingField       = "missing_field"
	CodeEmailTaken         = "email_taken"
	CodeInvalidCredentials = "invalid_credentials"
	CodeUserNotFound       = "user_not_found"
	CodeUnauthenticated    = "unauthenticated"
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Code    string // Optional: machine-readable reason, more specific than Err
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// MissingField is a ValidationFailed for a required field that was absent or empty.
func MissingField(field string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: fmt.Sprintf("%s is required", field),
		Field:   field,
		Code:    CodeMissingField,
	}
}

func Conflict(code, message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
		Code:    code,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthenticated returns an AppError for a missing or unusable credential.
func Unauthenticated(code, message string) *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: message,
		Code:    code,
	}
}

// InvalidState returns an AppError for a disallowed attendance transition.
func InvalidState(code, message string) *AppError {
	return &AppError{
		Err:     ErrInvalidState,
		Message: message,
		Code:    code,
	}
}

// CodeOf returns the machine-readable code of the first AppError in err's
// chain, or "" if there is none.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
