package apperrors

import (
	"errors"
	"fmt"
)

var (
	New = errors.New
	Is  = errors.Is
	As  = errors.As
)

const (
	ErrInternal        = "INTERNAL"
	ErrNotFound        = "NOT_FOUND"
	ErrInvalidArgument = "INVALID_ARGUMENT"
	ErrUnauthenticated = "UNAUTHENTICATED"
	ErrForbidden       = "FORBIDDEN"
	ErrConflict        = "CONFLICT"
	ErrTooLarge        = "TOO_LARGE"
)

// AppError carries a code the transport layer maps to a status.
type AppError struct {
	code    string
	message string
	err     error
}

func (e *AppError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s", e.message, e.err.Error())
	}
	return e.message
}

func (e *AppError) Code() string { return e.code }

func (e *AppError) Unwrap() error { return e.err }

func NewAppError(code string, message string, err error) *AppError {
	return &AppError{code: code, message: message, err: err}
}

func NotFound(format string, args ...any) error {
	return NewAppError(ErrNotFound, fmt.Sprintf(format, args...), nil)
}

func InvalidArgument(format string, args ...any) error {
	return NewAppError(ErrInvalidArgument, fmt.Sprintf(format, args...), nil)
}

func Conflict(format string, args ...any) error {
	return NewAppError(ErrConflict, fmt.Sprintf(format, args...), nil)
}

func Forbidden(format string, args ...any) error {
	return NewAppError(ErrForbidden, fmt.Sprintf(format, args...), nil)
}

// Wrap annotates err, keeping its code when it already has one.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if As(err, &appErr) {
		return NewAppError(appErr.Code(), message, err)
	}
	return NewAppError(ErrInternal, message, err)
}

// CodeOf returns the code of the first AppError in err's chain, or
// ErrInternal.
func CodeOf(err error) string {
	var appErr *AppError
	if As(err, &appErr) {
		return appErr.Code()
	}
	return ErrInternal
}

// HasCode reports whether err carries code.
func HasCode(err error, code string) bool {
	return err != nil && CodeOf(err) == code
}
