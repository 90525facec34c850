package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"lemuria/internal/pkg/logx"
)

// CustomError is the custom error structure used throughout the application.
// It carries a business code, a user-facing message, the HTTP status to answer with,
// and optionally the underlying error that caused it.
type CustomError struct {
	// Code is the business error code (see constants definition).
	Code int

	// Message is the user-friendly error description.
	Message string

	// Status is the standard HTTP status code corresponding to this error.
	Status int

	// Cause is the internal error this one was derived from. It is never sent to clients.
	Cause error
}

// Error implements the standard Go error interface.
func (e *CustomError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("error code %d (HTTP %d): %s: %v", e.Code, e.Status, e.Message, e.Cause)
	}
	return fmt.Sprintf("error code %d (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// Unwrap exposes Cause to errors.Is and errors.As.
func (e *CustomError) Unwrap() error {
	return e.Cause
}

// WithCause returns a copy of e that wraps cause.
func (e *CustomError) WithCause(cause error) *CustomError {
	c := *e
	c.Cause = cause
	return &c
}

// NewError constructs a *CustomError from a predefined code. Details are printf arguments
// for templates containing a verb. An unknown code yields ErrUnknown.
func NewError(code int, details ...any) *CustomError {
	templateErr, ok := errorMap[code]

	if !ok {
		logx.Error(
			fmt.Errorf("attempted to create an error with an unknown code in errorMap"),
			"Unknown error code requested",
			"requested_code", code,
		)

		unknownErr := errorMap[ErrUnknown]
		return &unknownErr
	}

	customErr := templateErr

	if customErr.Status == 0 {
		customErr.Status = http.StatusBadRequest
	}

	if len(details) > 0 {
		if strings.Contains(customErr.Message, "%") {
			customErr.Message = fmt.Sprintf(customErr.Message, details...)
		} else {
			logx.Warn(
				"Details provided for error, but message template has no formatting placeholders. Details ignored.",
				"code", code,
			)
		}
	}

	return &customErr
}

// From converts any error into a *CustomError. Errors that already are (or wrap) a
// *CustomError are returned as is; everything else becomes ErrUnknown with err as Cause.
func From(err error) *CustomError {
	if err == nil {
		return nil
	}

	var customErr *CustomError
	if errors.As(err, &customErr) {
		return customErr
	}

	return NewError(ErrUnknown).WithCause(err)
}
