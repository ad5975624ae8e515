/*
Package errs provides custom error types and application-level error code constants.

This file defines the CustomError struct, which implements the standard Go error interface
and includes a business code, a user-friendly message, the HTTP status that produced it,
optional field-level validation messages, and the underlying cause.
*/
package errs

import (
	"errors"
	"fmt"
	"strings"

	"schoolhub/internal/pkg/logx"
)

// CustomError is the custom error structure used throughout the application.
type CustomError struct {
	// Code is the business error code (see constants definition).
	Code int

	// Message is the user-friendly error description. Server-provided messages replace the template.
	Message string

	// Status is the HTTP status code of the response, or zero if none was received.
	Status int

	// ServerMessage is the message supplied by the backend, if any.
	ServerMessage string

	// Fields holds per-field validation messages for ErrValidationFailed.
	Fields map[string][]string

	// Cause is the underlying error (transport error, decode error), if any.
	Cause error
}

// Error implements the standard Go error interface.
func (e CustomError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("Error Code %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("Error Code %d (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// Unwrap exposes Cause to errors.Is and errors.As.
func (e CustomError) Unwrap() error {
	return e.Cause
}

// NewError constructs and returns a new *CustomError instance based on a predefined error code.
// The optional details parameter supplies printf-style arguments for the message template.
// If an unknown code is provided, it defaults to returning ErrUnknown.
func NewError(code int, details ...any) *CustomError {
	templateErr, ok := errorMap[code]

	if !ok {
		logx.Error(
			fmt.Errorf("attempted to create an error with an unknown code in errorMap"),
			"Unknown error code requested",
			"requested_code", code,
		)

		unknownErr := errorMap[ErrUnknown]
		return &CustomError{
			Code:    unknownErr.Code,
			Message: unknownErr.Message,
			Status:  unknownErr.Status,
		}
	}

	customErr := templateErr

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

// Wrap builds an error for code and records cause as the underlying error.
func Wrap(code int, cause error, details ...any) *CustomError {
	customErr := NewError(code, details...)
	customErr.Cause = cause
	return customErr
}

// WithStatus sets the HTTP status that produced the error.
func (e *CustomError) WithStatus(status int) *CustomError {
	e.Status = status
	return e
}

// WithMessage replaces the template message when msg is not empty.
func (e *CustomError) WithMessage(msg string) *CustomError {
	if msg != "" {
		e.Message = msg
	}
	return e
}

// WithServerMessage records a backend-supplied message and shows it in place of the template.
func (e *CustomError) WithServerMessage(msg string) *CustomError {
	e.ServerMessage = msg
	return e.WithMessage(msg)
}

// WithFields attaches field-level validation messages.
func (e *CustomError) WithFields(fields map[string][]string) *CustomError {
	e.Fields = fields
	return e
}

// As extracts the *CustomError from err's chain. It returns nil if not found.
func As(err error) *CustomError {
	var customErr *CustomError
	if errors.As(err, &customErr) {
		return customErr
	}
	return nil
}

// Code returns the business code carried by err, or ErrUnknown for foreign errors.
func Code(err error) int {
	if customErr := As(err); customErr != nil {
		return customErr.Code
	}
	return ErrUnknown
}

// Is reports whether err carries the given business code.
func Is(err error, code int) bool {
	return err != nil && Code(err) == code
}
