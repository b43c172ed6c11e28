// Package errors provides the application error taxonomy.
// It separates validation, connection, provisioning and export failures so callers
// can decide what is fatal to an operation and what is only summarized.
package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "validation_error"
	ErrorTypeConnection   ErrorType = "connection_error"
	ErrorTypeProvisioning ErrorType = "provisioning_error"
	ErrorTypeExport       ErrorType = "export_error"
	ErrorTypeUnavailable  ErrorType = "unavailable"
)

// ErrFeatureUnavailable is returned when an optional external engine
// (for example the office suite used for PDF rendering) is not installed.
var ErrFeatureUnavailable = &AppError{
	Type:    ErrorTypeUnavailable,
	Message: "feature unavailable",
}

// AppError represents an application error with additional context
type AppError struct {
	Type    ErrorType
	Message string
	Details string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.Details != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Details)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AppError of the same type and message.
// It lets errors.Is match sentinels such as ErrFeatureUnavailable through wrapping.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Type == e.Type && t.Message == e.Message
}

func newError(t ErrorType, message string, details []string) *AppError {
	detail := ""
	if len(details) > 0 {
		detail = details[0]
	}
	return &AppError{Type: t, Message: message, Details: detail}
}

// NewValidationError creates a new validation error
func NewValidationError(message string, details ...string) *AppError {
	return newError(ErrorTypeValidation, message, details)
}

// NewConnectionError wraps a transport or authentication failure.
func NewConnectionError(message string, err error) *AppError {
	e := newError(ErrorTypeConnection, message, nil)
	e.Err = err
	return e
}

// NewProvisioningError describes a failed remote command for a single record.
func NewProvisioningError(message string, details ...string) *AppError {
	return newError(ErrorTypeProvisioning, message, details)
}

// NewExportError wraps a failure while producing an output document.
func NewExportError(message string, err error) *AppError {
	e := newError(ErrorTypeExport, message, nil)
	e.Err = err
	return e
}

// Unavailable returns ErrFeatureUnavailable annotated with what is missing.
func Unavailable(details string) *AppError {
	return &AppError{
		Type:    ErrorTypeUnavailable,
		Message: ErrFeatureUnavailable.Message,
		Details: details,
	}
}

// IsAppError checks if the error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from error
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsType reports whether err carries an AppError of type t.
func IsType(err error, t ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == t
}
