// Package errors provides the structured error type used across replytune.
// Errors carry a stable code, a category, and the HTTP status the API layer
// should answer with, and they unwrap to their cause.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeValidation indicates invalid input or parameters
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeNotFound indicates resource not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeConflict indicates the request clashes with the current resource state
	ErrorTypeConflict ErrorType = "CONFLICT"

	// ErrorTypeConfiguration indicates a malformed or inconsistent configuration
	ErrorTypeConfiguration ErrorType = "CONFIGURATION"

	// ErrorTypeGeneration indicates the text generation backend failed
	ErrorTypeGeneration ErrorType = "GENERATION"

	// ErrorTypeInfrastructure indicates infrastructure/external service error
	ErrorTypeInfrastructure ErrorType = "INFRASTRUCTURE"

	// ErrorTypeInternal indicates unexpected internal error
	ErrorTypeInternal ErrorType = "INTERNAL"

	// ErrorTypeRateLimited indicates rate limit exceeded
	ErrorTypeRateLimited ErrorType = "RATE_LIMITED"

	// ErrorTypeTimeout indicates operation timeout
	ErrorTypeTimeout ErrorType = "TIMEOUT"
)

// AppError represents a structured application error
type AppError struct {
	// Code is the error code (e.g., "TRAIN_001")
	Code string `json:"code"`

	// Type categorizes the error
	Type ErrorType `json:"type"`

	// Message is the human-readable error message
	Message string `json:"message"`

	// HTTPStatus is the corresponding HTTP status code
	HTTPStatus int `json:"-"`

	// Details contains additional error context
	Details map[string]interface{} `json:"details,omitempty"`

	// Cause is the underlying error
	Cause error `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error chain unwrapping
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails adds additional context to the error
func (e *AppError) WithDetails(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithCause wraps an underlying error
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// New creates a new AppError
func New(code string, errType ErrorType, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Type:       errType,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Newf creates a new AppError with formatted message
func Newf(code string, errType ErrorType, httpStatus int, format string, args ...interface{}) *AppError {
	return New(code, errType, fmt.Sprintf(format, args...), httpStatus)
}

// Wrap wraps an existing error with AppError context. The category and
// status of a wrapped AppError are preserved.
func Wrap(err error, code string, message string) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:       code,
			Type:       appErr.Type,
			Message:    message,
			HTTPStatus: appErr.HTTPStatus,
			Cause:      err,
		}
	}

	return &AppError{
		Code:       code,
		Type:       ErrorTypeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Cause:      err,
	}
}

// Is checks if an error, or any error it wraps, carries the given code
func Is(err error, code string) bool {
	for err != nil {
		if appErr, ok := err.(*AppError); ok && appErr.Code == code {
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}

// IsType checks if an error matches a specific type
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return false
	}
	return appErr.Type == errType
}

// GetCode extracts the error code from an error
func GetCode(err error) string {
	if err == nil {
		return ""
	}

	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return "UNKNOWN"
	}
	return appErr.Code
}

// GetHTTPStatus extracts the HTTP status code from an error
func GetHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var appErr *AppError
	if !stderrors.As(err, &appErr) || appErr.HTTPStatus == 0 {
		return http.StatusInternalServerError
	}
	return appErr.HTTPStatus
}

// InfrastructureError wraps a failure of an external service
func InfrastructureError(service string, err error) *AppError {
	appErr := Wrap(err, "INFRASTRUCTURE_ERROR", fmt.Sprintf("Infrastructure service '%s' error", service))
	if appErr != nil && appErr.Type == ErrorTypeInternal {
		appErr.Type = ErrorTypeInfrastructure
		appErr.HTTPStatus = http.StatusBadGateway
	}
	return appErr
}

//Personal.AI order the ending
