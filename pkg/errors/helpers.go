package errors

import "net/http"

// Helper functions for common error types to simplify error creation

// NewValidationError creates a validation error
func NewValidationError(code, message string) *AppError {
	return New(code, ErrorTypeValidation, message, http.StatusBadRequest)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(code, message string) *AppError {
	return New(code, ErrorTypeNotFound, message, http.StatusNotFound)
}

// Common error codes as constants
const (
	CodeInternalError = "INTERNAL_ERROR"
)
