// Package errors defines error code constants for replytune.
// Each error code includes a unique identifier, HTTP status code,
// and message template for consistent error handling.
package errors

import "net/http"

// ErrorCode represents a structured error code definition
type ErrorCode struct {
	Code       string
	Type       ErrorType
	HTTPStatus int
	Message    string
}

// ============================================================================
// Training Errors (TRAIN_xxx)
// ============================================================================

var (
	// ErrTrainInvalidConfig indicates malformed trainer hyperparameters
	ErrTrainInvalidConfig = ErrorCode{
		Code:       "TRAIN_001",
		Type:       ErrorTypeConfiguration,
		HTTPStatus: http.StatusBadRequest,
		Message:    "Invalid training configuration: %s",
	}

	// ErrTrainAdvantageInput indicates rewards and values do not line up
	ErrTrainAdvantageInput = ErrorCode{
		Code:       "TRAIN_002",
		Type:       ErrorTypeValidation,
		HTTPStatus: http.StatusBadRequest,
		Message:    "Advantage estimation requires equal-length non-empty inputs (rewards=%d, values=%d)",
	}

	// ErrTrainDistributionMismatch indicates probability vectors of different shapes
	ErrTrainDistributionMismatch = ErrorCode{
		Code:       "TRAIN_003",
		Type:       ErrorTypeValidation,
		HTTPStatus: http.StatusBadRequest,
		Message:    "Probability distributions differ in length (old=%d, new=%d)",
	}

	// ErrTrainEmptyDataset indicates there is nothing to train on
	ErrTrainEmptyDataset = ErrorCode{
		Code:       "TRAIN_004",
		Type:       ErrorTypeValidation,
		HTTPStatus: http.StatusBadRequest,
		Message:    "Training dataset is empty",
	}

	// ErrTrainSnapshotFailed indicates the policy snapshot could not be written
	ErrTrainSnapshotFailed = ErrorCode{
		Code:       "TRAIN_005",
		Type:       ErrorTypeInfrastructure,
		HTTPStatus: http.StatusInternalServerError,
		Message:    "Failed to save policy snapshot '%s'",
	}

	// ErrTrainPolicyFrozen indicates an update was attempted in eval mode
	ErrTrainPolicyFrozen = ErrorCode{
		Code:       "TRAIN_006",
		Type:       ErrorTypeValidation,
		HTTPStatus: http.StatusConflict,
		Message:    "Policy is in eval mode",
	}

	// ErrTrainRunInProgress indicates another training run holds the trainer
	ErrTrainRunInProgress = ErrorCode{
		Code:       "TRAIN_007",
		Type:       ErrorTypeConflict,
		HTTPStatus: http.StatusConflict,
		Message:    "A training run is already in progress",
	}
)

// ============================================================================
// Generation Errors (GEN_xxx)
// ============================================================================

var (
	// ErrGenerationFailed indicates the generation backend could not produce text
	ErrGenerationFailed = ErrorCode{
		Code:       "GEN_001",
		Type:       ErrorTypeGeneration,
		HTTPStatus: http.StatusBadGateway,
		Message:    "Reply generation failed",
	}

	// ErrGenerationMalformed indicates the backend answered without usable content
	ErrGenerationMalformed = ErrorCode{
		Code:       "GEN_002",
		Type:       ErrorTypeGeneration,
		HTTPStatus: http.StatusBadGateway,
		Message:    "Malformed generation response: %s",
	}

	// ErrGenerationRateLimited indicates the client-side limiter rejected the call
	ErrGenerationRateLimited = ErrorCode{
		Code:       "GEN_003",
		Type:       ErrorTypeRateLimited,
		HTTPStatus: http.StatusTooManyRequests,
		Message:    "Generation rate limit exceeded",
	}
)

// ============================================================================
// Infrastructure Errors
// ============================================================================

var (
	// ErrDBQueryFailed indicates database query failed
	ErrDBQueryFailed = ErrorCode{
		Code:       "DB_002",
		Type:       ErrorTypeInfrastructure,
		HTTPStatus: http.StatusInternalServerError,
		Message:    "Database query failed",
	}

	// ErrCacheReadFailed indicates cache read operation failed
	ErrCacheReadFailed = ErrorCode{
		Code:       "CACHE_001",
		Type:       ErrorTypeInfrastructure,
		HTTPStatus: http.StatusInternalServerError,
		Message:    "Cache read failed",
	}

	// ErrCacheWriteFailed indicates cache write operation failed
	ErrCacheWriteFailed = ErrorCode{
		Code:       "CACHE_002",
		Type:       ErrorTypeInfrastructure,
		HTTPStatus: http.StatusInternalServerError,
		Message:    "Cache write failed",
	}

	// ErrStorageUploadFailed indicates object upload failed
	ErrStorageUploadFailed = ErrorCode{
		Code:       "STOR_001",
		Type:       ErrorTypeInfrastructure,
		HTTPStatus: http.StatusInternalServerError,
		Message:    "Object upload failed",
	}

	// ErrStorageNotFound indicates the object does not exist
	ErrStorageNotFound = ErrorCode{
		Code:       "STOR_003",
		Type:       ErrorTypeNotFound,
		HTTPStatus: http.StatusNotFound,
		Message:    "Object not found in storage",
	}

	// ErrMQPublishFailed indicates an event could not be published
	ErrMQPublishFailed = ErrorCode{
		Code:       "MQ_001",
		Type:       ErrorTypeInfrastructure,
		HTTPStatus: http.StatusInternalServerError,
		Message:    "Message publish failed",
	}
)

// ============================================================================
// Internal System Errors (SYS_xxx)
// ============================================================================

var (
	// ErrSysInternalError indicates unexpected internal error
	ErrSysInternalError = ErrorCode{
		Code:       "SYS_001",
		Type:       ErrorTypeInternal,
		HTTPStatus: http.StatusInternalServerError,
		Message:    "Internal server error",
	}

	// ErrSysTimeout indicates operation timed out
	ErrSysTimeout = ErrorCode{
		Code:       "SYS_003",
		Type:       ErrorTypeTimeout,
		HTTPStatus: http.StatusGatewayTimeout,
		Message:    "Operation timed out",
	}

	// ErrSysConfigurationError indicates system configuration error
	ErrSysConfigurationError = ErrorCode{
		Code:       "SYS_004",
		Type:       ErrorTypeConfiguration,
		HTTPStatus: http.StatusInternalServerError,
		Message:    "System configuration error: %s",
	}
)

// ============================================================================
// API Errors (API_xxx)
// ============================================================================

var (
	// ErrAPIInvalidRequest indicates a request body or query that failed binding
	ErrAPIInvalidRequest = ErrorCode{
		Code:       "API_001",
		Type:       ErrorTypeValidation,
		HTTPStatus: http.StatusBadRequest,
		Message:    "Invalid request: %s",
	}

	// ErrAPIRateLimited indicates a client exceeded its request budget
	ErrAPIRateLimited = ErrorCode{
		Code:       "API_002",
		Type:       ErrorTypeRateLimited,
		HTTPStatus: http.StatusTooManyRequests,
		Message:    "Rate limit exceeded",
	}
)

// NewFromCode creates an AppError from an ErrorCode
func NewFromCode(ec ErrorCode) *AppError {
	return New(ec.Code, ec.Type, ec.Message, ec.HTTPStatus)
}

// NewFromCodef creates an AppError from an ErrorCode with formatted message
func NewFromCodef(ec ErrorCode, args ...interface{}) *AppError {
	return Newf(ec.Code, ec.Type, ec.HTTPStatus, ec.Message, args...)
}

// WrapFromCode wraps err with the code, category and status of ec
func WrapFromCode(err error, ec ErrorCode, args ...interface{}) *AppError {
	appErr := NewFromCodef(ec, args...)
	appErr.Cause = err
	return appErr
}

//Personal.AI order the ending
