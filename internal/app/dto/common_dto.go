package dto

import (
	"fmt"
	"time"
)

// ErrorResponse 错误响应
type ErrorResponse struct {
	Code      int       `json:"code" example:"400"`
	ErrorCode string    `json:"error_code,omitempty" example:"TRAIN_004"`
	Message   string    `json:"message" example:"Bad request"`
	Details   string    `json:"details,omitempty" example:"Invalid input parameter"`
	RequestID string    `json:"request_id,omitempty" example:"req-123"`
	Timestamp time.Time `json:"timestamp" example:"2026-01-15T10:00:00Z"`
}

// Error implements the error interface for ErrorResponse
func (e *ErrorResponse) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%d] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(code int, message string, details string) *ErrorResponse {
	return &ErrorResponse{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now(),
	}
}

// WithRequestID 设置请求 ID
func (e *ErrorResponse) WithRequestID(requestID string) *ErrorResponse {
	e.RequestID = requestID
	return e
}

// WithErrorCode 设置业务错误码
func (e *ErrorResponse) WithErrorCode(code string) *ErrorResponse {
	e.ErrorCode = code
	return e
}

// HealthCheckResponse 健康检查响应
type HealthCheckResponse struct {
	Status    string                 `json:"status" example:"healthy"`
	Version   string                 `json:"version" example:"1.0.0"`
	Timestamp time.Time              `json:"timestamp" example:"2026-01-15T10:00:00Z"`
	Checks    map[string]CheckStatus `json:"checks,omitempty"`
}

// CheckStatus 检查状态
type CheckStatus struct {
	Status  string `json:"status" example:"healthy"`
	Message string `json:"message,omitempty" example:"Database connection is healthy"`
	Latency int64  `json:"latency,omitempty" example:"5"`
}

// VersionResponse 版本信息响应
type VersionResponse struct {
	Version   string `json:"version" example:"1.0.0"`
	GitCommit string `json:"git_commit" example:"abc123def456"`
	BuildTime string `json:"build_time" example:"2026-01-15T10:00:00Z"`
	GoVersion string `json:"go_version" example:"go1.24.0"`
}

//Personal.AI order the ending
