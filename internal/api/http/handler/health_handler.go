// internal/api/http/handler/health_handler.go
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openeeap/replytune/internal/app/dto"
)

// HealthCheck probes one dependency
type HealthCheck func(ctx context.Context) error

// HealthHandler reports service and dependency health
type HealthHandler struct {
	version string
	checks  map[string]HealthCheck
}

// NewHealthHandler creates a new HealthHandler instance
func NewHealthHandler(version string, checks map[string]HealthCheck) *HealthHandler {
	if checks == nil {
		checks = map[string]HealthCheck{}
	}
	return &HealthHandler{version: version, checks: checks}
}

// Version returns the reported service version
func (h *HealthHandler) Version() string {
	return h.version
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	resp := dto.HealthCheckResponse{
		Status:    "healthy",
		Version:   h.version,
		Timestamp: time.Now().UTC(),
		Checks:    make(map[string]dto.CheckStatus, len(h.checks)),
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	for name, check := range h.checks {
		start := time.Now()
		err := check(ctx)
		cs := dto.CheckStatus{Status: "healthy", Latency: time.Since(start).Milliseconds()}
		if err != nil {
			cs.Status = "unhealthy"
			cs.Message = err.Error()
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
		resp.Checks[name] = cs
	}

	c.JSON(status, resp)
}

//Personal.AI order the ending
