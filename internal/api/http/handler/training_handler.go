// internal/api/http/handler/training_handler.go
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openeeap/replytune/internal/app/dto"
	"github.com/openeeap/replytune/internal/app/service"
)

// TrainingHandler exposes training run history
type TrainingHandler struct {
	training service.TrainingService
}

// NewTrainingHandler creates a new TrainingHandler instance
func NewTrainingHandler(training service.TrainingService) *TrainingHandler {
	return &TrainingHandler{training: training}
}

// ListRuns handles GET /api/v1/runs
// @Summary List recent training runs
// @Tags training
// @Produce json
// @Param limit query int false "Maximum runs (1-100)"
// @Success 200 {object} dto.RunListResponse
// @Router /api/v1/runs [get]
func (h *TrainingHandler) ListRuns(c *gin.Context) {
	var req dto.ListRunsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}

	runs, err := h.training.ListRuns(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, runs)
}

// GetRun handles GET /api/v1/runs/:id
// @Summary Get a training run with its epoch history
// @Tags training
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} dto.RunResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/runs/{id} [get]
func (h *TrainingHandler) GetRun(c *gin.Context) {
	run, err := h.training.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

//Personal.AI order the ending
