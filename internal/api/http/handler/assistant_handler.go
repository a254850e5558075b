// internal/api/http/handler/assistant_handler.go
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openeeap/replytune/internal/app/dto"
	"github.com/openeeap/replytune/internal/app/service"
	"github.com/openeeap/replytune/internal/observability/logging"
)

// AssistantHandler handles scoring and reply requests
type AssistantHandler struct {
	assistant service.AssistantService
	logger    logging.Logger
}

// NewAssistantHandler creates a new AssistantHandler instance
func NewAssistantHandler(assistant service.AssistantService, logger logging.Logger) *AssistantHandler {
	return &AssistantHandler{assistant: assistant, logger: logger}
}

// Score handles POST /api/v1/score
// @Summary Score a reply
// @Tags assistant
// @Accept json
// @Produce json
// @Param request body dto.ScoreRequest true "Text to score"
// @Success 200 {object} dto.ScoreResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/score [post]
func (h *AssistantHandler) Score(c *gin.Context) {
	var req dto.ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	breakdown := h.assistant.Score(c.Request.Context(), req.Text)
	c.JSON(http.StatusOK, dto.NewScoreResponse(breakdown))
}

// Reply handles POST /api/v1/reply
// @Summary Generate and score a reply to an email
// @Tags assistant
// @Accept json
// @Produce json
// @Param request body dto.ReplyRequest true "Incoming email"
// @Success 200 {object} dto.ReplyResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/reply [post]
func (h *AssistantHandler) Reply(c *gin.Context) {
	var req dto.ReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result := h.assistant.Reply(c.Request.Context(), req.Email)
	c.JSON(http.StatusOK, result.ToResponse())
}

//Personal.AI order the ending
