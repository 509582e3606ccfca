package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"campus-venue/internal/dto"
	"campus-venue/internal/service"
	"campus-venue/pkg/response"
)

// AssistantHandler AI 助手 HTTP 处理器
type AssistantHandler struct {
	assistantSvc service.AssistantService
}

// NewAssistantHandler 创建 AssistantHandler
func NewAssistantHandler(assistantSvc service.AssistantService) *AssistantHandler {
	return &AssistantHandler{assistantSvc: assistantSvc}
}

// GetContext 查看当前提供给 AI 的上下文快照
// GET /api/v1/assistant/context
func (h *AssistantHandler) GetContext(c *gin.Context) {
	snapshot, err := h.assistantSvc.BuildContext(c.Request.Context(), time.Now())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, snapshot)
}

// Ask 向 AI 助手提问
// POST /api/v1/assistant/ask
func (h *AssistantHandler) Ask(c *gin.Context) {
	var req dto.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	result, err := h.assistantSvc.Ask(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrAssistantUnavailable) {
			response.Error(c, http.StatusBadGateway, 15001, "AI 助手暂不可用，请稍后重试")
			return
		}
		handleDomainError(c, err)
		return
	}

	response.OK(c, result)
}
