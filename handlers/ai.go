package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/socialsidekick/socialsidekick/backend/api/internal/ai"
	"github.com/socialsidekick/socialsidekick/backend/api/pkg/logger"
)

type AIHandler struct {
	svc *ai.Service
}

func NewAIHandler(svc *ai.Service) *AIHandler {
	return &AIHandler{svc: svc}
}

func (h *AIHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/generate-captions", h.GenerateCaptions)
	rg.POST("/generate-calendar", h.GenerateCalendar)
}

func (h *AIHandler) GenerateCaptions(c *gin.Context) {
	if h.svc == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Gemini API key not configured"})
		return
	}

	var req ai.CaptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.svc.GenerateCaptions(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *AIHandler) GenerateCalendar(c *gin.Context) {
	if h.svc == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Gemini API key not configured"})
		return
	}

	var req ai.CalendarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.svc.GenerateCalendar(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ai.ErrBadMonth),
			errors.Is(err, ai.ErrBadDayCount),
			errors.Is(err, ai.ErrNoFoodStyle):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Errorf("calendar generation failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Content calendar generation failed", "details": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, result)
}
