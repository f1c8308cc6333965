package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/socialsidekick/socialsidekick/backend/api/internal/analytics"
	"github.com/socialsidekick/socialsidekick/backend/api/pkg/logger"
)

type AnalyticsHandler struct {
	svc *analytics.Service
}

func NewAnalyticsHandler(svc *analytics.Service) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc}
}

func (h *AnalyticsHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/analytics", h.Overview)
	a := rg.Group("/analytics")
	a.GET("/engagement", h.Engagement)
	a.GET("/reach", h.Reach)
	a.GET("/summary", h.Summary)
	a.GET("/growth", h.Growth)
}

// notConfigured reports 503 when Meta credentials were absent at startup.
func (h *AnalyticsHandler) notConfigured(c *gin.Context) bool {
	if h.svc == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "analytics not configured"})
		return true
	}
	return false
}

func (h *AnalyticsHandler) Overview(c *gin.Context) {
	if h.notConfigured(c) {
		return
	}
	out, err := h.svc.Overview(c.Request.Context())
	if err != nil {
		logger.Errorf("analytics overview failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analytics unavailable"})
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *AnalyticsHandler) Engagement(c *gin.Context) {
	if h.notConfigured(c) {
		return
	}
	out, err := h.svc.Engagement(c.Request.Context())
	if err != nil {
		logger.Errorf("analytics engagement failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analytics unavailable"})
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *AnalyticsHandler) Reach(c *gin.Context) {
	if h.notConfigured(c) {
		return
	}
	out, err := h.svc.Reach(c.Request.Context())
	if err != nil {
		logger.Errorf("analytics reach failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analytics unavailable"})
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *AnalyticsHandler) Summary(c *gin.Context) {
	if h.notConfigured(c) {
		return
	}
	out, err := h.svc.Summary(c.Request.Context())
	if err != nil {
		logger.Errorf("analytics summary failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analytics unavailable"})
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *AnalyticsHandler) Growth(c *gin.Context) {
	if h.notConfigured(c) {
		return
	}
	out, err := h.svc.Growth(c.Request.Context())
	if err != nil {
		logger.Errorf("analytics growth failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analytics unavailable"})
		return
	}
	c.JSON(http.StatusOK, out)
}
