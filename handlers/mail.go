package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/socialsidekick/socialsidekick/backend/api/internal/mail"
	"github.com/socialsidekick/socialsidekick/backend/api/pkg/logger"
	"github.com/socialsidekick/socialsidekick/backend/api/pkg/middleware"
)

type MailHandler struct {
	svc *mail.Service
}

func NewMailHandler(svc *mail.Service) *MailHandler {
	return &MailHandler{svc: svc}
}

func (h *MailHandler) Register(rg *gin.RouterGroup) {
	m := rg.Group("/mail-campaigns")
	m.POST("", h.Create)
	m.GET("", h.List)
	m.POST("/:id/send", h.Send)
}

func (h *MailHandler) Create(c *gin.Context) {
	if h.svc == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Brevo API key not configured"})
		return
	}

	var req mail.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.CreatedBy = middleware.UserID(c)

	campaign, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, mail.ErrMissingName),
			errors.Is(err, mail.ErrMissingSubject),
			errors.Is(err, mail.ErrMissingContent),
			errors.Is(err, mail.ErrNoRecipients):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			var brevoErr *mail.BrevoError
			if errors.As(err, &brevoErr) {
				c.JSON(http.StatusBadGateway, gin.H{"error": "campaign creation failed", "details": brevoErr.Message})
				return
			}
			logger.Errorf("mail campaign create failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "campaign creation failed"})
		}
		return
	}
	c.JSON(http.StatusCreated, campaign)
}

func (h *MailHandler) List(c *gin.Context) {
	if h.svc == nil {
		c.JSON(http.StatusOK, gin.H{"campaigns": []mail.Campaign{}, "count": 0})
		return
	}

	campaigns, err := h.svc.List(c.Request.Context())
	if err != nil {
		logger.Errorf("mail campaign list failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "listing campaigns failed"})
		return
	}
	if campaigns == nil {
		campaigns = []mail.Campaign{}
	}
	c.JSON(http.StatusOK, gin.H{"campaigns": campaigns, "count": len(campaigns)})
}

func (h *MailHandler) Send(c *gin.Context) {
	if h.svc == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Brevo API key not configured"})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "campaign id must be numeric"})
		return
	}

	if err := h.svc.Send(c.Request.Context(), id); err != nil {
		var brevoErr *mail.BrevoError
		if errors.As(err, &brevoErr) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "send failed", "details": brevoErr.Message})
			return
		}
		logger.Errorf("mail campaign send failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "send failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "campaign sent"})
}
