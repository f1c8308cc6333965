package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/socialsidekick/socialsidekick/backend/api/internal/posts"
	"github.com/socialsidekick/socialsidekick/backend/api/pkg/logger"
	"github.com/socialsidekick/socialsidekick/backend/api/pkg/middleware"
)

// Kicker wakes the publishing loop; the scheduler satisfies it.
type Kicker interface {
	Kick()
}

type PostsHandler struct {
	svc    *posts.Service
	kicker Kicker
}

func NewPostsHandler(svc *posts.Service, kicker Kicker) *PostsHandler {
	return &PostsHandler{svc: svc, kicker: kicker}
}

func (h *PostsHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/schedule-post", h.Schedule)
	p := rg.Group("/posts")
	p.GET("", h.List)
	p.GET("/:id", h.Get)
	p.PUT("/:id", h.Update)
	p.DELETE("/:id", h.Delete)
	p.POST("/:id/cancel", h.Cancel)
	p.GET("/:id/history", h.History)
}

type SchedulePostRequest struct {
	MediaURLs     []string `json:"media_urls" binding:"required"`
	MediaType     string   `json:"media_type"`
	StorageKeys   []string `json:"storage_keys"`
	Caption       string   `json:"caption"`
	ScheduledTime string   `json:"scheduled_time" binding:"required"`
	Username      string   `json:"username"`
	Instagram     bool     `json:"instagram"`
	Facebook      bool     `json:"facebook"`
}

func (h *PostsHandler) Schedule(c *gin.Context) {
	var req SchedulePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, immediate, err := h.svc.Create(c.Request.Context(), posts.CreateRequest{
		UserID:        middleware.UserID(c),
		Username:      req.Username,
		MediaURLs:     req.MediaURLs,
		MediaType:     req.MediaType,
		StorageKeys:   req.StorageKeys,
		Caption:       req.Caption,
		ScheduledTime: req.ScheduledTime,
		Instagram:     req.Instagram,
		Facebook:      req.Facebook,
	})
	if err != nil {
		switch {
		case errors.Is(err, posts.ErrNoMedia),
			errors.Is(err, posts.ErrNoPlatform),
			errors.Is(err, posts.ErrInvalidTime),
			errors.Is(err, posts.ErrBadScheduledTime):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Errorf("schedule post failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "scheduling failed"})
		}
		return
	}

	if immediate && h.kicker != nil {
		h.kicker.Kick()
	}

	c.JSON(http.StatusCreated, gin.H{
		"campaign_id": created[0].CampaignID,
		"posts":       created,
		"immediate":   immediate,
	})
}

// List returns the campaign-grouped view.
func (h *PostsHandler) List(c *gin.Context) {
	groups, err := h.svc.ListGrouped(c.Request.Context(), c.Query("username"))
	if err != nil {
		logger.Errorf("list posts failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "listing posts failed"})
		return
	}
	if groups == nil {
		groups = []posts.Campaign{}
	}
	c.JSON(http.StatusOK, gin.H{"posts": groups, "count": len(groups)})
}

func (h *PostsHandler) Get(c *gin.Context) {
	post, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.postError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

type UpdatePostRequest struct {
	Caption       *string `json:"caption"`
	ScheduledTime *string `json:"scheduled_time"`
}

func (h *PostsHandler) Update(c *gin.Context) {
	var req UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.svc.Update(c.Request.Context(), c.Param("id"), posts.UpdateRequest{
		Caption:       req.Caption,
		ScheduledTime: req.ScheduledTime,
	})
	if err != nil {
		h.postError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *PostsHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.postError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "post deleted"})
}

func (h *PostsHandler) Cancel(c *gin.Context) {
	if err := h.svc.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		h.postError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "post canceled"})
}

func (h *PostsHandler) History(c *gin.Context) {
	id := c.Param("id")
	history, err := h.svc.History(c.Request.Context(), id)
	if err != nil {
		logger.Errorf("post history failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "history lookup failed"})
		return
	}
	if history == nil {
		history = []posts.StatusHistory{}
	}
	c.JSON(http.StatusOK, gin.H{"post_id": id, "history": history})
}

func (h *PostsHandler) postError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, posts.ErrPostNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
	case errors.Is(err, posts.ErrNotCancelable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, posts.ErrInvalidTime), errors.Is(err, posts.ErrBadScheduledTime):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Errorf("post operation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "operation failed"})
	}
}
