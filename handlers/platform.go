package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/socialsidekick/socialsidekick/backend/api/internal/analytics"
	"github.com/socialsidekick/socialsidekick/backend/api/internal/config"
	"github.com/socialsidekick/socialsidekick/backend/api/internal/posts"
	"github.com/socialsidekick/socialsidekick/backend/api/pkg/logger"
)

// dashboardRecentPosts caps the posts panel of the dashboard payload.
const dashboardRecentPosts = 10

type PlatformHandler struct {
	cfg          *config.Config
	postsSvc     *posts.Service
	analyticsSvc *analytics.Service
	mediaReady   bool
}

func NewPlatformHandler(cfg *config.Config, p *posts.Service, a *analytics.Service, mediaReady bool) *PlatformHandler {
	return &PlatformHandler{cfg: cfg, postsSvc: p, analyticsSvc: a, mediaReady: mediaReady}
}

func (h *PlatformHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/dashboard", h.Dashboard)
	rg.GET("/config/status", h.ConfigStatus)
}

// Dashboard bundles the landing page payload into one response so the
// frontend needs a single request.
func (h *PlatformHandler) Dashboard(c *gin.Context) {
	out := gin.H{}

	if h.analyticsSvc != nil {
		if summary, err := h.analyticsSvc.Summary(c.Request.Context()); err != nil {
			logger.Warnf("dashboard: analytics summary unavailable: %v", err)
			out["analytics"] = nil
		} else {
			out["analytics"] = summary
		}
	}

	groups, err := h.postsSvc.ListGrouped(c.Request.Context(), "")
	if err != nil {
		logger.Errorf("dashboard: posts listing failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "dashboard unavailable"})
		return
	}
	if len(groups) > dashboardRecentPosts {
		groups = groups[:dashboardRecentPosts]
	}
	out["recent_posts"] = groups

	counts := map[posts.Status]int{}
	for _, g := range groups {
		counts[g.Status]++
	}
	out["status_counts"] = counts

	c.JSON(http.StatusOK, out)
}

// ConfigStatus reports which integrations carry credentials, without leaking
// any of them.
func (h *PlatformHandler) ConfigStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"meta_configured":    h.cfg.Meta.AccessToken != "" && h.cfg.Meta.PageID != "",
		"gemini_configured":  h.cfg.Gemini.APIKey != "",
		"brevo_configured":   h.cfg.Brevo.APIKey != "",
		"storage_configured": h.mediaReady,
		"environment":        h.cfg.Server.Environment,
	})
}
