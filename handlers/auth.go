package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/socialsidekick/socialsidekick/backend/api/internal/sessions"
	"github.com/socialsidekick/socialsidekick/backend/api/internal/users"
	"github.com/socialsidekick/socialsidekick/backend/api/pkg/logger"
	"github.com/socialsidekick/socialsidekick/backend/api/pkg/middleware"
)

type CredentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthHandler holds dependencies
type AuthHandler struct {
	usersSvc    *users.Service
	sessionsSvc *sessions.Service
}

func NewAuthHandler(u *users.Service, s *sessions.Service) *AuthHandler {
	return &AuthHandler{usersSvc: u, sessionsSvc: s}
}

// Register routes under /api/auth
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	a := rg.Group("/auth")
	a.POST("/register", h.RegisterUser)
	a.POST("/login", h.Login)
	a.GET("/verify", h.Verify)
	a.POST("/logout", h.Logout)
}

// Resolve implements middleware.SessionResolver on top of the session and
// user services.
func (h *AuthHandler) Resolve(ctx context.Context, sessionID string) (*middleware.AuthedUser, error) {
	sess, err := h.sessionsSvc.Validate(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}
	user, err := h.usersSvc.GetByID(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}
	return &middleware.AuthedUser{ID: user.ID, Email: user.Email}, nil
}

func (h *AuthHandler) RegisterUser(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.usersSvc.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrEmailTaken):
			c.JSON(http.StatusConflict, gin.H{"error": "An account with this email already exists. Please try logging in instead."})
		case errors.Is(err, users.ErrInvalidEmail):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Please enter a valid email address."})
		case errors.Is(err, users.ErrWeakPassword):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 6 characters long."})
		default:
			logger.Errorf("register failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		}
		return
	}

	sid, err := h.sessionsSvc.CreateSession(c.Request.Context(), user.ID, sessions.DefaultTTL)
	if err != nil {
		logger.Errorf("session create failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration succeeded but session creation failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"session_id": sid,
		"user":       gin.H{"id": user.ID, "email": user.Email},
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please enter both email and password."})
		return
	}

	user, err := h.usersSvc.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrUnknownEmail):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "No account found with this email address. Please check your email or sign up for a new account."})
		case errors.Is(err, users.ErrWrongPassword):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect password. Please try again."})
		case errors.Is(err, users.ErrMissingCredentials):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Please enter both email and password."})
		default:
			logger.Errorf("login failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		}
		return
	}

	sid, err := h.sessionsSvc.CreateSession(c.Request.Context(), user.ID, sessions.DefaultTTL)
	if err != nil {
		logger.Errorf("session create failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login succeeded but session creation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": sid,
		"user":       gin.H{"id": user.ID, "email": user.Email},
	})
}

// Verify reports whether the presented session is still valid.
func (h *AuthHandler) Verify(c *gin.Context) {
	sid := c.GetHeader("X-Session-ID")
	if sid == "" {
		sid = c.Query("session_id")
	}
	if sid == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"valid": false, "error": "missing session_id"})
		return
	}

	user, err := h.Resolve(c.Request.Context(), sid)
	if err != nil {
		logger.Errorf("session verify failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"valid": false, "error": "verification failed"})
		return
	}
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"valid": false, "error": "invalid or expired session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"user":  gin.H{"id": user.ID, "email": user.Email},
	})
}

// Logout deletes the session when one is presented. It always succeeds so a
// client with a stale session id still ends up logged out.
func (h *AuthHandler) Logout(c *gin.Context) {
	sid := c.GetHeader("X-Session-ID")
	if sid == "" {
		sid = c.Query("session_id")
	}
	if sid != "" {
		if err := h.sessionsSvc.Delete(c.Request.Context(), sid); err != nil {
			logger.Warnf("logout: session delete failed: %v", err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}
