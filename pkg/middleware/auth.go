package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AuthedUser is the authenticated principal placed in the request context.
type AuthedUser struct {
	ID    string
	Email string
}

// SessionResolver turns an opaque session id into the user it belongs to.
// Returns (nil, nil) for unknown or expired sessions.
type SessionResolver interface {
	Resolve(ctx context.Context, sessionID string) (*AuthedUser, error)
}

// sessionID extracts the client's session id. The query parameter came
// first historically; the header is preferred for new clients.
func sessionID(c *gin.Context) string {
	if sid := c.GetHeader("X-Session-ID"); sid != "" {
		return sid
	}
	return c.Query("session_id")
}

// SessionAuth returns a Gin middleware that resolves the session id into a
// user and aborts with 401 when it cannot.
func SessionAuth(resolver SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid := sessionID(c)
		if sid == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing session_id"})
			return
		}

		user, err := resolver.Resolve(c.Request.Context(), sid)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session lookup failed", "details": err.Error()})
			return
		}
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired session"})
			return
		}

		c.Set("userID", user.ID)
		c.Set("user", user)
		c.Next()
	}
}

// UserID returns the authenticated user id, empty on unauthenticated routes.
func UserID(c *gin.Context) string {
	return c.GetString("userID")
}
