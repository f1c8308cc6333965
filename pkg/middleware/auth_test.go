package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type staticResolver struct {
	sessions map[string]*AuthedUser
	err      error
}

func (s *staticResolver) Resolve(_ context.Context, sid string) (*AuthedUser, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.sessions[sid], nil
}

func authedRouter(resolver SessionResolver) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SessionAuth(resolver))
	r.GET("/me", func(c *gin.Context) {
		c.JSON(200, gin.H{"user_id": UserID(c)})
	})
	return r
}

func TestSessionAuthHeaderAndQuery(t *testing.T) {
	r := authedRouter(&staticResolver{sessions: map[string]*AuthedUser{
		"sid-1": {ID: "u1", Email: "a@b.c"},
	}})

	// header variant
	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("X-Session-ID", "sid-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"user_id":"u1"`)

	// query variant
	req2 := httptest.NewRequest("GET", "/me?session_id=sid-1", nil)
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req2)
	require.Equal(t, http.StatusOK, w2.Code)
}

func TestSessionAuthMissingSession(t *testing.T) {
	r := authedRouter(&staticResolver{})

	req := httptest.NewRequest("GET", "/me", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "missing session_id")
}

func TestSessionAuthUnknownSession(t *testing.T) {
	r := authedRouter(&staticResolver{sessions: map[string]*AuthedUser{}})

	req := httptest.NewRequest("GET", "/me?session_id=nope", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "invalid or expired session")
}

func TestSessionAuthResolverError(t *testing.T) {
	r := authedRouter(&staticResolver{err: errors.New("mongo down")})

	req := httptest.NewRequest("GET", "/me?session_id=sid", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "session lookup failed")
}
