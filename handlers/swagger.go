package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>socialsidekick-api — Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// Minimal OpenAPI document describing the main endpoints.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "socialsidekick-api", "version": "v0.1.0" },
  "paths": {
    "/api/auth/register": {
      "post": { "summary": "Create an account", "responses": { "201": { "description": "session created" }, "409": { "description": "email already registered" } } }
    },
    "/api/auth/login": {
      "post": { "summary": "Log in with email and password", "responses": { "200": { "description": "session created" }, "401": { "description": "bad credentials" } } }
    },
    "/api/auth/verify": {
      "get": { "summary": "Check a session id", "responses": { "200": { "description": "session valid" }, "401": { "description": "session invalid" } } }
    },
    "/api/auth/logout": {
      "post": { "summary": "Delete the presented session", "responses": { "200": { "description": "logged out" } } }
    },
    "/api/upload-media": {
      "post": { "summary": "Upload one media file", "responses": { "201": { "description": "stored; returns url, key and resource_type" } } }
    },
    "/api/schedule-post": {
      "post": { "summary": "Schedule a post to one or both platforms", "responses": { "201": { "description": "per-platform records created" }, "400": { "description": "invalid request" } } }
    },
    "/api/posts": {
      "get": { "summary": "List posts grouped into campaigns", "responses": { "200": { "description": "campaign list, newest first" } } }
    },
    "/api/posts/{id}/history": {
      "get": { "summary": "Status transition history of one post", "responses": { "200": { "description": "history entries, newest first" } } }
    },
    "/api/analytics": {
      "get": { "summary": "Cross-platform analytics overview", "responses": { "200": { "description": "per-platform stats, cached for 5 minutes" } } }
    },
    "/api/generate-captions": {
      "post": { "summary": "Generate AI caption variants", "responses": { "200": { "description": "captions, possibly fallback" } } }
    },
    "/api/generate-calendar": {
      "post": { "summary": "Generate a monthly content calendar", "responses": { "200": { "description": "calendar entries" }, "400": { "description": "invalid month, day count or food styles" } } }
    },
    "/api/mail-campaigns": {
      "post": { "summary": "Create an email campaign", "responses": { "201": { "description": "campaign drafted" } } },
      "get": { "summary": "List email campaigns", "responses": { "200": { "description": "campaigns, newest first" } } }
    }
  }
}`
