package handlers

import (
	"context"
	"io"
	"mime"
	"net/http"
	"path"

	"github.com/gin-gonic/gin"

	"github.com/socialsidekick/socialsidekick/backend/api/internal/storage"
	"github.com/socialsidekick/socialsidekick/backend/api/pkg/logger"
)

// maxUploadBytes caps a single media upload. Instagram rejects videos over
// 100MB anyway.
const maxUploadBytes = 100 << 20

// MediaStore is the storage surface the handler consumes;
// *storage.MediaStorage satisfies it.
type MediaStore interface {
	UploadMedia(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (*storage.UploadResult, error)
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

type MediaHandler struct {
	store MediaStore
}

func NewMediaHandler(store MediaStore) *MediaHandler {
	return &MediaHandler{store: store}
}

func (h *MediaHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/upload-media", h.Upload)
	rg.GET("/media/*key", h.Download)
	rg.DELETE("/media/*key", h.Delete)
}

func (h *MediaHandler) Upload(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "media storage not configured"})
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field is required"})
		return
	}
	if header.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds the 100MB upload limit"})
		return
	}

	file, err := header.Open()
	if err != nil {
		logger.Errorf("upload open failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	result, err := h.store.UploadMedia(c.Request.Context(), header.Filename, file, header.Size, contentType)
	if err != nil {
		logger.Errorf("upload store failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"url":           result.URL,
		"key":           result.Key,
		"resource_type": result.ResourceType,
	})
}

// Download streams a stored object back to the caller. The frontend uses it
// to preview media that lives in a private bucket.
func (h *MediaHandler) Download(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "media storage not configured"})
		return
	}

	key := c.Param("key")
	if len(key) > 0 && key[0] == '/' {
		key = key[1:]
	}
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "media key is required"})
		return
	}

	rc, err := h.store.Download(c.Request.Context(), key)
	if err != nil {
		logger.Warnf("media download failed for %s: %v", key, err)
		c.JSON(http.StatusNotFound, gin.H{"error": "media not found"})
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		logger.Warnf("media download stream aborted for %s: %v", key, err)
	}
}

func (h *MediaHandler) Delete(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "media storage not configured"})
		return
	}

	key := c.Param("key")
	if len(key) > 0 && key[0] == '/' {
		key = key[1:]
	}
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "media key is required"})
		return
	}

	if err := h.store.Delete(c.Request.Context(), key); err != nil {
		logger.Errorf("media delete failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "media deleted"})
}
