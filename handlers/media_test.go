package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/socialsidekick/socialsidekick/backend/api/internal/storage"
)

type fakeMediaStore struct {
	uploaded []string
	deleted  []string
	objects  map[string][]byte
	err      error
}

func (f *fakeMediaStore) UploadMedia(_ context.Context, filename string, reader io.Reader, _ int64, contentType string) (*storage.UploadResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return nil, err
	}
	f.uploaded = append(f.uploaded, filename)
	return &storage.UploadResult{
		Key:          "image/2026/08/abc.jpg",
		URL:          "https://media.example/image/2026/08/abc.jpg",
		ResourceType: storage.ResourceType(contentType),
	}, nil
}

func (f *fakeMediaStore) Download(_ context.Context, key string) (io.ReadCloser, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeMediaStore) Delete(_ context.Context, key string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, key)
	return nil
}

func mediaTestRouter(store MediaStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api")
	NewMediaHandler(store).Register(api)
	return r
}

func multipartUpload(t *testing.T, field, filename, contentType string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(map[string][]string)
	hdr["Content-Disposition"] = []string{`form-data; name="` + field + `"; filename="` + filename + `"`}
	hdr["Content-Type"] = []string{contentType}
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(payload)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadMedia(t *testing.T) {
	store := &fakeMediaStore{}
	r := mediaTestRouter(store)

	body, contentType := multipartUpload(t, "file", "dish.jpg", "image/jpeg", []byte("jpeg-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload-media", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"resource_type":"image"`)
	assert.Contains(t, w.Body.String(), `"key":"image/2026/08/abc.jpg"`)
	assert.Equal(t, []string{"dish.jpg"}, store.uploaded)
}

func TestUploadMediaMissingFile(t *testing.T) {
	r := mediaTestRouter(&fakeMediaStore{})

	req := httptest.NewRequest(http.MethodPost, "/api/upload-media", bytes.NewBufferString(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadMediaStorageUnconfigured(t *testing.T) {
	r := mediaTestRouter(nil)

	body, contentType := multipartUpload(t, "file", "a.jpg", "image/jpeg", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload-media", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestDownloadMedia(t *testing.T) {
	store := &fakeMediaStore{objects: map[string][]byte{
		"image/2026/08/abc.jpg": []byte("jpeg-bytes"),
	}}
	r := mediaTestRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/api/media/image/2026/08/abc.jpg", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
	assert.Equal(t, "jpeg-bytes", w.Body.String())
}

func TestDownloadMediaUnknownKey(t *testing.T) {
	r := mediaTestRouter(&fakeMediaStore{objects: map[string][]byte{}})

	req := httptest.NewRequest(http.MethodGet, "/api/media/image/2026/08/missing.jpg", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteMediaStripsLeadingSlash(t *testing.T) {
	store := &fakeMediaStore{}
	r := mediaTestRouter(store)

	req := httptest.NewRequest(http.MethodDelete, "/api/media/image/2026/08/abc.jpg", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"image/2026/08/abc.jpg"}, store.deleted)
}
