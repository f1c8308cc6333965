package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// presignedExpiry is how long a media URL handed to the Graph API stays
// fetchable. Publishing can lag the upload by up to a scheduling horizon of
// days, so this errs long.
const presignedExpiry = 7 * 24 * time.Hour

// MediaStorage is a thin wrapper around the minio client used by services.
type MediaStorage struct {
	client        *minio.Client
	bucket        string
	publicBaseURL string
}

// UploadResult describes one stored media object.
type UploadResult struct {
	Key          string `json:"key"`
	URL          string `json:"url"`
	ResourceType string `json:"resource_type"`
}

// NewMediaStorage creates a new MinIO storage client and ensures the bucket exists.
func NewMediaStorage(cfg *MinIOConfig) (*MediaStorage, error) {
	if cfg == nil || cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio config missing")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio new: %w", err)
	}
	s := &MediaStorage{
		client:        mc,
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}
	// ensure bucket exists (idempotent)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mc.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		// ignore "already exists" style errors
		exist, xerr := mc.BucketExists(ctx, s.bucket)
		if xerr != nil || !exist {
			return nil, fmt.Errorf("minio bucket ensure: %w", err)
		}
	}
	return s, nil
}

// ResourceType maps a content type onto the image/video split the publishing
// pipeline cares about.
func ResourceType(contentType string) string {
	if strings.HasPrefix(contentType, "video/") {
		return "video"
	}
	return "image"
}

// UploadMedia stores one media object under a fresh key and returns the key
// plus a URL the Graph API can fetch it from.
func (s *MediaStorage) UploadMedia(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (*UploadResult, error) {
	resourceType := ResourceType(contentType)
	key := fmt.Sprintf("%s/%s/%s%s",
		resourceType,
		time.Now().UTC().Format("2006/01"),
		uuid.NewString(),
		strings.ToLower(path.Ext(filename)))

	_, err := s.client.PutObject(ctx, s.bucket, key, reader, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return nil, fmt.Errorf("minio put: %w", err)
	}

	mediaURL, err := s.MediaURL(ctx, key)
	if err != nil {
		return nil, err
	}
	return &UploadResult{Key: key, URL: mediaURL, ResourceType: resourceType}, nil
}

// MediaURL returns a fetchable URL for a stored object: the public base URL
// when configured, otherwise a presigned GET URL.
func (s *MediaStorage) MediaURL(ctx context.Context, key string) (string, error) {
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + s.bucket + "/" + key, nil
	}
	reqParams := make(url.Values)
	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, key, presignedExpiry, reqParams)
	if err != nil {
		return "", err
	}
	return presigned.String(), nil
}

// Download returns a ReadCloser for the stored object.
func (s *MediaStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// perform a stat to ensure object exists
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, err
	}
	return obj, nil
}

// Delete removes a stored object. Used when a scheduled post is deleted
// before publishing.
func (s *MediaStorage) Delete(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}
