package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"betportal/internal/config"
	apperrors "betportal/pkg/errors"
	"betportal/pkg/logger"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ImageStore persists an uploaded image and returns the URL to reference it by
type ImageStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// InlineImageStore keeps images inside the record as data URIs. It is used
// when no image host is configured.
type InlineImageStore struct{}

func (InlineImageStore) Put(_ context.Context, _ string, contentType string, data []byte) (string, error) {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// MinioImageStore uploads to an S3-compatible bucket
type MinioImageStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

func NewMinioImageStore(ctx context.Context, cfg config.MediaConfig) (*MinioImageStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create image host client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}

	publicURL := strings.TrimRight(cfg.PublicURL, "/")
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}
	return &MinioImageStore{client: client, bucket: cfg.Bucket, publicURL: publicURL}, nil
}

func (s *MinioImageStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return s.publicURL + "/" + key, nil
}

// MediaService decodes base64 uploads and stores them
type MediaService struct {
	images   ImageStore
	maxBytes int64
}

func NewMediaService(images ImageStore, maxBytes int64) *MediaService {
	if images == nil {
		images = InlineImageStore{}
	}
	return &MediaService{images: images, maxBytes: maxBytes}
}

var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// StoreBase64 accepts a raw base64 string or a data URI
func (s *MediaService) StoreBase64(ctx context.Context, folder, encoded string) (string, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return "", apperrors.Validation("image is required")
	}
	if strings.HasPrefix(encoded, "http://") || strings.HasPrefix(encoded, "https://") {
		return encoded, nil
	}
	if idx := strings.Index(encoded, ","); strings.HasPrefix(encoded, "data:") && idx > 0 {
		encoded = encoded[idx+1:]
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", apperrors.Validation("image is not valid base64")
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return "", apperrors.Validation(fmt.Sprintf("image exceeds %d bytes", s.maxBytes))
	}

	contentType := http.DetectContentType(data)
	ext, ok := imageExtensions[contentType]
	if !ok {
		return "", apperrors.Validation("unsupported image type " + contentType)
	}

	key := fmt.Sprintf("%s/%s/%s%s", folder, time.Now().UTC().Format("2006/01/02"), uuid.NewString(), ext)
	url, err := s.images.Put(ctx, key, contentType, data)
	if err != nil {
		return "", apperrors.Internal("failed to store image", err)
	}
	logger.Debugf("Stored %s image %s (%d bytes)", contentType, key, len(data))
	return url, nil
}
