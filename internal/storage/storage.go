// Package storage persists uploaded recipe images and maps their keys to
// public URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/geocoder89/recipehub/internal/config"
	"github.com/google/uuid"
)

var ErrUnsupportedType = errors.New("unsupported image type")

type ImageStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

var imageExts = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// NewImageKey returns a fresh object key for a recipe image of contentType,
// e.g. "uploads/recipe/3f0c…9a.png".
func NewImageKey(contentType string) (string, error) {
	ext, ok := imageExts[strings.ToLower(contentType)]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	return path.Join("uploads", "recipe", uuid.NewString()+ext), nil
}

// New builds the backend selected by MEDIA_BACKEND.
func New(ctx context.Context, cfg config.Config) (ImageStore, error) {
	switch cfg.MediaBackend {
	case "", "disk":
		return NewDiskStore(cfg.MediaDir, cfg.MediaBaseURL)
	case "s3":
		return NewS3Store(ctx, S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	default:
		return nil, fmt.Errorf("unknown media backend %q", cfg.MediaBackend)
	}
}
