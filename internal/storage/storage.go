// Package storage provides object storage drivers for uploaded media.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"jamsesh/internal/config"
)

// Bucket names accepted by the upload API.
const (
	BucketAvatars         = "avatars"
	BucketEventThumbnails = "event-thumbnails"
	BucketPostMedia       = "post-media"
	BucketEventPosters    = "event-posters"
)

// Buckets lists every bucket in a stable order.
var Buckets = []string{BucketAvatars, BucketEventThumbnails, BucketPostMedia, BucketEventPosters}

var (
	ErrUnknownBucket = errors.New("unknown bucket")
	ErrInvalidKey    = errors.New("invalid object key")
)

// ObjectStorage stores blobs under (bucket, key) and issues public URLs for them.
type ObjectStorage interface {
	Put(ctx context.Context, bucket, key string, data []byte, contentType string) error
	Delete(ctx context.Context, bucket, key string) error
	PublicURL(bucket, key string) string
}

// ValidBucket reports whether name is one of Buckets.
func ValidBucket(name string) bool {
	for _, b := range Buckets {
		if b == name {
			return true
		}
	}
	return false
}

// checkObject validates bucket and key. Keys are slash-separated, relative
// and may not climb out of the bucket.
func checkObject(bucket, key string) error {
	if !ValidBucket(bucket) {
		return fmt.Errorf("%w: %q", ErrUnknownBucket, bucket)
	}
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, `\`) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if path.Clean(key) != key {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." || seg == "." {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return nil
}

// New builds the driver selected by cfg.StorageDriver.
func New(ctx context.Context, cfg *config.Config) (ObjectStorage, error) {
	switch cfg.StorageDriver {
	case config.StorageS3:
		s, err := NewS3Storage(cfg)
		if err != nil {
			return nil, err
		}
		if err := s.EnsureBuckets(ctx); err != nil {
			return nil, err
		}
		return s, nil
	case "", config.StorageLocal:
		return NewLocalStorage(cfg.UploadDir, LocalURLPrefix)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
