package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalURLPrefix is where the server mounts the local upload directory.
const LocalURLPrefix = "/storage"

// LocalStorage keeps objects on disk at <root>/<bucket>/<key>.
type LocalStorage struct {
	root      string
	urlPrefix string
}

var _ ObjectStorage = (*LocalStorage)(nil)

// NewLocalStorage creates root if needed.
func NewLocalStorage(root, urlPrefix string) (*LocalStorage, error) {
	if root == "" {
		return nil, errors.New("storage root is required")
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &LocalStorage{root: root, urlPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

// Root returns the directory objects are written under.
func (s *LocalStorage) Root() string { return s.root }

func (s *LocalStorage) objectPath(bucket, key string) string {
	return filepath.Join(s.root, bucket, filepath.FromSlash(key))
}

func (s *LocalStorage) Put(ctx context.Context, bucket, key string, data []byte, _ string) error {
	if err := checkObject(bucket, key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	p := s.objectPath(bucket, key)
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}
	if err := os.WriteFile(p, data, 0o600); err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}
	return nil
}

func (s *LocalStorage) Delete(_ context.Context, bucket, key string) error {
	if err := checkObject(bucket, key); err != nil {
		return err
	}
	if err := os.Remove(s.objectPath(bucket, key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

func (s *LocalStorage) PublicURL(bucket, key string) string {
	return s.urlPrefix + "/" + bucket + "/" + key
}
