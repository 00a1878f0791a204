// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"

	"jamsesh/internal/storage"
)

// MemoryStorage is an in-memory storage.ObjectStorage for tests.
type MemoryStorage struct {
	mu      sync.Mutex
	Objects map[string][]byte
	Types   map[string]string
	PutErr  error
}

var _ storage.ObjectStorage = (*MemoryStorage)(nil)

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{Objects: map[string][]byte{}, Types: map[string]string{}}
}

// Put stores data under bucket/key unless PutErr is set.
func (m *MemoryStorage) Put(_ context.Context, bucket, key string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PutErr != nil {
		return m.PutErr
	}
	m.Objects[bucket+"/"+key] = append([]byte(nil), data...)
	m.Types[bucket+"/"+key] = contentType
	return nil
}

// Delete removes bucket/key.
func (m *MemoryStorage) Delete(_ context.Context, bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Objects, bucket+"/"+key)
	return nil
}

// PublicURL returns a fake CDN URL.
func (m *MemoryStorage) PublicURL(bucket, key string) string {
	return "https://cdn.test/" + bucket + "/" + key
}

// Get returns a stored object.
func (m *MemoryStorage) Get(bucket, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.Objects[bucket+"/"+key]
	return b, ok
}

// GeocoderStub is a canned geocode.Reverser.
type GeocoderStub struct {
	Place string
	Err   error
	Calls int
}

// Reverse returns Place or Err.
func (g *GeocoderStub) Reverse(_ context.Context, _, _ float64) (string, error) {
	g.Calls++
	if g.Err != nil {
		return "", g.Err
	}
	return g.Place, nil
}

// ErrStub is a generic failure for stubs.
var ErrStub = errors.New("stub failure")

// TinyPNG returns an in-memory PNG byte slice with the requested dimensions.
func TinyPNG(t interface {
	Helper()
	Fatalf(string, ...any)
}, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 200, G: 40, B: 90, A: 255})
		}
	}
	buf := bytes.NewBuffer(nil)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
