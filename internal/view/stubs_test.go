package view

import (
	"context"
	"sync"

	"jamsesh/internal/client"
	"jamsesh/internal/feed"
	"jamsesh/internal/models"
)

type feedSourceStub struct {
	mu      sync.Mutex
	queries []client.FeedQuery
	listFn  func(ctx context.Context, q client.FeedQuery) ([]models.Post, error)
}

func (s *feedSourceStub) ListPosts(ctx context.Context, q client.FeedQuery) ([]models.Post, error) {
	s.mu.Lock()
	s.queries = append(s.queries, q)
	s.mu.Unlock()
	return s.listFn(ctx, q)
}

func (s *feedSourceStub) calls() []client.FeedQuery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]client.FeedQuery(nil), s.queries...)
}

type postSourceStub struct {
	getPostFn    func(ctx context.Context, id uint) (*models.Post, error)
	mapMarkersFn func(ctx context.Context) ([]feed.Marker, error)
}

func (s *postSourceStub) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	return s.getPostFn(ctx, id)
}

func (s *postSourceStub) MapMarkers(ctx context.Context) ([]feed.Marker, error) {
	return s.mapMarkersFn(ctx)
}

type uploaderStub struct {
	buckets  []string
	uploadFn func(ctx context.Context, bucket, filename string, content []byte) (*client.StoredObject, error)
}

func (s *uploaderStub) Upload(ctx context.Context, bucket, filename string, content []byte) (*client.StoredObject, error) {
	s.buckets = append(s.buckets, bucket)
	return s.uploadFn(ctx, bucket, filename, content)
}

type geocoderStub struct {
	calls     int
	reverseFn func(ctx context.Context, lat, lng float64) (string, error)
}

func (s *geocoderStub) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	s.calls++
	return s.reverseFn(ctx, lat, lng)
}

type profileAPIStub struct {
	updates   []client.ProfileUpdate
	profileFn func(ctx context.Context) (*models.Profile, error)
	updateFn  func(ctx context.Context, in client.ProfileUpdate) (*models.Profile, error)
	uploadFn  func(ctx context.Context, filename string, content []byte) (*models.Profile, error)
}

func (s *profileAPIStub) MyProfile(ctx context.Context) (*models.Profile, error) {
	return s.profileFn(ctx)
}

func (s *profileAPIStub) UpdateProfile(ctx context.Context, in client.ProfileUpdate) (*models.Profile, error) {
	s.updates = append(s.updates, in)
	return s.updateFn(ctx, in)
}

func (s *profileAPIStub) UploadAvatar(ctx context.Context, filename string, content []byte) (*models.Profile, error) {
	return s.uploadFn(ctx, filename, content)
}

func ptr[T any](v T) *T { return &v }
