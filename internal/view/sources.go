package view

import (
	"context"

	"jamsesh/internal/client"
	"jamsesh/internal/feed"
	"jamsesh/internal/models"
)

// FeedSource lists feed pages.
type FeedSource interface {
	ListPosts(ctx context.Context, q client.FeedQuery) ([]models.Post, error)
}

// PostSource reads single posts and map markers.
type PostSource interface {
	GetPost(ctx context.Context, id uint) (*models.Post, error)
	MapMarkers(ctx context.Context) ([]feed.Marker, error)
}

// Uploader stores images in object storage.
type Uploader interface {
	Upload(ctx context.Context, bucket, filename string, content []byte) (*client.StoredObject, error)
}

// Geocoder turns coordinates into a place name.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (string, error)
}

// ProfileAPI reads and writes the signed-in user's profile.
type ProfileAPI interface {
	MyProfile(ctx context.Context) (*models.Profile, error)
	UpdateProfile(ctx context.Context, in client.ProfileUpdate) (*models.Profile, error)
	UploadAvatar(ctx context.Context, filename string, content []byte) (*models.Profile, error)
}

var (
	_ FeedSource = (*client.Client)(nil)
	_ PostSource = (*client.Client)(nil)
	_ Uploader   = (*client.Client)(nil)
	_ Geocoder   = (*client.Client)(nil)
	_ ProfileAPI = (*client.Client)(nil)
)
