package view

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"jamsesh/internal/client"
	"jamsesh/internal/models"
	"jamsesh/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func failingUploader() *uploaderStub {
	return &uploaderStub{uploadFn: func(context.Context, string, string, []byte) (*client.StoredObject, error) {
		return nil, errors.New("unexpected upload")
	}}
}

func failingGeocoder() *geocoderStub {
	return &geocoderStub{reverseFn: func(context.Context, float64, float64) (string, error) {
		return "", errors.New("unexpected geocode")
	}}
}

// capture records the submission handed to onSubmit.
func capture(out *models.PostSubmission) SubmitFunc {
	return func(_ context.Context, sub models.PostSubmission) error {
		*out = sub
		return nil
	}
}

func TestCheckImage(t *testing.T) {
	tests := []struct {
		name string
		file ImageFile
		ok   bool
	}{
		{"png", ImageFile{Name: "a.png"}, true},
		{"upper jpeg", ImageFile{Name: "A.JPEG", ContentType: "image/jpeg"}, true},
		{"jpg alias", ImageFile{Name: "a.jpg", ContentType: "image/jpg"}, true},
		{"webp", ImageFile{Name: "a.webp", ContentType: "image/webp"}, true},
		{"gif with params", ImageFile{Name: "a.gif", ContentType: "image/gif; charset=binary"}, true},
		{"exe", ImageFile{Name: "setup.exe"}, false},
		{"no extension", ImageFile{Name: "photo"}, false},
		{"mismatched mime", ImageFile{Name: "a.png", ContentType: "image/gif"}, false},
		{"svg", ImageFile{Name: "a.svg", ContentType: "image/svg+xml"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckImage(tt.file)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrUnsupportedImage)
			}
		})
	}
}

func TestEventForm_JamNightHasExactKeys(t *testing.T) {
	up, geo := failingUploader(), failingGeocoder()
	f := NewCreateForm(up, geo)
	f.Values.Title = "Jam Night"

	var sub models.PostSubmission
	require.NoError(t, f.Submit(context.Background(), capture(&sub)))
	assert.Empty(t, up.buckets)
	assert.Zero(t, geo.calls)

	raw, err := json.Marshal(sub)
	require.NoError(t, err)
	var keys map[string]any
	require.NoError(t, json.Unmarshal(raw, &keys))

	assert.Equal(t, map[string]any{
		"title":         "Jam Night",
		"body":          "",
		"category":      "general",
		"thumbnail_url": nil,
		"location":      "",
	}, keys)
}

func TestEventForm_MapAndDateTimeSections(t *testing.T) {
	geo := &geocoderStub{reverseFn: func(_ context.Context, lat, lng float64) (string, error) {
		assert.Equal(t, 30.27, lat)
		assert.Equal(t, -97.74, lng)
		return "Austin, Texas", nil
	}}
	f := NewCreateForm(failingUploader(), geo)
	f.Values.Title = "  Porch show  "
	f.Values.Category = models.CategoryShowAnnouncement
	f.Values.Location = "typed by hand"
	f.Values.MapEnabled = true
	f.Values.Latitude, f.Values.Longitude = 30.27, -97.74
	at := time.Date(2026, 11, 1, 20, 0, 0, 0, time.UTC)
	f.Values.DateTimeEnabled = true
	f.Values.EventDatetime = at

	var sub models.PostSubmission
	require.NoError(t, f.Submit(context.Background(), capture(&sub)))

	assert.Equal(t, "Porch show", sub.Title)
	assert.Equal(t, "Austin, Texas", sub.Location, "the pin decides the location")
	require.NotNil(t, sub.Latitude)
	assert.Equal(t, 30.27, *sub.Latitude)
	require.NotNil(t, sub.EventDatetime)
	assert.True(t, sub.EventDatetime.Equal(at))
	assert.ElementsMatch(t, []string{
		"title", "body", "category", "thumbnail_url", "location", "latitude", "longitude", "event_datetime",
	}, sub.Columns())
}

func TestEventForm_GeocodeFailureLeavesLocationEmpty(t *testing.T) {
	geo := failingGeocoder()
	f := NewCreateForm(failingUploader(), geo)
	f.Values.Title = "Pin drop"
	f.Values.Location = "stale"
	f.Values.MapEnabled = true
	f.Values.Latitude, f.Values.Longitude = 1, 2

	var sub models.PostSubmission
	require.NoError(t, f.Submit(context.Background(), capture(&sub)))
	assert.Equal(t, 1, geo.calls)
	assert.Empty(t, sub.Location)
	assert.NotNil(t, sub.Latitude)
}

func TestEventForm_ImageUpload(t *testing.T) {
	up := &uploaderStub{uploadFn: func(_ context.Context, _, filename string, content []byte) (*client.StoredObject, error) {
		assert.Equal(t, "poster.png", filename)
		assert.Equal(t, []byte("png-bytes"), content)
		return &client.StoredObject{URL: "https://cdn.test/event-thumbnails/5/poster.png"}, nil
	}}
	f := NewCreateForm(up, failingGeocoder())
	f.Values.Title = "Poster night"
	require.NoError(t, f.SelectImage(ImageFile{Name: "poster.png", ContentType: "image/png", Content: []byte("png-bytes")}))

	var sub models.PostSubmission
	require.NoError(t, f.Submit(context.Background(), capture(&sub)))
	assert.Equal(t, []string{storage.BucketEventThumbnails}, up.buckets)
	require.NotNil(t, sub.ThumbnailURL)
	assert.Equal(t, "https://cdn.test/event-thumbnails/5/poster.png", *sub.ThumbnailURL)
	assert.Nil(t, f.Image())
}

func TestEventForm_RejectsExecutableBeforeAnyNetworkCall(t *testing.T) {
	up := failingUploader()
	f := NewCreateForm(up, failingGeocoder())
	f.Values.Title = "Virus jam"

	require.NoError(t, f.SelectImage(ImageFile{Name: "ok.png"}))
	err := f.SelectImage(ImageFile{Name: "setup.exe", ContentType: "application/octet-stream"})
	assert.ErrorIs(t, err, ErrUnsupportedImage)
	assert.Nil(t, f.Image(), "a rejected file clears the selection")

	var sub models.PostSubmission
	require.NoError(t, f.Submit(context.Background(), capture(&sub)))
	assert.Empty(t, up.buckets)
	assert.Nil(t, sub.ThumbnailURL)
}

func TestEventForm_UploadFailureAborts(t *testing.T) {
	up := &uploaderStub{uploadFn: func(context.Context, string, string, []byte) (*client.StoredObject, error) {
		return nil, &client.APIError{Status: 500, Message: "storage down"}
	}}
	f := NewCreateForm(up, failingGeocoder())
	f.Values.Title = "Doomed"
	require.NoError(t, f.SelectImage(ImageFile{Name: "a.jpg"}))

	submitted := false
	err := f.Submit(context.Background(), func(context.Context, models.PostSubmission) error {
		submitted = true
		return nil
	})
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.False(t, submitted)
	assert.NotNil(t, f.Image(), "selection survives for a retry")
}

func TestEventForm_ValidationBlocksSubmit(t *testing.T) {
	f := NewCreateForm(failingUploader(), failingGeocoder())
	f.Values.Title = "   "
	assert.Error(t, f.Submit(context.Background(), func(context.Context, models.PostSubmission) error {
		t.Fatal("must not submit")
		return nil
	}))

	f.Values.Title = "ok"
	f.Values.Category = "karaoke"
	assert.Error(t, f.Validate())
}

func TestNewEditForm_SeedsSections(t *testing.T) {
	at := time.Date(2026, 6, 1, 19, 0, 0, 0, time.UTC)
	post := &models.Post{
		ID: 8, UserID: 2, Title: "Blues night", Body: "<p>12 bar</p>", Category: models.CategoryGeneral,
		Location: "Memphis, Tennessee", Latitude: ptr(35.1), Longitude: ptr(-90.0),
		ThumbnailURL: ptr("https://cdn.test/t.png"), EventDatetime: &at,
	}
	f := NewEditForm(post, failingUploader(), failingGeocoder())
	assert.True(t, f.Values.MapEnabled)
	assert.True(t, f.Values.DateTimeEnabled)

	f.Values.MapEnabled = false
	sub := f.Submission()
	assert.Nil(t, sub.Latitude, "disabling the map drops the coordinates")
	assert.Equal(t, "Memphis, Tennessee", sub.Location)
	require.NotNil(t, sub.ThumbnailURL)
	assert.Equal(t, "https://cdn.test/t.png", *sub.ThumbnailURL)

	plain := NewEditForm(&models.Post{Title: "x", Category: models.CategoryLessons}, nil, nil)
	assert.False(t, plain.Values.MapEnabled)
	assert.False(t, plain.Values.DateTimeEnabled)
}
