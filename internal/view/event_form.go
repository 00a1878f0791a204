package view

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"jamsesh/internal/models"
	"jamsesh/internal/storage"
	"jamsesh/internal/validation"
)

// ErrUnsupportedImage rejects a selected file before any upload.
var ErrUnsupportedImage = errors.New("only JPEG, PNG, GIF and WebP images are allowed")

var imageExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// ImageFile is a file picked by the user.
type ImageFile struct {
	Name        string
	ContentType string
	Content     []byte
}

// CheckImage accepts only jpeg, png, gif and webp by extension and, when
// given, declared MIME type.
func CheckImage(f ImageFile) error {
	want, ok := imageExtensions[strings.ToLower(filepath.Ext(f.Name))]
	if !ok {
		return ErrUnsupportedImage
	}
	if f.ContentType == "" {
		return nil
	}
	declared, _, err := mime.ParseMediaType(f.ContentType)
	if err != nil {
		return ErrUnsupportedImage
	}
	if declared == "image/jpg" {
		declared = "image/jpeg"
	}
	if declared != want {
		return ErrUnsupportedImage
	}
	return nil
}

// FormValues are the controlled inputs of the event form.
type FormValues struct {
	Title        string
	Body         string
	Category     models.Category
	ThumbnailURL string
	Location     string

	MapEnabled bool
	Latitude   float64
	Longitude  float64

	DateTimeEnabled bool
	EventDatetime   time.Time
}

// SubmitFunc receives the assembled write.
type SubmitFunc func(ctx context.Context, sub models.PostSubmission) error

// EventForm assembles a create or edit submission.
type EventForm struct {
	Values FormValues

	image    *ImageFile
	uploader Uploader
	geocoder Geocoder
}

// NewCreateForm returns an empty form with the general category selected.
func NewCreateForm(uploader Uploader, geocoder Geocoder) *EventForm {
	return &EventForm{
		Values:   FormValues{Category: models.CategoryGeneral},
		uploader: uploader,
		geocoder: geocoder,
	}
}

// NewEditForm returns a form seeded from post.
func NewEditForm(post *models.Post, uploader Uploader, geocoder Geocoder) *EventForm {
	f := &EventForm{uploader: uploader, geocoder: geocoder}
	f.Values = FormValues{
		Title:    post.Title,
		Body:     post.Body,
		Category: post.Category,
		Location: post.Location,
	}
	if post.ThumbnailURL != nil {
		f.Values.ThumbnailURL = *post.ThumbnailURL
	}
	if post.HasCoordinates() {
		f.Values.MapEnabled = true
		f.Values.Latitude, f.Values.Longitude = *post.Latitude, *post.Longitude
	}
	if post.EventDatetime != nil {
		f.Values.DateTimeEnabled = true
		f.Values.EventDatetime = *post.EventDatetime
	}
	return f
}

// SelectImage picks the thumbnail to upload on submit. A rejected file
// leaves the form with no image selected.
func (f *EventForm) SelectImage(file ImageFile) error {
	if err := CheckImage(file); err != nil {
		f.image = nil
		return err
	}
	f.image = &file
	return nil
}

// ClearImage drops the selected file.
func (f *EventForm) ClearImage() { f.image = nil }

// Image returns the selected file, or nil.
func (f *EventForm) Image() *ImageFile { return f.image }

// Validate checks the title and category.
func (f *EventForm) Validate() error {
	sub := models.PostSubmission{Title: strings.TrimSpace(f.Values.Title), Category: f.Values.Category}
	return validation.Struct(&sub)
}

// Submit validates, uploads the selected image, resolves the location from
// the map pin and hands the result to onSubmit. An upload failure aborts the
// submission; a geocoding failure leaves the location empty.
func (f *EventForm) Submit(ctx context.Context, onSubmit SubmitFunc) error {
	if err := f.Validate(); err != nil {
		return err
	}

	if f.image != nil {
		obj, err := f.uploader.Upload(ctx, storage.BucketEventThumbnails, f.image.Name, f.image.Content)
		if err != nil {
			return fmt.Errorf("upload thumbnail: %w", err)
		}
		f.Values.ThumbnailURL = obj.URL
		f.image = nil
	}

	if f.Values.MapEnabled {
		place, err := f.geocoder.ReverseGeocode(ctx, f.Values.Latitude, f.Values.Longitude)
		if err != nil {
			place = ""
		}
		f.Values.Location = place
	}

	return onSubmit(ctx, f.Submission())
}

// Submission is the write the form currently describes: title, body,
// category, thumbnail_url and location always; coordinates only with the map
// enabled; event_datetime only with the date-time enabled.
func (f *EventForm) Submission() models.PostSubmission {
	sub := models.PostSubmission{
		Title:    strings.TrimSpace(f.Values.Title),
		Body:     f.Values.Body,
		Category: f.Values.Category,
		Location: f.Values.Location,
	}
	if f.Values.ThumbnailURL != "" {
		thumb := f.Values.ThumbnailURL
		sub.ThumbnailURL = &thumb
	}
	if f.Values.MapEnabled {
		lat, lng := f.Values.Latitude, f.Values.Longitude
		sub.Latitude, sub.Longitude = &lat, &lng
	}
	if f.Values.DateTimeEnabled {
		at := f.Values.EventDatetime
		sub.EventDatetime = &at
	}
	return sub
}
