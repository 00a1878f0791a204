package client

import (
	"reflect"

	"jamsesh/internal/feed"
	"jamsesh/internal/models"
	"jamsesh/internal/validation"

	"github.com/go-playground/validator/v10"
)

// newValidator extends the shared validator with the invariants a response
// must satisfy before a view may use it.
func newValidator() *validator.Validate {
	v := validation.New()
	v.RegisterStructValidation(postRules, models.Post{})
	v.RegisterStructValidation(profileRules, models.Profile{})
	v.RegisterStructValidation(markerRules, feed.Marker{})
	return v
}

func postRules(sl validator.StructLevel) {
	p := sl.Current().Interface().(models.Post)
	if p.ID == 0 {
		sl.ReportError(p.ID, "id", "ID", "required", "")
	}
	if p.UserID == 0 {
		sl.ReportError(p.UserID, "user_id", "UserID", "required", "")
	}
	if p.Title == "" {
		sl.ReportError(p.Title, "title", "Title", "required", "")
	}
	if !p.Category.Valid() {
		sl.ReportError(p.Category, "category", "Category", "category", "")
	}
	if (p.Latitude == nil) != (p.Longitude == nil) {
		sl.ReportError(p.Latitude, "latitude", "Latitude", "required_with", "longitude")
	}
	if p.Profile != nil && p.Profile.Username == "" {
		sl.ReportError(p.Profile.Username, "username", "Username", "required", "")
	}
}

func profileRules(sl validator.StructLevel) {
	p := sl.Current().Interface().(models.Profile)
	if p.ID == 0 {
		sl.ReportError(p.ID, "id", "ID", "required", "")
	}
	if p.Username == "" {
		sl.ReportError(p.Username, "username", "Username", "required", "")
	}
}

func markerRules(sl validator.StructLevel) {
	m := sl.Current().Interface().(feed.Marker)
	if m.PostID == 0 {
		sl.ReportError(m.PostID, "post_id", "PostID", "required", "")
	}
	if !feed.Plottable(&m.Latitude, &m.Longitude) {
		sl.ReportError(m.Latitude, "latitude", "Latitude", "latitude", "")
	}
}

// validateValue validates a decoded struct, or each element of a decoded slice.
func (c *Client) validateValue(out any) error {
	v := reflect.ValueOf(out)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Struct:
		return c.validate.Struct(v.Interface())
	case reflect.Slice:
		for i := 0; i < v.Len(); i++ {
			if err := c.validateValue(v.Index(i).Addr().Interface()); err != nil {
				return err
			}
		}
	}
	return nil
}
