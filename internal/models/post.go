package models

import (
	"time"
)

// MaxTitleLength bounds Post.Title in runes.
const MaxTitleLength = 120

// Category classifies a post. The zero value is not a valid category.
type Category string

const (
	CategoryGeneral             Category = "general"
	CategoryLookingForMusicians Category = "looking-for-musicians"
	CategoryVenueAvailable      Category = "venue-available"
	CategoryLessons             Category = "lessons"
	CategoryShowAnnouncement    Category = "show-announcement"
	CategoryPromotion           Category = "promotion"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryGeneral,
	CategoryLookingForMusicians,
	CategoryVenueAvailable,
	CategoryLessons,
	CategoryShowAnnouncement,
	CategoryPromotion,
}

// Valid reports whether c is one of Categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// PostAuthor is the slice of a profile embedded in every post read.
type PostAuthor struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// TableName binds PostAuthor to the profiles table.
func (PostAuthor) TableName() string { return "profiles" }

// Post is an event listing. Latitude and Longitude are either both set or
// both nil.
type Post struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	UserID        uint        `gorm:"not null;index" json:"user_id"`
	Profile       *PostAuthor `gorm:"foreignKey:UserID;references:ID" json:"profile,omitempty"`
	Title         string      `gorm:"size:120;not null" json:"title"`
	Body          string      `gorm:"type:text" json:"body"`
	Category      Category    `gorm:"size:32;not null;default:general;index" json:"category"`
	Location      string      `gorm:"index" json:"location"`
	Latitude      *float64    `json:"latitude"`
	Longitude     *float64    `json:"longitude"`
	ThumbnailURL  *string     `json:"thumbnail_url"`
	EventDatetime *time.Time  `json:"event_datetime"`
	CreatedAt     time.Time   `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// HasCoordinates reports whether both coordinates are present.
func (p *Post) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// OwnedBy reports whether userID authored the post.
func (p *Post) OwnedBy(userID uint) bool {
	return userID != 0 && p.UserID == userID
}

// PostSubmission is the field set a create/edit form writes. Optional columns
// are present only when the corresponding form section is enabled.
type PostSubmission struct {
	Title         string     `json:"title" validate:"required,max=120"`
	Body          string     `json:"body"`
	Category      Category   `json:"category" validate:"required,category"`
	ThumbnailURL  *string    `json:"thumbnail_url"`
	Location      string     `json:"location"`
	Latitude      *float64   `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude     *float64   `json:"longitude,omitempty" validate:"omitempty,longitude"`
	EventDatetime *time.Time `json:"event_datetime,omitempty"`
}

// Columns names the posts columns this submission writes.
func (s *PostSubmission) Columns() []string {
	cols := []string{"title", "body", "category", "thumbnail_url", "location"}
	if s.Latitude != nil && s.Longitude != nil {
		cols = append(cols, "latitude", "longitude")
	}
	if s.EventDatetime != nil {
		cols = append(cols, "event_datetime")
	}
	return cols
}

// Apply copies the submission onto p.
func (s *PostSubmission) Apply(p *Post) {
	p.Title = s.Title
	p.Body = s.Body
	p.Category = s.Category
	p.ThumbnailURL = s.ThumbnailURL
	p.Location = s.Location
	if s.Latitude != nil && s.Longitude != nil {
		p.Latitude = s.Latitude
		p.Longitude = s.Longitude
	}
	if s.EventDatetime != nil {
		p.EventDatetime = s.EventDatetime
	}
}

// MapPost is the lightweight shape the map view needs.
type MapPost struct {
	ID        uint     `json:"id"`
	Title     string   `json:"title"`
	Category  Category `json:"category"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}
