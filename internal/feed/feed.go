// Package feed holds the event feed rules shared by the API and the client
// views: the location sentinel, the search/category predicate, ordering and
// the map marker predicate.
package feed

import (
	"math"
	"sort"
	"strings"

	"jamsesh/internal/models"
)

// AllLocations disables the location predicate.
const AllLocations = "All"

// LocationFilter returns the equality value to push down to the store, or ""
// when no location predicate applies.
func LocationFilter(location string) string {
	if location == AllLocations {
		return ""
	}
	return strings.TrimSpace(location)
}

// Criteria is the in-memory part of a feed query.
type Criteria struct {
	Search   string
	Category models.Category
}

// Match reports whether p passes the search and category filters. Search is
// a case-insensitive substring over title and body.
func (c Criteria) Match(p *models.Post) bool {
	if c.Search != "" {
		needle := strings.ToLower(c.Search)
		if !strings.Contains(strings.ToLower(p.Title), needle) &&
			!strings.Contains(strings.ToLower(p.Body), needle) {
			return false
		}
	}
	if c.Category != "" && p.Category != c.Category {
		return false
	}
	return true
}

// Apply returns the posts matching c, preserving order.
func (c Criteria) Apply(posts []*models.Post) []*models.Post {
	out := make([]*models.Post, 0, len(posts))
	for _, p := range posts {
		if c.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

// SortNewestFirst orders posts by created_at descending, then id descending.
func SortNewestFirst(posts []*models.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		a, b := posts[i], posts[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}

// Marker is a plottable post.
type Marker struct {
	PostID    uint            `json:"post_id"`
	Title     string          `json:"title"`
	Category  models.Category `json:"category"`
	Latitude  float64         `json:"latitude"`
	Longitude float64         `json:"longitude"`
}

// Plottable reports whether both coordinates are present and finite.
func Plottable(lat, lng *float64) bool {
	if lat == nil || lng == nil {
		return false
	}
	return isFinite(*lat) && isFinite(*lng)
}

// Markers derives one marker per plottable post. Others are dropped.
func Markers(posts []models.MapPost) []Marker {
	out := make([]Marker, 0, len(posts))
	for _, p := range posts {
		if !Plottable(p.Latitude, p.Longitude) {
			continue
		}
		out = append(out, Marker{
			PostID:    p.ID,
			Title:     p.Title,
			Category:  p.Category,
			Latitude:  *p.Latitude,
			Longitude: *p.Longitude,
		})
	}
	return out
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
