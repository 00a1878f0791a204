package feed

import (
	"math"
	"testing"
	"time"

	"jamsesh/internal/models"

	"github.com/stretchr/testify/assert"
)

func ptr(f float64) *float64 { return &f }

func TestLocationFilter(t *testing.T) {
	assert.Equal(t, "", LocationFilter("All"))
	assert.Equal(t, "", LocationFilter(""))
	assert.Equal(t, "Denver", LocationFilter("Denver"))
	assert.Equal(t, "all", LocationFilter("all"), "only the exact sentinel disables the filter")
}

func TestCriteria_Match(t *testing.T) {
	post := &models.Post{Title: "Need a Drummer", Body: "<p>Funk band</p>", Category: models.CategoryLookingForMusicians}

	tests := []struct {
		name     string
		criteria Criteria
		want     bool
	}{
		{"empty criteria", Criteria{}, true},
		{"title case-insensitive", Criteria{Search: "drummer"}, true},
		{"body match", Criteria{Search: "FUNK"}, true},
		{"no text match", Criteria{Search: "violin"}, false},
		{"category match", Criteria{Category: models.CategoryLookingForMusicians}, true},
		{"category mismatch", Criteria{Category: models.CategoryLessons}, false},
		{"both must hold", Criteria{Search: "drummer", Category: models.CategoryLessons}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.criteria.Match(post))
		})
	}
}

func TestCriteria_ApplyPreservesOrder(t *testing.T) {
	posts := []*models.Post{
		{ID: 3, Title: "Jazz jam", Category: models.CategoryGeneral},
		{ID: 2, Title: "Rock show", Category: models.CategoryShowAnnouncement},
		{ID: 1, Title: "Jazz lessons", Category: models.CategoryLessons},
	}
	got := Criteria{Search: "jazz"}.Apply(posts)
	assert.Len(t, got, 2)
	assert.Equal(t, uint(3), got[0].ID)
	assert.Equal(t, uint(1), got[1].ID)

	assert.Empty(t, Criteria{Search: "polka"}.Apply(posts))
}

func TestSortNewestFirst(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	posts := []*models.Post{
		{ID: 1, CreatedAt: base},
		{ID: 2, CreatedAt: base.Add(time.Hour)},
		{ID: 3, CreatedAt: base},
	}
	SortNewestFirst(posts)

	ids := []uint{posts[0].ID, posts[1].ID, posts[2].ID}
	assert.Equal(t, []uint{2, 3, 1}, ids)
}

func TestMarkers(t *testing.T) {
	posts := []models.MapPost{
		{ID: 1, Title: "ok", Latitude: ptr(39.7), Longitude: ptr(-104.9)},
		{ID: 2, Title: "missing lng", Latitude: ptr(39.7)},
		{ID: 3, Title: "nan", Latitude: ptr(math.NaN()), Longitude: ptr(1)},
		{ID: 4, Title: "inf", Latitude: ptr(1), Longitude: ptr(math.Inf(1))},
		{ID: 5, Title: "same spot", Latitude: ptr(39.7), Longitude: ptr(-104.9)},
	}
	markers := Markers(posts)
	assert.Len(t, markers, 2)
	assert.Equal(t, uint(1), markers[0].PostID)
	assert.Equal(t, uint(5), markers[1].PostID)
	assert.Equal(t, markers[0].Latitude, markers[1].Latitude)
}
