// Package seed provides helpers to create demo data for local development and
// tests. It is never wired into the request path.
package seed

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"jamsesh/internal/models"

	"github.com/brianvoe/gofakeit/v6"
)

// City is a demo location with a representative coordinate.
type City struct {
	Name      string
	Latitude  float64
	Longitude float64
}

var (
	cities = []City{
		{Name: "Austin, Texas", Latitude: 30.2672, Longitude: -97.7431},
		{Name: "Nashville, Tennessee", Latitude: 36.1627, Longitude: -86.7816},
		{Name: "New Orleans, Louisiana", Latitude: 29.9511, Longitude: -90.0715},
		{Name: "Seattle, Washington", Latitude: 47.6062, Longitude: -122.3321},
		{Name: "Chicago, Illinois", Latitude: 41.8781, Longitude: -87.6298},
		{Name: "Denver, Colorado", Latitude: 39.7392, Longitude: -104.9903},
	}

	instruments = []string{
		"guitar", "bass", "drums", "keys", "vocals", "saxophone", "trumpet",
		"violin", "cello", "banjo", "mandolin", "synth", "dj",
	}

	genres = []string{
		"rock", "jazz", "blues", "funk", "folk", "bluegrass", "metal", "punk",
		"hip hop", "r&b", "country", "indie", "electronic", "latin",
	}

	titleTemplates = map[models.Category][]string{
		models.CategoryGeneral:             {"Open %s jam this weekend", "Anyone into %s nights?"},
		models.CategoryLookingForMusicians: {"Looking for a %s player", "%s band needs a drummer"},
		models.CategoryVenueAvailable:      {"Room open for %s acts", "Back patio free for %s sets"},
		models.CategoryLessons:             {"Beginner %s lessons", "%s theory for players"},
		models.CategoryShowAnnouncement:    {"%s showcase on Friday", "Album release: a night of %s"},
		models.CategoryPromotion:           {"New %s single out now", "Discounted studio time for %s bands"},
	}
)

// Cities returns the demo locations.
func Cities() []City {
	out := make([]City, len(cities))
	copy(out, cities)
	return out
}

// Factory builds demo profiles and posts. It does not touch the database.
type Factory struct {
	faker *gofakeit.Faker
	rng   *rand.Rand
	now   func() time.Time
}

// NewFactory returns a Factory. A non-zero seed makes its output repeatable.
func NewFactory(seed int64) *Factory {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{
		faker: gofakeit.New(seed),
		rng:   rand.New(rand.NewPCG(uint64(seed), uint64(seed>>1))),
		now:   time.Now,
	}
}

// Musician builds a user/profile pair. The username is made unique by n.
func (f *Factory) Musician(n int) (models.User, models.Profile) {
	first := strings.ToLower(f.faker.FirstName())
	instrument := f.pick(instruments)
	username := fmt.Sprintf("%s_%s%d", first, strings.ReplaceAll(instrument, " ", ""), n)
	if len(username) > 30 {
		username = username[:30]
	}

	bio := fmt.Sprintf("%s%s player from %s. %s", strings.ToUpper(instrument[:1]), instrument[1:], f.pickCity().Name, f.faker.Sentence(8))
	tags := models.Tags{instrument, f.pick(genres), f.pick(genres)}.Normalize()

	user := models.User{Email: fmt.Sprintf("%s@jamsesh.local", username)}
	profile := models.Profile{Username: username, Bio: &bio, Tags: tags}
	return user, profile
}

// Post builds a post by userID with a random category, city and timing.
// Roughly two in three posts carry map coordinates.
func (f *Factory) Post(userID uint) models.Post {
	category := models.Categories[f.rng.IntN(len(models.Categories))]
	city := f.pickCity()
	templates := titleTemplates[category]
	title := fmt.Sprintf(templates[f.rng.IntN(len(templates))], f.pick(genres))

	post := models.Post{
		UserID:   userID,
		Title:    truncateRunes(title, models.MaxTitleLength),
		Body:     "<p>" + f.faker.Paragraph(1, 3, 12, "</p><p>") + "</p>",
		Category: category,
		Location: city.Name,
	}
	if f.rng.IntN(3) > 0 {
		lat := city.Latitude + (f.rng.Float64()-0.5)*0.1
		lng := city.Longitude + (f.rng.Float64()-0.5)*0.1
		post.Latitude, post.Longitude = &lat, &lng
	}
	if category == models.CategoryShowAnnouncement || category == models.CategoryLessons {
		at := f.now().Add(time.Duration(1+f.rng.IntN(60)) * 24 * time.Hour).Truncate(time.Hour)
		post.EventDatetime = &at
	}
	if f.rng.IntN(2) == 0 {
		thumb := fmt.Sprintf("https://picsum.photos/seed/%s/800/450", f.faker.UUID())
		post.ThumbnailURL = &thumb
	}
	post.CreatedAt = f.now().Add(-time.Duration(f.rng.IntN(30*24*60)) * time.Minute)
	return post
}

func (f *Factory) pick(from []string) string {
	return from[f.rng.IntN(len(from))]
}

func (f *Factory) pickCity() City {
	return cities[f.rng.IntN(len(cities))]
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
