package seed

import (
	"context"
	"path/filepath"
	"testing"

	"jamsesh/internal/database"
	"jamsesh/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "seed.db")), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestFactory_Post(t *testing.T) {
	f := NewFactory(42)
	for i := 0; i < 50; i++ {
		p := f.Post(7)
		assert.Equal(t, uint(7), p.UserID)
		assert.True(t, p.Category.Valid(), p.Category)
		assert.NotEmpty(t, p.Title)
		assert.LessOrEqual(t, len([]rune(p.Title)), models.MaxTitleLength)
		assert.Equal(t, p.Latitude == nil, p.Longitude == nil, "coordinates come in pairs")
		assert.False(t, p.CreatedAt.IsZero())
	}
}

func TestFactory_MusicianIsUnique(t *testing.T) {
	f := NewFactory(1)
	seen := map[string]bool{}
	for i := 1; i <= 30; i++ {
		user, profile := f.Musician(i)
		assert.LessOrEqual(t, len(profile.Username), 30)
		assert.False(t, seen[profile.Username], profile.Username)
		seen[profile.Username] = true
		assert.Contains(t, user.Email, "@jamsesh.local")
		assert.NotEmpty(t, profile.Tags)
	}
}

func TestSeeder_Run(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()

	s := NewSeeder(db, Options{NumUsers: 4, NumPosts: 10, SkipBcrypt: true, Seed: 9})
	sum, err := s.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, Summary{Profiles: 4, Posts: 10}, sum)

	var users, profiles, posts int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&models.Profile{}).Count(&profiles).Error)
	require.NoError(t, db.Model(&models.Post{}).Count(&posts).Error)
	assert.Equal(t, int64(4), users)
	assert.Equal(t, int64(4), profiles)
	assert.Equal(t, int64(10), posts)

	var orphans int64
	require.NoError(t, db.Model(&models.Post{}).
		Where("user_id NOT IN (?)", db.Model(&models.Profile{}).Select("id")).
		Count(&orphans).Error)
	assert.Zero(t, orphans)

	// A clean rerun replaces rather than appends.
	s = NewSeeder(db, Options{NumUsers: 2, NumPosts: 3, SkipBcrypt: true, Clean: true, Seed: 10})
	_, err = s.Run(ctx)
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Post{}).Count(&posts).Error)
	assert.Equal(t, int64(3), posts)
}

func TestSeeder_ApplyFixture(t *testing.T) {
	db := openDB(t)
	fx, err := LoadFixture(filepath.Join("testdata", "demo.yml"))
	require.NoError(t, err)

	sum, err := NewSeeder(db, Options{SkipBcrypt: true}).Apply(context.Background(), fx)
	require.NoError(t, err)
	assert.Equal(t, Summary{Profiles: 2, Posts: 3}, sum)

	var keys models.Profile
	require.NoError(t, db.Where("username = ?", "austin_keys").First(&keys).Error)
	assert.Equal(t, models.Tags{"keys", "soul", "funk"}, keys.Tags)
	require.NotNil(t, keys.Bio)

	var posts []models.Post
	require.NoError(t, db.Order("created_at DESC").Find(&posts).Error)
	require.Len(t, posts, 3)
	assert.Equal(t, "Frenchmen Street showcase", posts[0].Title, "later fixture entries are newer")
	assert.NotNil(t, posts[0].EventDatetime)
	assert.True(t, posts[2].HasCoordinates())
	assert.Equal(t, keys.ID, posts[2].UserID)
}

func TestParseFixture_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown author": `
profiles: [{username: a, email: a@x.io}]
posts: [{author: b, title: t, category: general}]`,
		"bad category": `
profiles: [{username: a, email: a@x.io}]
posts: [{author: a, title: t, category: polka}]`,
		"half coordinate": `
profiles: [{username: a, email: a@x.io}]
posts: [{author: a, title: t, category: general, latitude: 1.5}]`,
		"missing email": `
profiles: [{username: a}]`,
		"not yaml": `profiles: [`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseFixture([]byte(raw))
			assert.Error(t, err)
		})
	}
}
