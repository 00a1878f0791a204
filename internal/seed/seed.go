package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"jamsesh/internal/middleware"
	"jamsesh/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "JamSesh123!@"

// Options configures a seeding run.
type Options struct {
	NumUsers int
	NumPosts int
	Clean    bool
	// SkipBcrypt stores a cheap placeholder hash; tests only.
	SkipBcrypt bool
	// Seed makes generated data repeatable when non-zero.
	Seed int64
}

// Fixture is the YAML shape accepted by LoadFixture.
type Fixture struct {
	Profiles []FixtureProfile `yaml:"profiles"`
	Posts    []FixturePost    `yaml:"posts"`
}

// FixtureProfile describes one account.
type FixtureProfile struct {
	Username string   `yaml:"username"`
	Email    string   `yaml:"email"`
	Bio      string   `yaml:"bio"`
	Tags     []string `yaml:"tags"`
}

// FixturePost describes one post. Author refers to a FixtureProfile username.
type FixturePost struct {
	Author    string   `yaml:"author"`
	Title     string   `yaml:"title"`
	Body      string   `yaml:"body"`
	Category  string   `yaml:"category"`
	Location  string   `yaml:"location"`
	Latitude  *float64 `yaml:"latitude"`
	Longitude *float64 `yaml:"longitude"`
	// InDays schedules the event relative to the seeding time.
	InDays *int `yaml:"in_days"`
}

// Summary reports what a run created.
type Summary struct {
	Profiles int
	Posts    int
}

// Seeder writes demo data.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
}

// NewSeeder creates a Seeder bound to db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, opts: opts, factory: NewFactory(opts.Seed)}
}

// LoadFixture reads and parses a YAML fixture file.
func LoadFixture(path string) (*Fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return ParseFixture(raw)
}

// ParseFixture decodes and checks a YAML fixture.
func ParseFixture(raw []byte) (*Fixture, error) {
	var fx Fixture
	if err := yaml.Unmarshal(raw, &fx); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}

	known := make(map[string]bool, len(fx.Profiles))
	for _, p := range fx.Profiles {
		if p.Username == "" || p.Email == "" {
			return nil, errors.New("fixture profile needs username and email")
		}
		known[p.Username] = true
	}
	for i, p := range fx.Posts {
		if !known[p.Author] {
			return nil, fmt.Errorf("fixture post %d: unknown author %q", i, p.Author)
		}
		if !models.Category(p.Category).Valid() {
			return nil, fmt.Errorf("fixture post %d: invalid category %q", i, p.Category)
		}
		if (p.Latitude == nil) != (p.Longitude == nil) {
			return nil, fmt.Errorf("fixture post %d: latitude and longitude go together", i)
		}
	}
	return &fx, nil
}

// ClearAll removes every post, profile and user.
func (s *Seeder) ClearAll(ctx context.Context) error {
	db := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, model := range []any{&models.Post{}, &models.Profile{}, &models.User{}} {
		if err := db.Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	middleware.Logger.InfoContext(ctx, "seed: cleared existing data")
	return nil
}

// Run generates NumUsers musicians and NumPosts posts spread across them.
func (s *Seeder) Run(ctx context.Context) (Summary, error) {
	if s.opts.Clean {
		if err := s.ClearAll(ctx); err != nil {
			return Summary{}, err
		}
	}
	hash, err := s.passwordHash()
	if err != nil {
		return Summary{}, err
	}

	var sum Summary
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := make([]uint, 0, s.opts.NumUsers)
		for i := 0; i < s.opts.NumUsers; i++ {
			user, profile := s.factory.Musician(i + 1)
			user.Password = hash
			if err := createAccount(tx, &user, &profile); err != nil {
				return err
			}
			ids = append(ids, user.ID)
		}
		sum.Profiles = len(ids)
		if len(ids) == 0 {
			return nil
		}

		posts := make([]models.Post, 0, s.opts.NumPosts)
		for i := 0; i < s.opts.NumPosts; i++ {
			posts = append(posts, s.factory.Post(ids[i%len(ids)]))
		}
		if len(posts) > 0 {
			if err := tx.CreateInBatches(&posts, 100).Error; err != nil {
				return fmt.Errorf("create posts: %w", err)
			}
		}
		sum.Posts = len(posts)
		return nil
	})
	if err != nil {
		return Summary{}, err
	}

	middleware.Logger.InfoContext(ctx, "seed: generated demo data", "profiles", sum.Profiles, "posts", sum.Posts)
	return sum, nil
}

// Apply writes a fixture.
func (s *Seeder) Apply(ctx context.Context, fx *Fixture) (Summary, error) {
	if s.opts.Clean {
		if err := s.ClearAll(ctx); err != nil {
			return Summary{}, err
		}
	}
	hash, err := s.passwordHash()
	if err != nil {
		return Summary{}, err
	}

	now := s.factory.now()
	var sum Summary
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		byName := make(map[string]uint, len(fx.Profiles))
		for _, fp := range fx.Profiles {
			user := models.User{Email: fp.Email, Password: hash}
			profile := models.Profile{Username: fp.Username, Tags: models.Tags(fp.Tags).Normalize()}
			if fp.Bio != "" {
				bio := fp.Bio
				profile.Bio = &bio
			}
			if err := createAccount(tx, &user, &profile); err != nil {
				return err
			}
			byName[fp.Username] = user.ID
		}

		for i, fp := range fx.Posts {
			post := models.Post{
				UserID:    byName[fp.Author],
				Title:     fp.Title,
				Body:      fp.Body,
				Category:  models.Category(fp.Category),
				Location:  fp.Location,
				Latitude:  fp.Latitude,
				Longitude: fp.Longitude,
				// Later entries in the file are newer.
				CreatedAt: now.Add(time.Duration(i-len(fx.Posts)) * time.Minute),
			}
			if fp.InDays != nil {
				at := now.Add(time.Duration(*fp.InDays) * 24 * time.Hour).Truncate(time.Hour)
				post.EventDatetime = &at
			}
			if err := tx.Create(&post).Error; err != nil {
				return fmt.Errorf("create post %q: %w", fp.Title, err)
			}
		}
		sum = Summary{Profiles: len(fx.Profiles), Posts: len(fx.Posts)}
		return nil
	})
	if err != nil {
		return Summary{}, err
	}

	middleware.Logger.InfoContext(ctx, "seed: applied fixture", "profiles", sum.Profiles, "posts", sum.Posts)
	return sum, nil
}

func (s *Seeder) passwordHash() (string, error) {
	if s.opts.SkipBcrypt {
		return "seed-placeholder", nil
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash demo password: %w", err)
	}
	return string(hashed), nil
}

// createAccount inserts user then its profile under the same ID.
func createAccount(tx *gorm.DB, user *models.User, profile *models.Profile) error {
	if err := tx.Create(user).Error; err != nil {
		return fmt.Errorf("create user %s: %w", user.Email, err)
	}
	profile.ID = user.ID
	if err := tx.Create(profile).Error; err != nil {
		return fmt.Errorf("create profile %s: %w", profile.Username, err)
	}
	return nil
}
