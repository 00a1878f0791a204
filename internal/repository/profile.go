package repository

import (
	"context"
	"errors"

	"jamsesh/internal/cache"
	"jamsesh/internal/models"
	"jamsesh/internal/observability"

	"gorm.io/gorm"
)

// ProfileRepository defines the interface for profile data operations
type ProfileRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Profile, error)
	GetByUsername(ctx context.Context, username string) (*models.Profile, error)
	Update(ctx context.Context, profile *models.Profile) error
}

type profileRepository struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewProfileRepository creates a new profile repository. c may be nil.
func NewProfileRepository(db *gorm.DB, c *cache.Cache) ProfileRepository {
	return &profileRepository{db: db, cache: c}
}

func (r *profileRepository) GetByID(ctx context.Context, id uint) (*models.Profile, error) {
	defer observability.TrackQuery("select", "profiles")()

	var profile models.Profile
	err := r.cache.Aside(ctx, cache.ProfileKey(id), &profile, cache.ProfileTTL, func() error {
		if err := r.db.WithContext(ctx).First(&profile, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Profile", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetByUsername returns nil, nil when no profile has that username.
func (r *profileRepository) GetByUsername(ctx context.Context, username string) (*models.Profile, error) {
	defer observability.TrackQuery("select", "profiles")()

	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &profile, nil
}

// Update persists the editable profile fields. A username collision yields a
// conflict error.
func (r *profileRepository) Update(ctx context.Context, profile *models.Profile) error {
	defer observability.TrackQuery("update", "profiles")()

	result := r.db.WithContext(ctx).
		Model(profile).
		Select("username", "avatar_url", "bio", "tags", "updated_at").
		Updates(profile)
	if result.Error != nil {
		if _, ok := uniqueViolationOn(result.Error); ok {
			return models.NewConflictError("Username already taken")
		}
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Profile", profile.ID)
	}

	r.cache.Invalidate(ctx, cache.ProfileKey(profile.ID))
	// Feed pages and post details embed the author's username.
	r.cache.InvalidateFeed(ctx)
	return nil
}
