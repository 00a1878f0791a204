package repository

import (
	"context"
	"errors"

	"jamsesh/internal/cache"
	"jamsesh/internal/models"
	"jamsesh/internal/observability"

	"gorm.io/gorm"
)

// newestFirst is the canonical feed order; id breaks created_at ties.
const newestFirst = "created_at DESC, id DESC"

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post, columns []string) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	List(ctx context.Context, location string) ([]*models.Post, error)
	ListByUser(ctx context.Context, userID uint) ([]*models.Post, error)
	ListWithCoordinates(ctx context.Context) ([]models.MapPost, error)
	Update(ctx context.Context, post *models.Post, columns []string) error
	Delete(ctx context.Context, id uint) error
}

type postRepository struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewPostRepository creates a new post repository. c may be nil.
func NewPostRepository(db *gorm.DB, c *cache.Cache) PostRepository {
	return &postRepository{db: db, cache: c}
}

func withAuthor(db *gorm.DB) *gorm.DB {
	return db.Preload("Profile", func(tx *gorm.DB) *gorm.DB {
		return tx.Select("id", "username")
	})
}

// Create inserts only the submitted columns plus ownership and timestamps.
func (r *postRepository) Create(ctx context.Context, post *models.Post, columns []string) error {
	defer observability.TrackQuery("insert", "posts")()

	cols := append([]string{"user_id", "created_at", "updated_at"}, columns...)
	if err := r.db.WithContext(ctx).Select(cols).Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	r.cache.InvalidateFeed(ctx)
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	defer observability.TrackQuery("select", "posts")()

	var post models.Post
	err := r.cache.Aside(ctx, cache.PostKey(r.cache.FeedVersion(ctx), id), &post, cache.PostTTL, func() error {
		if err := withAuthor(r.db.WithContext(ctx)).First(&post, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Post", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// List returns posts newest first. An empty location matches every post;
// any other value is an exact equality filter.
func (r *postRepository) List(ctx context.Context, location string) ([]*models.Post, error) {
	defer observability.TrackQuery("select", "posts")()

	var posts []*models.Post
	key := cache.FeedKey(r.cache.FeedVersion(ctx), location)
	err := r.cache.Aside(ctx, key, &posts, cache.FeedTTL, func() error {
		q := withAuthor(r.db.WithContext(ctx))
		if location != "" {
			q = q.Where("location = ?", location)
		}
		if err := q.Order(newestFirst).Find(&posts).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) ListByUser(ctx context.Context, userID uint) ([]*models.Post, error) {
	defer observability.TrackQuery("select", "posts")()

	var posts []*models.Post
	err := withAuthor(r.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order(newestFirst).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) ListWithCoordinates(ctx context.Context) ([]models.MapPost, error) {
	defer observability.TrackQuery("select", "posts")()

	var rows []models.MapPost
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Select("id", "title", "category", "latitude", "longitude").
		Where("latitude IS NOT NULL AND longitude IS NOT NULL").
		Order(newestFirst).
		Find(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return rows, nil
}

// Update writes only columns (plus updated_at). user_id and created_at are
// never written.
func (r *postRepository) Update(ctx context.Context, post *models.Post, columns []string) error {
	defer observability.TrackQuery("update", "posts")()

	cols := append([]string{"updated_at"}, columns...)
	result := r.db.WithContext(ctx).Model(post).Select(cols).Updates(post)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Post", post.ID)
	}
	r.cache.InvalidatePost(ctx, post.ID)
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", "posts")()

	result := r.db.WithContext(ctx).Delete(&models.Post{}, id)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	r.cache.InvalidatePost(ctx, id)
	return nil
}
