// Package service holds the application's business rules between the HTTP
// handlers and the repositories.
package service

import (
	"context"

	"jamsesh/internal/feed"
	"jamsesh/internal/middleware"
	"jamsesh/internal/models"
	"jamsesh/internal/notifications"
	"jamsesh/internal/observability"
	"jamsesh/internal/repository"
	"jamsesh/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

type PostService struct {
	postRepo repository.PostRepository
	notifier *notifications.Notifier
}

// FeedInput selects a feed page. Location "All" or "" disables the location
// predicate; Search and Category filter the fetched list in memory.
type FeedInput struct {
	Location string
	Search   string
	Category models.Category
}

func NewPostService(postRepo repository.PostRepository, notifier *notifications.Notifier) *PostService {
	return &PostService{postRepo: postRepo, notifier: notifier}
}

// Feed returns posts newest first.
func (s *PostService) Feed(ctx context.Context, in FeedInput) (posts []*models.Post, err error) {
	ctx, span := observability.StartSpan(ctx, "posts", "Feed",
		attribute.String("feed.location", in.Location),
		attribute.String("feed.category", string(in.Category)),
	)
	defer func() { observability.EndSpan(span, err) }()

	if in.Category != "" && !in.Category.Valid() {
		return nil, models.NewValidationError("Invalid category")
	}

	posts, err = s.postRepo.List(ctx, feed.LocationFilter(in.Location))
	if err != nil {
		return nil, err
	}
	posts = feed.Criteria{Search: in.Search, Category: in.Category}.Apply(posts)
	feed.SortNewestFirst(posts)
	return posts, nil
}

// MyEvents returns the caller's own posts newest first.
func (s *PostService) MyEvents(ctx context.Context, userID uint) ([]*models.Post, error) {
	if userID == 0 {
		return nil, models.NewUnauthorizedError("Unauthorized")
	}
	posts, err := s.postRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	feed.SortNewestFirst(posts)
	return posts, nil
}

func (s *PostService) Get(ctx context.Context, postID uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, postID)
}

// MapMarkers returns one marker per post carrying both coordinates.
func (s *PostService) MapMarkers(ctx context.Context) ([]feed.Marker, error) {
	rows, err := s.postRepo.ListWithCoordinates(ctx)
	if err != nil {
		return nil, err
	}
	return feed.Markers(rows), nil
}

func validateSubmission(sub *models.PostSubmission) error {
	if sub == nil {
		return models.NewValidationError("Post is required")
	}
	if err := validation.Struct(sub); err != nil {
		return models.NewValidationError(err.Error())
	}
	if (sub.Latitude == nil) != (sub.Longitude == nil) {
		return models.NewValidationError("latitude and longitude must be provided together")
	}
	return nil
}

// Create validates sub and stores a post owned by userID. Only the submitted
// columns are written.
func (s *PostService) Create(ctx context.Context, userID uint, sub *models.PostSubmission) (*models.Post, error) {
	if userID == 0 {
		return nil, models.NewUnauthorizedError("Unauthorized")
	}
	if err := validateSubmission(sub); err != nil {
		return nil, err
	}

	post := &models.Post{UserID: userID}
	sub.Apply(post)
	if err := s.postRepo.Create(ctx, post, sub.Columns()); err != nil {
		return nil, err
	}
	observability.PostWrites.WithLabelValues("create").Inc()
	s.publish(ctx, notifications.PostCreated, post)

	return s.postRepo.GetByID(ctx, post.ID)
}

// Update applies sub to a post owned by userID.
func (s *PostService) Update(ctx context.Context, userID, postID uint, sub *models.PostSubmission) (*models.Post, error) {
	if err := validateSubmission(sub); err != nil {
		return nil, err
	}
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !post.OwnedBy(userID) {
		return nil, models.NewForbiddenError("You can only update your own posts")
	}

	sub.Apply(post)
	if err := s.postRepo.Update(ctx, post, sub.Columns()); err != nil {
		return nil, err
	}
	observability.PostWrites.WithLabelValues("update").Inc()
	s.publish(ctx, notifications.PostUpdated, post)

	return s.postRepo.GetByID(ctx, post.ID)
}

// Delete removes a post owned by userID.
func (s *PostService) Delete(ctx context.Context, userID, postID uint) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if !post.OwnedBy(userID) {
		return models.NewForbiddenError("You can only delete your own posts")
	}
	if err := s.postRepo.Delete(ctx, postID); err != nil {
		return err
	}
	observability.PostWrites.WithLabelValues("delete").Inc()
	s.publish(ctx, notifications.PostDeleted, post)
	return nil
}

// publish logs failures and never returns them.
func (s *PostService) publish(ctx context.Context, kind string, post *models.Post) {
	ev := notifications.PostEvent{Type: kind, PostID: post.ID, UserID: post.UserID}
	if err := s.notifier.PublishPostEvent(ctx, ev); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish post event", "type", kind, "post_id", post.ID, "error", err)
	}
}
