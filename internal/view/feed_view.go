package view

import (
	"context"
	"sync"

	"jamsesh/internal/client"
	"jamsesh/internal/feed"
	"jamsesh/internal/models"
)

// FeedLoadError is the only failure text the feed shows.
const FeedLoadError = "Failed to load events. Please try again later."

// FeedView is the event list screen. The location selects what is fetched;
// search and category only filter what was fetched.
type FeedView struct {
	src    FeedSource
	loader *Loader[[]models.Post]

	mu         sync.Mutex
	location   string
	criteria   feed.Criteria
	refreshKey int
}

// NewFeedView creates a feed for location ("All" for every location).
func NewFeedView(src FeedSource, location string) *FeedView {
	if location == "" {
		location = feed.AllLocations
	}
	return &FeedView{src: src, loader: NewLoader[[]models.Post](), location: location}
}

// Open performs the initial fetch.
func (v *FeedView) Open(ctx context.Context) <-chan struct{} {
	return v.load(ctx)
}

// SetLocation changes the location and re-fetches. Selecting the current
// location again is a no-op.
func (v *FeedView) SetLocation(ctx context.Context, location string) <-chan struct{} {
	if location == "" {
		location = feed.AllLocations
	}
	v.mu.Lock()
	if location == v.location {
		v.mu.Unlock()
		done := make(chan struct{})
		close(done)
		return done
	}
	v.location = location
	v.mu.Unlock()
	return v.load(ctx)
}

// Refresh bumps the refresh key and re-fetches, typically after a write.
func (v *FeedView) Refresh(ctx context.Context) <-chan struct{} {
	v.mu.Lock()
	v.refreshKey++
	v.mu.Unlock()
	return v.load(ctx)
}

func (v *FeedView) load(ctx context.Context) <-chan struct{} {
	v.mu.Lock()
	q := client.FeedQuery{Location: v.location}
	v.mu.Unlock()
	return v.loader.Load(ctx, func(ctx context.Context) ([]models.Post, error) {
		return v.src.ListPosts(ctx, q)
	})
}

// SetSearch updates the search text. No fetch happens.
func (v *FeedView) SetSearch(search string) {
	v.mu.Lock()
	v.criteria.Search = search
	v.mu.Unlock()
}

// SetCategory updates the category filter; "" shows every category.
func (v *FeedView) SetCategory(category models.Category) {
	v.mu.Lock()
	v.criteria.Category = category
	v.mu.Unlock()
}

// Visible returns the fetched posts passing the current filters, newest
// first. It is empty unless the last load succeeded.
func (v *FeedView) Visible() []models.Post {
	state, posts, _ := v.loader.Snapshot()
	if state != StateLoaded {
		return nil
	}
	v.mu.Lock()
	criteria := v.criteria
	v.mu.Unlock()

	ptrs := make([]*models.Post, len(posts))
	for i := range posts {
		ptrs[i] = &posts[i]
	}
	feed.SortNewestFirst(ptrs)

	matched := criteria.Apply(ptrs)
	out := make([]models.Post, len(matched))
	for i, p := range matched {
		out[i] = *p
	}
	return out
}

// State reports the load state.
func (v *FeedView) State() LoadState { return v.loader.State() }

// ErrorMessage is FeedLoadError after a failed load, else "".
func (v *FeedView) ErrorMessage() string {
	if v.loader.State() == StateFailed {
		return FeedLoadError
	}
	return ""
}

// Location returns the selected location.
func (v *FeedView) Location() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.location
}

// RefreshKey counts Refresh calls.
func (v *FeedView) RefreshKey() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.refreshKey
}

// Close cancels any fetch in flight.
func (v *FeedView) Close() { v.loader.Close() }
