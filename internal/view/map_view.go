package view

import (
	"context"

	"jamsesh/internal/feed"
)

// MapView plots posts that carry coordinates and opens their details.
type MapView struct {
	src    PostSource
	modal  *Modal
	loader *Loader[[]feed.Marker]
}

// NewMapView creates a map that opens details in modal.
func NewMapView(src PostSource, modal *Modal) *MapView {
	return &MapView{src: src, modal: modal, loader: NewLoader[[]feed.Marker]()}
}

// Load fetches the marker list.
func (v *MapView) Load(ctx context.Context) <-chan struct{} {
	return v.loader.Load(ctx, v.src.MapMarkers)
}

// Markers returns one marker per plottable post. Two posts at the same
// coordinate yield two overlapping markers.
func (v *MapView) Markers() []feed.Marker {
	state, markers, _ := v.loader.Snapshot()
	if state != StateLoaded {
		return nil
	}
	out := make([]feed.Marker, 0, len(markers))
	for _, m := range markers {
		if feed.Plottable(&m.Latitude, &m.Longitude) {
			out = append(out, m)
		}
	}
	return out
}

// Activate re-fetches the full post behind a marker and shows it.
func (v *MapView) Activate(ctx context.Context, postID uint) error {
	post, err := v.src.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	return v.modal.OpenView(post)
}

// State reports the load state.
func (v *MapView) State() LoadState { return v.loader.State() }

// Close cancels any fetch in flight.
func (v *MapView) Close() { v.loader.Close() }
