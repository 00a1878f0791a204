package view

import (
	"context"
	"errors"
	"sync"

	"jamsesh/internal/client"
	"jamsesh/internal/models"
)

// ErrNotLoaded is returned when editing before the profile has loaded.
var ErrNotLoaded = errors.New("profile not loaded")

// ProfileDraft holds the in-place edits of the four profile fields.
type ProfileDraft struct {
	Username  string
	Bio       string
	AvatarURL string
	Tags      models.Tags
}

// ProfileEditor shows and edits the signed-in user's profile.
type ProfileEditor struct {
	api    ProfileAPI
	loader *Loader[*models.Profile]

	mu      sync.Mutex
	editing bool
	draft   ProfileDraft
}

// NewProfileEditor creates an editor backed by api.
func NewProfileEditor(api ProfileAPI) *ProfileEditor {
	return &ProfileEditor{api: api, loader: NewLoader[*models.Profile]()}
}

// Load fetches the profile.
func (e *ProfileEditor) Load(ctx context.Context) <-chan struct{} {
	return e.loader.Load(ctx, e.api.MyProfile)
}

// Profile returns the last loaded or saved profile, or nil.
func (e *ProfileEditor) Profile() *models.Profile {
	state, p, _ := e.loader.Snapshot()
	if state != StateLoaded || p == nil {
		return nil
	}
	cp := *p
	cp.Tags = append(models.Tags(nil), p.Tags...)
	return &cp
}

// State reports the load state.
func (e *ProfileEditor) State() LoadState { return e.loader.State() }

// Edit starts editing from the loaded profile.
func (e *ProfileEditor) Edit() error {
	p := e.Profile()
	if p == nil {
		return ErrNotLoaded
	}
	draft := ProfileDraft{Username: p.Username, Tags: p.Tags}
	if p.Bio != nil {
		draft.Bio = *p.Bio
	}
	if p.AvatarURL != nil {
		draft.AvatarURL = *p.AvatarURL
	}

	e.mu.Lock()
	e.editing, e.draft = true, draft
	e.mu.Unlock()
	return nil
}

// Editing reports whether a draft is open.
func (e *ProfileEditor) Editing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.editing
}

// Draft returns a copy of the current draft.
func (e *ProfileEditor) Draft() ProfileDraft {
	e.mu.Lock()
	defer e.mu.Unlock()
	d := e.draft
	d.Tags = append(models.Tags(nil), e.draft.Tags...)
	return d
}

// SetUsername edits the username.
func (e *ProfileEditor) SetUsername(username string) {
	e.mu.Lock()
	e.draft.Username = username
	e.mu.Unlock()
}

// SetBio edits the bio.
func (e *ProfileEditor) SetBio(bio string) {
	e.mu.Lock()
	e.draft.Bio = bio
	e.mu.Unlock()
}

// AddTag adds tag unless an identical string is present. It reports whether
// the tag was added.
func (e *ProfileEditor) AddTag(tag string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if tag == "" || e.draft.Tags.Contains(tag) {
		return false
	}
	e.draft.Tags = e.draft.Tags.Add(tag)
	return true
}

// RemoveTag drops tag from the draft.
func (e *ProfileEditor) RemoveTag(tag string) {
	e.mu.Lock()
	e.draft.Tags = e.draft.Tags.Remove(tag)
	e.mu.Unlock()
}

// ReplaceAvatar uploads a new avatar. The server points the profile at it
// immediately; the draft picks up the new URL.
func (e *ProfileEditor) ReplaceAvatar(ctx context.Context, file ImageFile) error {
	if err := CheckImage(file); err != nil {
		return err
	}
	p, err := e.api.UploadAvatar(ctx, file.Name, file.Content)
	if err != nil {
		return err
	}
	e.loader.Patch(p)
	if p.AvatarURL != nil {
		e.mu.Lock()
		e.draft.AvatarURL = *p.AvatarURL
		e.mu.Unlock()
	}
	return nil
}

// Save writes all four fields with one update and closes the draft.
func (e *ProfileEditor) Save(ctx context.Context) error {
	e.mu.Lock()
	if !e.editing {
		e.mu.Unlock()
		return ErrNotLoaded
	}
	d := e.draft
	tags := []string(append(models.Tags(nil), d.Tags...))
	e.mu.Unlock()

	p, err := e.api.UpdateProfile(ctx, client.ProfileUpdate{
		Username:  &d.Username,
		Bio:       &d.Bio,
		AvatarURL: &d.AvatarURL,
		Tags:      &tags,
	})
	if err != nil {
		return err
	}
	e.loader.Patch(p)

	e.mu.Lock()
	e.editing = false
	e.mu.Unlock()
	return nil
}

// Cancel discards the draft.
func (e *ProfileEditor) Cancel() {
	e.mu.Lock()
	e.editing, e.draft = false, ProfileDraft{}
	e.mu.Unlock()
}

// Close cancels any fetch in flight.
func (e *ProfileEditor) Close() { e.loader.Close() }
