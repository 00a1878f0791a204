package client

import "time"

// User is the account part of an auth response.
type User struct {
	ID        uint      `json:"id" validate:"required"`
	Email     string    `json:"email" validate:"required,email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionUser is the identity behind the current token.
type SessionUser struct {
	ID    uint   `json:"id" validate:"required"`
	Email string `json:"email" validate:"required"`
}

// StoredObject locates an uploaded image. The server may answer with a
// root-relative URL (local storage); Upload resolves it against the API host.
type StoredObject struct {
	Bucket string `json:"bucket" validate:"required"`
	Key    string `json:"key" validate:"required"`
	URL    string `json:"url" validate:"required,uri"`
}

// ProfileUpdate is a partial profile write; nil fields are left unchanged.
type ProfileUpdate struct {
	Username  *string   `json:"username,omitempty"`
	Bio       *string   `json:"bio,omitempty"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	Tags      *[]string `json:"tags,omitempty"`
}

// FeedQuery selects a feed page. Location "All" or "" disables the
// location predicate.
type FeedQuery struct {
	Location string
	Search   string
	Category string
}
