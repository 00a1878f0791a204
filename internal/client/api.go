package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"jamsesh/internal/feed"
	"jamsesh/internal/models"
)

// AuthResult is returned by Signup and Login. Profile is only set on signup.
type AuthResult struct {
	Token   string          `json:"token" validate:"required"`
	User    User            `json:"user"`
	Profile *models.Profile `json:"profile,omitempty"`
}

// Signup registers an account and adopts its token.
func (c *Client) Signup(ctx context.Context, username, email, password string) (*AuthResult, error) {
	req, err := c.jsonRequest("signup", http.MethodPost, "/auth/signup", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	var out AuthResult
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

// Login exchanges credentials for a token and adopts it.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	req, err := c.jsonRequest("login", http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	var out AuthResult
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

// Logout revokes the current token and forgets it.
func (c *Client) Logout(ctx context.Context) error {
	req, _ := c.jsonRequest("logout", http.MethodPost, "/auth/logout", nil)
	if err := c.do(ctx, req, nil); err != nil {
		return err
	}
	c.SetToken("")
	return nil
}

// Session returns the signed-in user, or nil when there is no valid session.
func (c *Client) Session(ctx context.Context) (*SessionUser, error) {
	req, _ := c.jsonRequest("session", http.MethodGet, "/auth/session", nil)
	var out struct {
		User *SessionUser `json:"user"`
	}
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// ListPosts fetches a feed page, newest first.
func (c *Client) ListPosts(ctx context.Context, q FeedQuery) ([]models.Post, error) {
	req, _ := c.jsonRequest("list posts", http.MethodGet, "/posts", nil)
	req.query = url.Values{}
	if q.Location != "" {
		req.query.Set("location", q.Location)
	}
	if q.Search != "" {
		req.query.Set("search", q.Search)
	}
	if q.Category != "" {
		req.query.Set("category", q.Category)
	}
	var out []models.Post
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MyEvents fetches the caller's own posts.
func (c *Client) MyEvents(ctx context.Context) ([]models.Post, error) {
	req, _ := c.jsonRequest("my events", http.MethodGet, "/events", nil)
	var out []models.Post
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetPost fetches one post.
func (c *Client) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	req, _ := c.jsonRequest("get post", http.MethodGet, postPath(id), nil)
	var out models.Post
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreatePost writes a new post owned by the caller.
func (c *Client) CreatePost(ctx context.Context, sub models.PostSubmission) (*models.Post, error) {
	req, err := c.jsonRequest("create post", http.MethodPost, "/posts", sub)
	if err != nil {
		return nil, err
	}
	var out models.Post
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdatePost rewrites the submitted columns of an owned post.
func (c *Client) UpdatePost(ctx context.Context, id uint, sub models.PostSubmission) (*models.Post, error) {
	req, err := c.jsonRequest("update post", http.MethodPut, postPath(id), sub)
	if err != nil {
		return nil, err
	}
	var out models.Post
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeletePost removes an owned post.
func (c *Client) DeletePost(ctx context.Context, id uint) error {
	req, _ := c.jsonRequest("delete post", http.MethodDelete, postPath(id), nil)
	return c.do(ctx, req, nil)
}

// MapMarkers fetches the plottable posts.
func (c *Client) MapMarkers(ctx context.Context) ([]feed.Marker, error) {
	req, _ := c.jsonRequest("map posts", http.MethodGet, "/map/posts", nil)
	var out []feed.Marker
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReverseGeocode resolves a coordinate to a place name.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	req, _ := c.jsonRequest("reverse geocode", http.MethodGet, "/geocode/reverse", nil)
	req.query = url.Values{
		"lat": {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lng": {strconv.FormatFloat(lng, 'f', -1, 64)},
	}
	var out struct {
		Location string `json:"location"`
	}
	if err := c.do(ctx, req, &out); err != nil {
		return "", err
	}
	return out.Location, nil
}

// MyProfile fetches the caller's profile.
func (c *Client) MyProfile(ctx context.Context) (*models.Profile, error) {
	req, _ := c.jsonRequest("get profile", http.MethodGet, "/profile/me", nil)
	return c.profileCall(ctx, req)
}

// UpdateProfile saves the non-nil fields of in with one write.
func (c *Client) UpdateProfile(ctx context.Context, in ProfileUpdate) (*models.Profile, error) {
	req, err := c.jsonRequest("update profile", http.MethodPut, "/profile/me", in)
	if err != nil {
		return nil, err
	}
	return c.profileCall(ctx, req)
}

// AddTag adds tag to the caller's profile.
func (c *Client) AddTag(ctx context.Context, tag string) (*models.Profile, error) {
	req, err := c.jsonRequest("add tag", http.MethodPost, "/profile/me/tags", map[string]string{"tag": tag})
	if err != nil {
		return nil, err
	}
	return c.profileCall(ctx, req)
}

// RemoveTag removes tag from the caller's profile.
func (c *Client) RemoveTag(ctx context.Context, tag string) (*models.Profile, error) {
	req, _ := c.jsonRequest("remove tag", http.MethodDelete, "/profile/me/tags/"+url.PathEscape(tag), nil)
	return c.profileCall(ctx, req)
}

// UploadAvatar replaces the caller's avatar and returns the updated profile.
func (c *Client) UploadAvatar(ctx context.Context, filename string, content []byte) (*models.Profile, error) {
	req, err := c.fileRequest("upload avatar", "/profile/me/avatar", "file", filename, content)
	if err != nil {
		return nil, err
	}
	return c.profileCall(ctx, req)
}

// Upload stores an image in bucket.
func (c *Client) Upload(ctx context.Context, bucket, filename string, content []byte) (*StoredObject, error) {
	req, err := c.fileRequest("upload", "/storage/"+url.PathEscape(bucket), "file", filename, content)
	if err != nil {
		return nil, err
	}
	var out StoredObject
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	out.URL = c.resolveURL(out.URL)
	return &out, nil
}

// UploadProfilePicture writes a picture to the public profiles directory and
// returns its path.
func (c *Client) UploadProfilePicture(ctx context.Context, filename string, content []byte) (string, error) {
	req, err := c.fileRequest("upload profile picture", "/upload-profile", "profilePicture", filename, content)
	if err != nil {
		return "", err
	}
	var out struct {
		Success  bool   `json:"success"`
		Filepath string `json:"filepath" validate:"required"`
	}
	if err := c.do(ctx, req, &out); err != nil {
		return "", err
	}
	return out.Filepath, nil
}

func (c *Client) profileCall(ctx context.Context, req request) (*models.Profile, error) {
	var out models.Profile
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func postPath(id uint) string {
	return fmt.Sprintf("/posts/%d", id)
}
