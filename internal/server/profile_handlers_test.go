package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"jamsesh/internal/models"
	"jamsesh/internal/storage"
	"jamsesh/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeProfile(t *testing.T, raw []byte) models.Profile {
	t.Helper()
	var p models.Profile
	require.NoError(t, json.Unmarshal(raw, &p), string(raw))
	return p
}

func TestProfile_GetAndUpdate(t *testing.T) {
	env := newTestEnv(t)
	token, userID := env.signup(t, "fiddler", "fiddle@example.com")

	status, raw := env.do(t, http.MethodGet, "/api/profile/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	p := decodeProfile(t, raw)
	assert.Equal(t, userID, p.ID)
	assert.Equal(t, "fiddler", p.Username)
	assert.Empty(t, p.Tags)

	status, raw = env.do(t, http.MethodPut, "/api/profile/me", token, map[string]any{
		"username": "  old_time_fiddler ",
		"bio":      "Bluegrass and old-time",
		"tags":     []string{"fiddle", "bluegrass", "fiddle"},
	})
	require.Equal(t, http.StatusOK, status, string(raw))
	p = decodeProfile(t, raw)
	assert.Equal(t, "old_time_fiddler", p.Username)
	require.NotNil(t, p.Bio)
	assert.Equal(t, "Bluegrass and old-time", *p.Bio)
	assert.Equal(t, models.Tags{"fiddle", "bluegrass"}, p.Tags)

	// A partial update leaves omitted fields alone.
	status, raw = env.do(t, http.MethodPut, "/api/profile/me", token, map[string]any{"bio": ""})
	require.Equal(t, http.StatusOK, status, string(raw))
	p = decodeProfile(t, raw)
	assert.Nil(t, p.Bio)
	assert.Equal(t, "old_time_fiddler", p.Username)
	assert.Equal(t, models.Tags{"fiddle", "bluegrass"}, p.Tags)

	status, _ = env.do(t, http.MethodGet, "/api/profile/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestProfile_UsernameConflict(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "taken_name", "first@example.com")
	token, _ := env.signup(t, "second_name", "second@example.com")

	status, raw := env.do(t, http.MethodPut, "/api/profile/me", token, map[string]any{"username": "taken_name"})
	assert.Equal(t, http.StatusConflict, status, string(raw))

	status, raw = env.do(t, http.MethodPut, "/api/profile/me", token, map[string]any{"username": "x"})
	assert.Equal(t, http.StatusBadRequest, status, string(raw))
}

func TestProfile_Tags(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signup(t, "tagger", "tags@example.com")

	for _, tag := range []string{"jazz", "hip hop/rap", "Jazz", "jazz"} {
		status, raw := env.do(t, http.MethodPost, "/api/profile/me/tags", token, map[string]string{"tag": tag})
		require.Equal(t, http.StatusOK, status, string(raw))
	}
	status, raw := env.do(t, http.MethodGet, "/api/profile/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.Tags{"jazz", "hip hop/rap", "Jazz"}, decodeProfile(t, raw).Tags)

	status, raw = env.do(t, http.MethodDelete, "/api/profile/me/tags/hip%20hop%2Frap", token, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.Equal(t, models.Tags{"jazz", "Jazz"}, decodeProfile(t, raw).Tags)

	status, raw = env.do(t, http.MethodDelete, "/api/profile/me/tags/missing", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.Tags{"jazz", "Jazz"}, decodeProfile(t, raw).Tags)

	status, _ = env.do(t, http.MethodPost, "/api/profile/me/tags", token, map[string]string{"tag": ""})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestProfile_UploadAvatar(t *testing.T) {
	env := newTestEnv(t)
	token, userID := env.signup(t, "avatar_player", "avatar@example.com")

	body, contentType := multipartBody(t, "file", "me.png", testutil.TinyPNG(t, 800, 800))
	req := httptest.NewRequest(http.MethodPost, "/api/profile/me/avatar", body)
	req.Header.Set("Content-Type", contentType)
	status, raw := env.send(t, req, token)
	require.Equal(t, http.StatusOK, status, string(raw))

	p := decodeProfile(t, raw)
	require.NotNil(t, p.AvatarURL)
	prefix := "https://cdn.test/" + storage.BucketAvatars + "/" + jsonNumber(userID) + "/"
	assert.True(t, strings.HasPrefix(*p.AvatarURL, prefix), *p.AvatarURL)
	assert.True(t, strings.HasSuffix(*p.AvatarURL, ".webp"))

	key := strings.TrimPrefix(*p.AvatarURL, "https://cdn.test/"+storage.BucketAvatars+"/")
	_, ok := env.store.Get(storage.BucketAvatars, key)
	assert.True(t, ok)

	body, contentType = multipartBody(t, "file", "notes.txt", []byte("not an image"))
	req = httptest.NewRequest(http.MethodPost, "/api/profile/me/avatar", body)
	req.Header.Set("Content-Type", contentType)
	status, _ = env.send(t, req, token)
	assert.Equal(t, http.StatusBadRequest, status)
}
