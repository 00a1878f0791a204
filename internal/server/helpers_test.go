package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"jamsesh/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHumanizeParam(t *testing.T) {
	assert.Equal(t, "ID", humanizeParam("id"))
	assert.Equal(t, "post ID", humanizeParam("postId"))
	assert.Equal(t, "event post ID", humanizeParam("eventPostId"))
	assert.Equal(t, "tag", humanizeParam("tag"))
}

func TestMapServiceError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{models.NewValidationError("bad"), http.StatusBadRequest},
		{models.NewUnauthorizedError("who"), http.StatusUnauthorized},
		{models.NewForbiddenError("no"), http.StatusForbidden},
		{models.NewNotFoundError("Post", 1), http.StatusNotFound},
		{models.NewConflictError("dup"), http.StatusConflict},
		{models.NewUpstreamError("geocoder", nil), http.StatusBadGateway},
		{models.NewRateLimitedError("slow down"), http.StatusTooManyRequests},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, mapServiceError(tc.err), tc.err.Error())
	}
}

func TestParseID(t *testing.T) {
	s := &Server{}
	app := fiber.New()
	app.Get("/things/:id", func(c *fiber.Ctx) error {
		id, err := s.parseID(c, "id")
		if err != nil {
			return nil
		}
		return c.JSON(fiber.Map{"id": id})
	})

	for path, want := range map[string]int{
		"/things/12":  http.StatusOK,
		"/things/0":   http.StatusBadRequest,
		"/things/-3":  http.StatusBadRequest,
		"/things/abc": http.StatusBadRequest,
	} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, want, resp.StatusCode, path)
	}
}
