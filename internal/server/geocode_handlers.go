package server

import (
	"strconv"

	"jamsesh/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ReverseGeocode handles GET /api/geocode/reverse?lat=&lng=
// @Summary Reverse geocode
// @Description Resolves a coordinate to a place name. Upstream failures are not retried.
// @Tags geocode
// @Produce json
// @Param lat query number true "Latitude"
// @Param lng query number true "Longitude"
// @Success 200 {object} object{location=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /geocode/reverse [get]
func (s *Server) ReverseGeocode(c *fiber.Ctx) error {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
	if latErr != nil || lngErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("lat and lng are required numbers"))
	}

	location, err := s.geocoder.Reverse(c.UserContext(), lat, lng)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(fiber.Map{"location": location})
}
