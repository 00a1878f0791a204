package server

import (
	"net/url"

	"jamsesh/internal/models"
	"jamsesh/internal/service"
	"jamsesh/internal/storage"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/profile/me
// @Summary Get my profile
// @Tags profile
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.Profile
// @Failure 401 {object} models.ErrorResponse
// @Router /profile/me [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	profile, err := s.profileService.Get(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(profile)
}

// UpdateMyProfile handles PUT /api/profile/me
// @Summary Update my profile
// @Description Saves username, bio, avatar_url and tags in one write. Omitted fields are unchanged.
// @Tags profile
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body service.UpdateProfileInput true "Profile fields"
// @Success 200 {object} models.Profile
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /profile/me [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req service.UpdateProfileInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	profile, err := s.profileService.Update(c.UserContext(), currentUserID(c), req)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(profile)
}

// AddProfileTag handles POST /api/profile/me/tags
// @Summary Add tag
// @Tags profile
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{tag=string} true "Tag"
// @Success 200 {object} models.Profile
// @Router /profile/me/tags [post]
func (s *Server) AddProfileTag(c *fiber.Ctx) error {
	var req struct {
		Tag string `json:"tag"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	profile, err := s.profileService.AddTag(c.UserContext(), currentUserID(c), req.Tag)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(profile)
}

// RemoveProfileTag handles DELETE /api/profile/me/tags/:tag
// @Summary Remove tag
// @Tags profile
// @Security BearerAuth
// @Produce json
// @Param tag path string true "Tag (URL-encoded)"
// @Success 200 {object} models.Profile
// @Router /profile/me/tags/{tag} [delete]
func (s *Server) RemoveProfileTag(c *fiber.Ctx) error {
	tag, err := url.PathUnescape(c.Params("tag"))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid tag"))
	}

	profile, err := s.profileService.RemoveTag(c.UserContext(), currentUserID(c), tag)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(profile)
}

// UploadAvatar handles POST /api/profile/me/avatar
// @Summary Replace avatar
// @Description Uploads an image into the avatars bucket and points the profile at it
// @Tags profile
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image"
// @Success 200 {object} models.Profile
// @Failure 400 {object} models.ErrorResponse
// @Router /profile/me/avatar [post]
func (s *Server) UploadAvatar(c *fiber.Ctx) error {
	in, err := readUpload(c, "file")
	if err != nil {
		return nil
	}

	obj, err := s.uploadService.Upload(c.UserContext(), storage.BucketAvatars, in)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	profile, err := s.profileService.SetAvatar(c.UserContext(), in.UserID, obj.URL)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(profile)
}
