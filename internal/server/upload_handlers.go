package server

import (
	"jamsesh/internal/models"

	"github.com/gofiber/fiber/v2"
)

// UploadObject handles POST /api/storage/:bucket
// @Summary Upload image
// @Description Stores an image in a public bucket and returns its URL
// @Tags storage
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param bucket path string true "avatars, event-thumbnails, post-media or event-posters"
// @Param file formData file true "Image"
// @Success 201 {object} service.StoredObject
// @Failure 400 {object} models.ErrorResponse
// @Router /storage/{bucket} [post]
func (s *Server) UploadObject(c *fiber.Ctx) error {
	in, err := readUpload(c, "file")
	if err != nil {
		return nil
	}

	obj, err := s.uploadService.Upload(c.UserContext(), c.Params("bucket"), in)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.Status(fiber.StatusCreated).JSON(obj)
}

// UploadProfilePicture handles POST /api/upload-profile
// @Summary Upload profile picture
// @Description Writes the picture under the public profiles directory
// @Tags storage
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param profilePicture formData file true "Image"
// @Success 200 {object} object{success=bool,filepath=string}
// @Failure 400 {object} object{error=string}
// @Router /upload-profile [post]
func (s *Server) UploadProfilePicture(c *fiber.Ctx) error {
	file, err := c.FormFile("profilePicture")
	if err != nil || file == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No file uploaded"})
	}

	in, err := readUpload(c, "profilePicture")
	if err != nil {
		return nil
	}

	path, err := s.uploadService.SaveProfilePicture(c.UserContext(), in)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"filepath": path,
	})
}
