package server

import (
	"jamsesh/internal/models"
	"jamsesh/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetPosts handles GET /api/posts
// @Summary Event feed
// @Description Posts newest first. location=All (or empty) disables the location filter; search and category filter the fetched list.
// @Tags posts
// @Produce json
// @Param location query string false "Exact location, or All"
// @Param search query string false "Case-insensitive substring of title or body"
// @Param category query string false "Category filter"
// @Success 200 {array} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	posts, err := s.postService.Feed(c.UserContext(), service.FeedInput{
		Location: c.Query("location"),
		Search:   c.Query("search"),
		Category: models.Category(c.Query("category")),
	})
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	return c.JSON(posts)
}

// GetPost handles GET /api/posts/:id
// @Summary Get post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.Get(c.UserContext(), id)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(post)
}

// GetMyEvents handles GET /api/events
// @Summary My events
// @Description The caller's own posts, newest first
// @Tags posts
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.Post
// @Failure 401 {object} object{error=string}
// @Router /events [get]
func (s *Server) GetMyEvents(c *fiber.Ctx) error {
	claims, ok := s.optionalSession(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}
	s.setSession(c, claims)

	posts, err := s.postService.MyEvents(c.UserContext(), claims.UserID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	return c.JSON(posts)
}

// GetMapPosts handles GET /api/map/posts
// @Summary Map markers
// @Description Lightweight list of posts carrying both coordinates
// @Tags posts
// @Produce json
// @Success 200 {array} feed.Marker
// @Router /map/posts [get]
func (s *Server) GetMapPosts(c *fiber.Ctx) error {
	markers, err := s.postService.MapMarkers(c.UserContext())
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(markers)
}

// CreatePost handles POST /api/posts
// @Summary Create post
// @Tags posts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body models.PostSubmission true "Post fields"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var sub models.PostSubmission
	if err := c.BodyParser(&sub); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.Create(c.UserContext(), currentUserID(c), &sub)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PUT /api/posts/:id
// @Summary Update post
// @Tags posts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param request body models.PostSubmission true "Post fields"
// @Success 200 {object} models.Post
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [put]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var sub models.PostSubmission
	if err := c.BodyParser(&sub); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.Update(c.UserContext(), currentUserID(c), postID, &sub)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete post
// @Tags posts
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.Delete(c.UserContext(), currentUserID(c), postID); err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
