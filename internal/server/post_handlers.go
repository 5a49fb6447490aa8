package server

import (
	"nextfilm/internal/models"
	"nextfilm/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetFeed handles GET /api/posts
// @Summary Get the feed
// @Description Paged posts with per-viewer is_liked when signed in
// @Tags posts
// @Produce json
// @Param page query int false "Page (1-based)"
// @Param limit query int false "Page size"
// @Param orderBy query string false "createdAt, updatedAt, likesCount or commentsCount"
// @Success 200 {object} models.FeedPage
// @Router /posts [get]
func (s *Server) GetFeed(c *fiber.Ctx) error {
	p := parsePagination(c)
	page, err := s.feedService.GetPage(c.UserContext(), service.FeedQuery{
		Page:     p.Page,
		PageSize: p.Limit,
		SortKey:  c.Query("orderBy", service.SortCreatedAt),
		ViewerID: viewerID(c),
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(page)
}

// GetMyPosts handles GET /api/posts/me
func (s *Server) GetMyPosts(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}
	p := parsePagination(c)
	page, err := s.feedService.GetByOwner(c.UserContext(), userID, p.Page, p.Limit)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(page)
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.feedService.GetByID(c.UserContext(), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(post)
}

// CreatePost handles POST /api/posts with a "content" field and an optional "image" file.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}

	var content string
	if c.Is("json") {
		var req struct {
			Content string `json:"content"`
		}
		if err := c.BodyParser(&req); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid request body"))
		}
		content = req.Content
	} else if v := formString(c, "content"); v != nil {
		content = *v
	}

	image, err := s.readImage(c, "image")
	if err != nil {
		return respondError(c, err)
	}

	post, err := s.postService.Create(c.UserContext(), service.CreatePostInput{
		UserID:  userID,
		Content: content,
		Image:   image,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// ToggleLike handles POST /api/posts/:id/like. The liker is always the
// authenticated caller.
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	result, err := s.postService.ToggleLike(c.UserContext(), postID, userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(result)
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.Delete(c.UserContext(), postID, userID); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
