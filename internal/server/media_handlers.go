package server

import (
	"errors"
	"io/fs"
	"os"

	"nextfilm/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ServeMedia handles GET /media/* for the local blob store. Access requires
// the token minted with the signed URL; it is bound to one path and expires.
func (s *Server) ServeMedia(c *fiber.Ctx) error {
	path := c.Params("*")
	if !s.localMedia.VerifyToken(c.Query("token"), path) {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("Invalid or expired media link"))
	}

	full, err := s.localMedia.FilePath(path)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound, models.NewNotFoundMessage("Media not found"))
	}
	if _, err := os.Stat(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.RespondWithError(c, fiber.StatusNotFound, models.NewNotFoundMessage("Media not found"))
		}
		return models.RespondWithAppError(c, models.NewInternalError(err))
	}

	c.Set(fiber.HeaderCacheControl, "private, max-age=300")
	return c.SendFile(full)
}
