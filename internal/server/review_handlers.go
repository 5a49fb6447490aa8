package server

import (
	"strconv"
	"strings"

	"nextfilm/internal/models"
	"nextfilm/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createReviewRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Rating      int    `json:"rating"`
	MovieID     string `json:"movie_id"`
}

// GetReviews handles GET /api/reviews
func (s *Server) GetReviews(c *fiber.Ctx) error {
	reviews, err := s.reviewService.List(c.UserContext())
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(reviews)
}

// GetReview handles GET /api/reviews/:id
func (s *Server) GetReview(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	review, err := s.reviewService.Get(c.UserContext(), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(review)
}

// GetMovieReviews handles GET /api/reviews/movies/:movieId. Movie ids come
// from the external catalog and are opaque strings.
func (s *Server) GetMovieReviews(c *fiber.Ctx) error {
	reviews, err := s.reviewService.ListByMovie(c.UserContext(), c.Params("movieId"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(reviews)
}

// GetMovieRating handles GET /api/reviews/movies/:movieId/rating
func (s *Server) GetMovieRating(c *fiber.Ctx) error {
	rating, err := s.reviewService.AverageRating(c.UserContext(), c.Params("movieId"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(rating)
}

// CreateReview handles POST /api/reviews as JSON or multipart with an optional "image" file.
func (s *Server) CreateReview(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}

	in := service.CreateReviewInput{UserID: userID}
	if c.Is("json") {
		var req createReviewRequest
		if err := c.BodyParser(&req); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid request body"))
		}
		in.Title, in.Description, in.Rating, in.MovieID = req.Title, req.Description, req.Rating, req.MovieID
	} else {
		if v := formString(c, "title"); v != nil {
			in.Title = *v
		}
		if v := formString(c, "description"); v != nil {
			in.Description = *v
		}
		if v := formString(c, "movie_id"); v != nil {
			in.MovieID = *v
		}
		if v := formString(c, "rating"); v != nil {
			rating, convErr := strconv.Atoi(strings.TrimSpace(*v))
			if convErr != nil {
				return models.RespondWithError(c, fiber.StatusBadRequest,
					models.NewValidationError("rating must be a whole number"))
			}
			in.Rating = rating
		}
		if in.Image, err = s.readImage(c, "image"); err != nil {
			return respondError(c, err)
		}
	}

	review, err := s.reviewService.Create(c.UserContext(), in)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(review)
}

// DeleteReview handles DELETE /api/reviews/:id
func (s *Server) DeleteReview(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.reviewService.Delete(c.UserContext(), id, userID); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
