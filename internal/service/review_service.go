package service

import (
	"context"
	"strings"

	"nextfilm/internal/cache"
	"nextfilm/internal/models"
	"nextfilm/internal/repository"
	"nextfilm/internal/storage"
	"nextfilm/internal/validation"
)

// ReviewService manages movie reviews and their rating aggregates.
type ReviewService struct {
	reviewRepo repository.ReviewRepository
	media      *Media
	cache      *cache.Cache
}

type CreateReviewInput struct {
	UserID      uint
	Title       string
	Description string
	Rating      int
	MovieID     string
	Image       *Image
}

func NewReviewService(reviewRepo repository.ReviewRepository, media *Media, c *cache.Cache) *ReviewService {
	return &ReviewService{reviewRepo: reviewRepo, media: media, cache: c}
}

// Create stores a review. Rating is checked here so callers get a
// VALIDATION_ERROR rather than a CHECK constraint failure.
func (s *ReviewService) Create(ctx context.Context, in CreateReviewInput) (*models.Review, error) {
	in.MovieID = strings.TrimSpace(in.MovieID)
	if err := validation.ValidateReview(in.Title, in.Description, in.MovieID, in.Rating, models.MinRating, models.MaxRating); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	var path string
	if in.Image != nil {
		var err error
		if path, err = s.media.Upload(ctx, storage.CollectionPosts, in.Image); err != nil {
			return nil, err
		}
	}

	review := &models.Review{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Rating:      in.Rating,
		MovieID:     in.MovieID,
		ImagePath:   path,
		UserID:      in.UserID,
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		if path != "" {
			s.media.orphaned(ctx, path, err)
		}
		return nil, err
	}

	s.cache.Invalidate(ctx, cache.MovieRatingKey(review.MovieID))
	review.ImageURL = s.media.SignedURL(ctx, review.ImagePath)
	return review, nil
}

func (s *ReviewService) Get(ctx context.Context, id uint) (*models.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.present(ctx, review)
	return review, nil
}

func (s *ReviewService) List(ctx context.Context) ([]models.Review, error) {
	reviews, err := s.reviewRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.presentAll(ctx, reviews), nil
}

func (s *ReviewService) ListByMovie(ctx context.Context, movieID string) ([]models.Review, error) {
	reviews, err := s.reviewRepo.ListByMovie(ctx, movieID)
	if err != nil {
		return nil, err
	}
	return s.presentAll(ctx, reviews), nil
}

func (s *ReviewService) ListByUser(ctx context.Context, userID uint) ([]models.Review, error) {
	reviews, err := s.reviewRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.presentAll(ctx, reviews), nil
}

// AverageRating returns the movie's mean rating and review count.
func (s *ReviewService) AverageRating(ctx context.Context, movieID string) (models.MovieRating, error) {
	var rating models.MovieRating
	err := s.cache.Aside(ctx, "movie_rating", cache.MovieRatingKey(movieID), &rating, cache.MovieRatingTTL, func() error {
		var err error
		rating, err = s.reviewRepo.AverageRating(ctx, movieID)
		return err
	})
	return rating, err
}

// Delete removes requesterID's review, blob first.
func (s *ReviewService) Delete(ctx context.Context, id, requesterID uint) error {
	review, err := s.reviewRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if review.UserID != requesterID {
		return models.NewForbiddenError("You can only delete your own reviews")
	}

	if err := s.media.Remove(ctx, review.ImagePath); err != nil {
		return err
	}
	if err := s.reviewRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, cache.MovieRatingKey(review.MovieID))
	return nil
}

func (s *ReviewService) present(ctx context.Context, review *models.Review) {
	review.ImageURL = s.media.SignedURL(ctx, review.ImagePath)
	review.User.Public()
}

func (s *ReviewService) presentAll(ctx context.Context, reviews []models.Review) []models.Review {
	if reviews == nil {
		return []models.Review{}
	}
	for i := range reviews {
		s.present(ctx, &reviews[i])
	}
	return reviews
}
