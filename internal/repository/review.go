package repository

import (
	"context"

	"nextfilm/internal/models"
	"nextfilm/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReviewRepository persists movie reviews.
type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, id uint) (*models.Review, error)
	List(ctx context.Context) ([]models.Review, error)
	ListByMovie(ctx context.Context, movieID string) ([]models.Review, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Review, error)
	AverageRating(ctx context.Context, movieID string) (models.MovieRating, error)
	Delete(ctx context.Context, id uint) error
}

type reviewRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewReviewRepository creates a new ReviewRepository
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db, log: observability.NewRepoLogger("reviews")}
}

func (r *reviewRepository) Create(ctx context.Context, review *models.Review) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(review).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		if isForeignKeyError(err) {
			return models.NewNotFoundError("User", review.UserID)
		}
		return models.NewInternalError(err)
	}
	r.log.LogWrite(ctx, "create", "review_id", review.ID, "movie_id", review.MovieID)
	return nil
}

func (r *reviewRepository) GetByID(ctx context.Context, id uint) (*models.Review, error) {
	var review models.Review
	if err := r.db.WithContext(ctx).Preload("User").First(&review, id).Error; err != nil {
		return nil, notFoundOr(err, "Review", id)
	}
	return &review, nil
}

func (r *reviewRepository) List(ctx context.Context) ([]models.Review, error) {
	return r.find(ctx, nil)
}

func (r *reviewRepository) ListByMovie(ctx context.Context, movieID string) ([]models.Review, error) {
	return r.find(ctx, func(db *gorm.DB) *gorm.DB { return db.Where("movie_id = ?", movieID) })
}

func (r *reviewRepository) ListByUser(ctx context.Context, userID uint) ([]models.Review, error) {
	return r.find(ctx, func(db *gorm.DB) *gorm.DB { return db.Where("user_id = ?", userID) })
}

func (r *reviewRepository) find(ctx context.Context, scope func(*gorm.DB) *gorm.DB) ([]models.Review, error) {
	q := r.db.WithContext(ctx).Preload("User")
	if scope != nil {
		q = q.Scopes(scope)
	}
	var reviews []models.Review
	if err := q.Order("created_at DESC, id DESC").Find(&reviews).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return reviews, nil
}

// AverageRating aggregates the movie's ratings; a movie without reviews
// yields a zero average and count.
func (r *reviewRepository) AverageRating(ctx context.Context, movieID string) (models.MovieRating, error) {
	var row struct {
		Average *float64
		Count   int64
	}
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Select("AVG(rating) AS average, COUNT(*) AS count").
		Where("movie_id = ?", movieID).
		Scan(&row).Error
	if err != nil {
		return models.MovieRating{}, models.NewInternalError(err)
	}

	rating := models.MovieRating{MovieID: movieID, Count: row.Count}
	if row.Average != nil {
		rating.Average = *row.Average
	}
	return rating, nil
}

func (r *reviewRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Review{}, id)
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "delete")
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Review", id)
	}
	r.log.LogWrite(ctx, "delete", "review_id", id)
	return nil
}
