package repository

import (
	"context"
	"fmt"

	"nextfilm/internal/models"
	"nextfilm/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Sortable post columns.
const (
	OrderCreatedAt     = "created_at"
	OrderUpdatedAt     = "updated_at"
	OrderLikesCount    = "likes_count"
	OrderCommentsCount = "comments_count"
)

var sortableColumns = map[string]bool{
	OrderCreatedAt:     true,
	OrderUpdatedAt:     true,
	OrderLikesCount:    true,
	OrderCommentsCount: true,
}

// PostQuery selects one page of posts.
type PostQuery struct {
	OwnerID uint // 0 means every owner
	OrderBy string
	Desc    bool
	Limit   int
	Offset  int
}

// decrementFloor lowers a counter by one without going below zero.
func decrementFloor(column string) clause.Expr {
	return gorm.Expr(fmt.Sprintf("CASE WHEN %s > 0 THEN %s - 1 ELSE 0 END", column, column))
}

func increment(column string) clause.Expr {
	return gorm.Expr(column + " + 1")
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	GetWithComments(ctx context.Context, id uint) (*models.Post, error)
	Exists(ctx context.Context, id uint) (bool, error)
	FindAndCount(ctx context.Context, q PostQuery) ([]models.Post, int64, error)
	GetLikedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error)
	ToggleLike(ctx context.Context, postID, userID uint) (models.LikeResult, error)
	Delete(ctx context.Context, id uint) error
}

type postRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db, log: observability.NewRepoLogger("posts")}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	post.LikesCount, post.CommentsCount = 0, 0
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		if isForeignKeyError(err) {
			return models.NewNotFoundError("User", post.UserID)
		}
		return models.NewInternalError(err)
	}
	r.log.LogWrite(ctx, "create", "post_id", post.ID)
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Preload("User").First(&post, id).Error; err != nil {
		return nil, notFoundOr(err, "Post", id)
	}
	return &post, nil
}

// GetWithComments loads the post with its comments, oldest first, and their authors.
func (r *postRepository) GetWithComments(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("comments.created_at ASC, comments.id ASC")
		}).
		Preload("Comments.User").
		First(&post, id).Error
	if err != nil {
		return nil, notFoundOr(err, "Post", id)
	}
	return &post, nil
}

func (r *postRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// FindAndCount returns one page of posts with owners preloaded, plus the
// total number of matching posts.
func (r *postRepository) FindAndCount(ctx context.Context, q PostQuery) ([]models.Post, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Post{})
	if q.OwnerID != 0 {
		base = base.Where("user_id = ?", q.OwnerID)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	column := q.OrderBy
	if !sortableColumns[column] {
		column = OrderCreatedAt
	}

	var posts []models.Post
	err := base.Session(&gorm.Session{}).
		Preload("User").
		Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: q.Desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: q.Desc}).
		Limit(q.Limit).
		Offset(q.Offset).
		Find(&posts).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return posts, total, nil
}

// GetLikedPostIDs returns the subset of postIDs userID has liked.
func (r *postRepository) GetLikedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error) {
	if userID == 0 || len(postIDs) == 0 {
		return []uint{}, nil
	}
	var liked []uint
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &liked).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return liked, nil
}

// ToggleLike removes the user's like if present, otherwise adds one. Counter
// changes are single-statement expressions in the same transaction, and the
// insert relies on the (user_id, post_id) unique index so concurrent toggles
// cannot double-count.
func (r *postRepository) ToggleLike(ctx context.Context, postID, userID uint) (models.LikeResult, error) {
	var result models.LikeResult

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		del := tx.Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.Like{})
		if del.Error != nil {
			return del.Error
		}

		if del.RowsAffected > 0 {
			if err := tx.Model(&models.Post{}).Where("id = ?", postID).
				UpdateColumn("likes_count", decrementFloor("likes_count")).Error; err != nil {
				return err
			}
		} else {
			ins := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.Like{UserID: userID, PostID: postID})
			if ins.Error != nil {
				return ins.Error
			}
			if ins.RowsAffected > 0 {
				if err := tx.Model(&models.Post{}).Where("id = ?", postID).
					UpdateColumn("likes_count", increment("likes_count")).Error; err != nil {
					return err
				}
			}
			result.Liked = true
		}

		var post models.Post
		if err := tx.Select("likes_count").Where("id = ?", postID).Take(&post).Error; err != nil {
			return err
		}
		result.LikesCount = post.LikesCount
		return nil
	})
	if err != nil {
		r.log.LogError(ctx, err, "toggle_like")
		if isForeignKeyError(err) {
			return models.LikeResult{}, models.NewNotFoundMessage("Post or user not found")
		}
		return models.LikeResult{}, notFoundOr(err, "Post", postID)
	}

	r.log.LogWrite(ctx, "toggle_like", "post_id", postID, "liked", result.Liked)
	return result, nil
}

// Delete removes the post; likes and comments go with it by cascade.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Post{}, id)
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "delete")
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	r.log.LogWrite(ctx, "delete", "post_id", id)
	return nil
}
