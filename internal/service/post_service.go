package service

import (
	"context"
	"strings"

	"nextfilm/internal/models"
	"nextfilm/internal/notifications"
	"nextfilm/internal/observability"
	"nextfilm/internal/repository"
	"nextfilm/internal/storage"
	"nextfilm/internal/validation"
)

// PostService handles post writes: creation, like toggles and deletion.
type PostService struct {
	postRepo repository.PostRepository
	userRepo repository.UserRepository
	media    *Media
	activity ActivityPublisher
}

type CreatePostInput struct {
	UserID  uint
	Content string
	Image   *Image
}

func NewPostService(
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	media *Media,
	activity ActivityPublisher,
) *PostService {
	return &PostService{
		postRepo: postRepo,
		userRepo: userRepo,
		media:    media,
		activity: activity,
	}
}

// Create stores the post, uploading its image first. A row that fails to
// persist after a successful upload leaves the blob orphaned.
func (s *PostService) Create(ctx context.Context, in CreatePostInput) (*models.PostDetail, error) {
	if err := validation.ValidatePostContent(in.Content); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	var path string
	if in.Image != nil {
		var err error
		if path, err = s.media.Upload(ctx, storage.CollectionPosts, in.Image); err != nil {
			return nil, err
		}
	}

	post := &models.Post{
		Content:   strings.TrimSpace(in.Content),
		ImagePath: path,
		UserID:    in.UserID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		if path != "" {
			s.media.orphaned(ctx, path, err)
		}
		return nil, err
	}

	return &models.PostDetail{
		ID:            post.ID,
		Content:       post.Content,
		ImageURL:      s.media.SignedURL(ctx, post.ImagePath),
		LikesCount:    post.LikesCount,
		CommentsCount: post.CommentsCount,
		UserID:        post.UserID,
		Comments:      []models.Comment{},
		CreatedAt:     post.CreatedAt,
		UpdatedAt:     post.UpdatedAt,
	}, nil
}

// ToggleLike likes the post for userID, or removes an existing like.
func (s *PostService) ToggleLike(ctx context.Context, postID, userID uint) (models.LikeResult, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return models.LikeResult{}, err
	}
	exists, err := s.userRepo.Exists(ctx, userID)
	if err != nil {
		return models.LikeResult{}, err
	}
	if !exists {
		return models.LikeResult{}, models.NewNotFoundError("User", userID)
	}

	result, err := s.postRepo.ToggleLike(ctx, postID, userID)
	if err != nil {
		return models.LikeResult{}, err
	}

	if result.Liked {
		observability.LikesToggled.WithLabelValues("liked").Inc()
		if s.activity != nil {
			s.activity.Notify(ctx, post.UserID, notifications.Event{
				Type:    notifications.EventPostLiked,
				ActorID: userID,
				PostID:  postID,
			})
		}
	} else {
		observability.LikesToggled.WithLabelValues("unliked").Inc()
	}
	return result, nil
}

// Delete removes requesterID's post. The blob goes first; if that fails the
// row is kept so the image is not orphaned.
func (s *PostService) Delete(ctx context.Context, postID, requesterID uint) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != requesterID {
		return models.NewForbiddenError("You can only delete your own posts")
	}

	if err := s.media.Remove(ctx, post.ImagePath); err != nil {
		return err
	}
	return s.postRepo.Delete(ctx, postID)
}
