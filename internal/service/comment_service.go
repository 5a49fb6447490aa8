package service

import (
	"context"
	"strings"

	"nextfilm/internal/models"
	"nextfilm/internal/notifications"
	"nextfilm/internal/repository"
	"nextfilm/internal/validation"
)

// CommentService adds, lists and deletes post comments.
type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	userRepo    repository.UserRepository
	activity    ActivityPublisher
}

type AddCommentInput struct {
	UserID  uint
	PostID  uint
	Content string
}

type DeleteCommentInput struct {
	UserID    uint
	PostID    uint
	CommentID uint
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	activity ActivityPublisher,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		userRepo:    userRepo,
		activity:    activity,
	}
}

// Add comments on a post; the post's comments_count moves with it.
func (s *CommentService) Add(ctx context.Context, in AddCommentInput) (*models.Comment, error) {
	if err := validation.ValidateComment(in.Content); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	exists, err := s.userRepo.Exists(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, models.NewNotFoundError("User", in.UserID)
	}

	comment := &models.Comment{
		Content: strings.TrimSpace(in.Content),
		UserID:  in.UserID,
		PostID:  in.PostID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	if s.activity != nil {
		s.activity.Notify(ctx, post.UserID, notifications.Event{
			Type:      notifications.EventCommentCreated,
			ActorID:   in.UserID,
			PostID:    in.PostID,
			CommentID: comment.ID,
		})
	}

	created, err := s.commentRepo.GetByID(ctx, comment.ID)
	if err != nil {
		return nil, err
	}
	created.User.Public()
	return created, nil
}

// ListForPost returns the post's comments oldest first.
func (s *CommentService) ListForPost(ctx context.Context, postID uint) ([]models.Comment, error) {
	exists, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, models.NewNotFoundError("Post", postID)
	}

	comments, err := s.commentRepo.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	return publicComments(comments), nil
}

// Delete removes the requester's own comment from the post.
func (s *CommentService) Delete(ctx context.Context, in DeleteCommentInput) error {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return err
	}
	if comment.PostID != in.PostID {
		return models.NewNotFoundError("Comment", in.CommentID)
	}
	if comment.UserID != in.UserID {
		return models.NewForbiddenError("You can only delete your own comments")
	}
	return s.commentRepo.Delete(ctx, comment)
}

func publicComments(comments []models.Comment) []models.Comment {
	if comments == nil {
		return []models.Comment{}
	}
	for i := range comments {
		comments[i].User.Public()
	}
	return comments
}
