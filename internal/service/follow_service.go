package service

import (
	"context"

	"nextfilm/internal/models"
	"nextfilm/internal/notifications"
	"nextfilm/internal/observability"
	"nextfilm/internal/repository"
)

// ActivityPublisher delivers activity events to the affected user.
type ActivityPublisher interface {
	Notify(ctx context.Context, recipientID uint, ev notifications.Event)
}

// FollowService manages the directed follow graph.
type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
	activity   ActivityPublisher
}

func NewFollowService(
	followRepo repository.FollowRepository,
	userRepo repository.UserRepository,
	activity ActivityPublisher,
) *FollowService {
	return &FollowService{followRepo: followRepo, userRepo: userRepo, activity: activity}
}

// Follow adds the edge followerID -> followingID.
func (s *FollowService) Follow(ctx context.Context, followerID, followingID uint) error {
	if followerID == followingID {
		return models.NewSelfFollowError()
	}

	exists, err := s.userRepo.Exists(ctx, followingID)
	if err != nil {
		return err
	}
	if !exists {
		return models.NewNotFoundError("User", followingID)
	}

	already, err := s.followRepo.Exists(ctx, followerID, followingID)
	if err != nil {
		return err
	}
	if already {
		return models.NewConflictError("Already following this user")
	}

	if err := s.followRepo.Create(ctx, &models.Follow{FollowerID: followerID, FollowingID: followingID}); err != nil {
		return err
	}

	observability.FollowEvents.WithLabelValues("follow").Inc()
	if s.activity != nil {
		s.activity.Notify(ctx, followingID, notifications.Event{
			Type:    notifications.EventUserFollowed,
			ActorID: followerID,
		})
	}
	return nil
}

// Unfollow removes the edge, or reports NOT_FOUND when it does not exist.
func (s *FollowService) Unfollow(ctx context.Context, followerID, followingID uint) error {
	removed, err := s.followRepo.Delete(ctx, followerID, followingID)
	if err != nil {
		return err
	}
	if removed == 0 {
		return models.NewNotFoundMessage("Not following this user")
	}
	observability.FollowEvents.WithLabelValues("unfollow").Inc()
	return nil
}

// ListFollowing returns the users userID follows.
func (s *FollowService) ListFollowing(ctx context.Context, userID uint) ([]models.User, error) {
	users, err := s.followRepo.ListFollowing(ctx, userID)
	if err != nil {
		return nil, err
	}
	return publicUsers(users), nil
}

// ListFollowers returns the users following userID.
func (s *FollowService) ListFollowers(ctx context.Context, userID uint) ([]models.User, error) {
	users, err := s.followRepo.ListFollowers(ctx, userID)
	if err != nil {
		return nil, err
	}
	return publicUsers(users), nil
}

// IsFollowing reports whether viewerID follows subjectID. Anonymous viewers
// and self-views never query.
func (s *FollowService) IsFollowing(ctx context.Context, viewerID, subjectID uint) (bool, error) {
	if viewerID == 0 || viewerID == subjectID {
		return false, nil
	}
	return s.followRepo.Exists(ctx, viewerID, subjectID)
}

// CountFollowers is the number of users following userID.
func (s *FollowService) CountFollowers(ctx context.Context, userID uint) (int64, error) {
	return s.followRepo.CountFollowers(ctx, userID)
}

// CountFollowing is the number of users userID follows.
func (s *FollowService) CountFollowing(ctx context.Context, userID uint) (int64, error) {
	return s.followRepo.CountFollowing(ctx, userID)
}

func publicUsers(users []models.User) []models.User {
	if users == nil {
		return []models.User{}
	}
	for i := range users {
		users[i].Public()
	}
	return users
}
