package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"nextfilm/internal/models"
	"nextfilm/internal/notifications"
	"nextfilm/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getByEmailFn    func(context.Context, string) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
	existsFn        func(context.Context, uint) (bool, error)
	createFn        func(context.Context, *models.User) error
	updateFn        func(context.Context, *models.User) error
	listFn          func(context.Context) ([]models.User, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) Exists(ctx context.Context, id uint) (bool, error) {
	return s.existsFn(ctx, id)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) List(ctx context.Context) ([]models.User, error) {
	return s.listFn(ctx)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, Username: "user", Email: "user@example.com", Password: "digest"}, nil
		},
		getByEmailFn:    func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		getByUsernameFn: func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		existsFn:        func(_ context.Context, _ uint) (bool, error) { return true, nil },
		createFn: func(_ context.Context, u *models.User) error {
			u.ID = 1
			return nil
		},
		updateFn: func(_ context.Context, _ *models.User) error { return nil },
		listFn:   func(_ context.Context) ([]models.User, error) { return nil, nil },
	}
}

// followRepoStub is a stub for repository.FollowRepository.
type followRepoStub struct {
	createFn         func(context.Context, *models.Follow) error
	deleteFn         func(context.Context, uint, uint) (int64, error)
	existsFn         func(context.Context, uint, uint) (bool, error)
	listFollowingFn  func(context.Context, uint) ([]models.User, error)
	listFollowersFn  func(context.Context, uint) ([]models.User, error)
	countFollowersFn func(context.Context, uint) (int64, error)
	countFollowingFn func(context.Context, uint) (int64, error)
}

func (s *followRepoStub) Create(ctx context.Context, f *models.Follow) error {
	return s.createFn(ctx, f)
}
func (s *followRepoStub) Delete(ctx context.Context, followerID, followingID uint) (int64, error) {
	return s.deleteFn(ctx, followerID, followingID)
}
func (s *followRepoStub) Exists(ctx context.Context, followerID, followingID uint) (bool, error) {
	return s.existsFn(ctx, followerID, followingID)
}
func (s *followRepoStub) ListFollowing(ctx context.Context, userID uint) ([]models.User, error) {
	return s.listFollowingFn(ctx, userID)
}
func (s *followRepoStub) ListFollowers(ctx context.Context, userID uint) ([]models.User, error) {
	return s.listFollowersFn(ctx, userID)
}
func (s *followRepoStub) CountFollowers(ctx context.Context, userID uint) (int64, error) {
	return s.countFollowersFn(ctx, userID)
}
func (s *followRepoStub) CountFollowing(ctx context.Context, userID uint) (int64, error) {
	return s.countFollowingFn(ctx, userID)
}

func noopFollowRepo() *followRepoStub {
	return &followRepoStub{
		createFn:         func(_ context.Context, _ *models.Follow) error { return nil },
		deleteFn:         func(_ context.Context, _, _ uint) (int64, error) { return 1, nil },
		existsFn:         func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		listFollowingFn:  func(_ context.Context, _ uint) ([]models.User, error) { return nil, nil },
		listFollowersFn:  func(_ context.Context, _ uint) ([]models.User, error) { return nil, nil },
		countFollowersFn: func(_ context.Context, _ uint) (int64, error) { return 0, nil },
		countFollowingFn: func(_ context.Context, _ uint) (int64, error) { return 0, nil },
	}
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn          func(context.Context, *models.Post) error
	getByIDFn         func(context.Context, uint) (*models.Post, error)
	getWithCommentsFn func(context.Context, uint) (*models.Post, error)
	existsFn          func(context.Context, uint) (bool, error)
	findAndCountFn    func(context.Context, repository.PostQuery) ([]models.Post, int64, error)
	getLikedPostIDsFn func(context.Context, uint, []uint) ([]uint, error)
	toggleLikeFn      func(context.Context, uint, uint) (models.LikeResult, error)
	deleteFn          func(context.Context, uint) error
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) GetWithComments(ctx context.Context, id uint) (*models.Post, error) {
	return s.getWithCommentsFn(ctx, id)
}
func (s *postRepoStub) Exists(ctx context.Context, id uint) (bool, error) {
	return s.existsFn(ctx, id)
}
func (s *postRepoStub) FindAndCount(ctx context.Context, q repository.PostQuery) ([]models.Post, int64, error) {
	return s.findAndCountFn(ctx, q)
}
func (s *postRepoStub) GetLikedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error) {
	return s.getLikedPostIDsFn(ctx, userID, postIDs)
}
func (s *postRepoStub) ToggleLike(ctx context.Context, postID, userID uint) (models.LikeResult, error) {
	return s.toggleLikeFn(ctx, postID, userID)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn: func(_ context.Context, p *models.Post) error {
			p.ID = 1
			return nil
		},
		getByIDFn:         func(_ context.Context, id uint) (*models.Post, error) { return &models.Post{ID: id, UserID: 1}, nil },
		getWithCommentsFn: func(_ context.Context, id uint) (*models.Post, error) { return &models.Post{ID: id}, nil },
		existsFn:          func(_ context.Context, _ uint) (bool, error) { return true, nil },
		findAndCountFn: func(_ context.Context, _ repository.PostQuery) ([]models.Post, int64, error) {
			return nil, 0, nil
		},
		getLikedPostIDsFn: func(_ context.Context, _ uint, _ []uint) ([]uint, error) { return nil, nil },
		toggleLikeFn: func(_ context.Context, _, _ uint) (models.LikeResult, error) {
			return models.LikeResult{Liked: true, LikesCount: 1}, nil
		},
		deleteFn: func(_ context.Context, _ uint) error { return nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn     func(context.Context, *models.Comment) error
	getByIDFn    func(context.Context, uint) (*models.Comment, error)
	listByPostFn func(context.Context, uint) ([]models.Comment, error)
	deleteFn     func(context.Context, *models.Comment) error
}

func (s *commentRepoStub) Create(ctx context.Context, c *models.Comment) error {
	return s.createFn(ctx, c)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint) ([]models.Comment, error) {
	return s.listByPostFn(ctx, postID)
}
func (s *commentRepoStub) Delete(ctx context.Context, c *models.Comment) error {
	return s.deleteFn(ctx, c)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn: func(_ context.Context, c *models.Comment) error {
			c.ID = 1
			return nil
		},
		getByIDFn: func(_ context.Context, id uint) (*models.Comment, error) {
			return &models.Comment{ID: id, PostID: 1, UserID: 1, User: &models.User{ID: 1, Email: "a@b.co", Password: "digest"}}, nil
		},
		listByPostFn: func(_ context.Context, _ uint) ([]models.Comment, error) { return nil, nil },
		deleteFn:     func(_ context.Context, _ *models.Comment) error { return nil },
	}
}

// reviewRepoStub is a stub for repository.ReviewRepository.
type reviewRepoStub struct {
	createFn        func(context.Context, *models.Review) error
	getByIDFn       func(context.Context, uint) (*models.Review, error)
	listFn          func(context.Context) ([]models.Review, error)
	listByMovieFn   func(context.Context, string) ([]models.Review, error)
	listByUserFn    func(context.Context, uint) ([]models.Review, error)
	averageRatingFn func(context.Context, string) (models.MovieRating, error)
	deleteFn        func(context.Context, uint) error
}

func (s *reviewRepoStub) Create(ctx context.Context, r *models.Review) error {
	return s.createFn(ctx, r)
}
func (s *reviewRepoStub) GetByID(ctx context.Context, id uint) (*models.Review, error) {
	return s.getByIDFn(ctx, id)
}
func (s *reviewRepoStub) List(ctx context.Context) ([]models.Review, error) {
	return s.listFn(ctx)
}
func (s *reviewRepoStub) ListByMovie(ctx context.Context, movieID string) ([]models.Review, error) {
	return s.listByMovieFn(ctx, movieID)
}
func (s *reviewRepoStub) ListByUser(ctx context.Context, userID uint) ([]models.Review, error) {
	return s.listByUserFn(ctx, userID)
}
func (s *reviewRepoStub) AverageRating(ctx context.Context, movieID string) (models.MovieRating, error) {
	return s.averageRatingFn(ctx, movieID)
}
func (s *reviewRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopReviewRepo() *reviewRepoStub {
	return &reviewRepoStub{
		createFn: func(_ context.Context, r *models.Review) error {
			r.ID = 1
			return nil
		},
		getByIDFn:     func(_ context.Context, id uint) (*models.Review, error) { return &models.Review{ID: id, UserID: 1}, nil },
		listFn:        func(_ context.Context) ([]models.Review, error) { return nil, nil },
		listByMovieFn: func(_ context.Context, _ string) ([]models.Review, error) { return nil, nil },
		listByUserFn:  func(_ context.Context, _ uint) ([]models.Review, error) { return nil, nil },
		averageRatingFn: func(_ context.Context, movieID string) (models.MovieRating, error) {
			return models.MovieRating{MovieID: movieID}, nil
		},
		deleteFn: func(_ context.Context, _ uint) error { return nil },
	}
}

// activityRecorder captures published activity events.
type activityRecorder struct {
	mu     sync.Mutex
	events map[uint][]notifications.Event
}

func newActivityRecorder() *activityRecorder {
	return &activityRecorder{events: make(map[uint][]notifications.Event)}
}

func (r *activityRecorder) Notify(_ context.Context, recipientID uint, ev notifications.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[recipientID] = append(r.events[recipientID], ev)
}

func (r *activityRecorder) For(recipientID uint) []notifications.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[recipientID]
}

// assertAppError asserts that err is an AppError with code.
func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}
