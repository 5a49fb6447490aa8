// Package seed fills a development database with demo users and activity.
// Everything goes through the services so counters and cache keys stay consistent.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"nextfilm/internal/auth"
	"nextfilm/internal/cache"
	"nextfilm/internal/models"
	"nextfilm/internal/observability"
	"nextfilm/internal/repository"
	"nextfilm/internal/service"
	"nextfilm/internal/storage"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password every seeded account signs in with.
const DefaultPassword = "password123"

// Options configuration for the seeder
type Options struct {
	Users           int
	PostsPerUser    int
	FollowsPerUser  int
	LikesPerPost    int
	CommentsPerPost int
	ReviewsPerUser  int
	Password        string
	// Seed makes runs reproducible.
	Seed int64
	// BcryptCost trades hash strength for seeding speed.
	BcryptCost int
}

// DefaultOptions is a small but lively dataset.
func DefaultOptions() Options {
	return Options{
		Users:           20,
		PostsPerUser:    3,
		FollowsPerUser:  5,
		LikesPerPost:    4,
		CommentsPerPost: 2,
		ReviewsPerUser:  2,
		Password:        DefaultPassword,
		Seed:            42,
		BcryptCost:      bcrypt.MinCost,
	}
}

// Summary counts what a run created.
type Summary struct {
	Users    int
	Follows  int
	Posts    int
	Likes    int
	Comments int
	Reviews  int
}

func (s Summary) String() string {
	return fmt.Sprintf("users=%d follows=%d posts=%d likes=%d comments=%d reviews=%d",
		s.Users, s.Follows, s.Posts, s.Likes, s.Comments, s.Reviews)
}

// Seeder drives the services with generated data.
type Seeder struct {
	db       *gorm.DB
	users    *service.UserService
	follows  *service.FollowService
	posts    *service.PostService
	comments *service.CommentService
	reviews  *service.ReviewService
	factory  *Factory
	opts     Options
	log      *observability.ServiceLogger
}

// NewSeeder wires the write services over db. rdb may be nil.
func NewSeeder(db *gorm.DB, rdb *redis.Client, blobs storage.BlobStore, opts Options) *Seeder {
	if opts.Password == "" {
		opts.Password = DefaultPassword
	}

	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	reviewRepo := repository.NewReviewRepository(db)

	c := cache.New(rdb)
	media := service.NewMedia(blobs, 0)
	hasher := auth.NewPasswordHasher(opts.BcryptCost)

	follows := service.NewFollowService(followRepo, userRepo, nil)
	return &Seeder{
		db:       db,
		users:    service.NewUserService(userRepo, follows, hasher, media, c),
		follows:  follows,
		posts:    service.NewPostService(postRepo, userRepo, media, nil),
		comments: service.NewCommentService(commentRepo, postRepo, userRepo, nil),
		reviews:  service.NewReviewService(reviewRepo, media, c),
		factory:  NewFactory(opts.Seed),
		opts:     opts,
		log:      observability.NewServiceLogger("seed"),
	}
}

// Run creates users, then the follow graph, posts with likes and comments, and reviews.
func (s *Seeder) Run(ctx context.Context) (Summary, error) {
	var sum Summary

	users, err := s.seedUsers(ctx)
	sum.Users = len(users)
	if err != nil {
		return sum, err
	}

	if sum.Follows, err = s.seedFollows(ctx, users); err != nil {
		return sum, err
	}
	if err := s.seedPosts(ctx, users, &sum); err != nil {
		return sum, err
	}
	if sum.Reviews, err = s.seedReviews(ctx, users); err != nil {
		return sum, err
	}

	s.log.Info(ctx, "seeding complete", slog.String("summary", sum.String()))
	return sum, nil
}

func (s *Seeder) seedUsers(ctx context.Context) ([]*models.User, error) {
	users := make([]*models.User, 0, s.opts.Users)
	for i := 0; i < s.opts.Users; i++ {
		user, err := s.users.Create(ctx, s.factory.User(s.opts.Password))
		if models.HasCode(err, models.CodeConflict) {
			continue
		}
		if err != nil {
			return users, fmt.Errorf("create user: %w", err)
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *Seeder) seedFollows(ctx context.Context, users []*models.User) (int, error) {
	n := 0
	for i, follower := range users {
		for _, j := range s.factory.Pick(len(users), s.opts.FollowsPerUser, i) {
			err := s.follows.Follow(ctx, follower.ID, users[j].ID)
			if models.HasCode(err, models.CodeConflict) {
				continue
			}
			if err != nil {
				return n, fmt.Errorf("follow: %w", err)
			}
			n++
		}
	}
	return n, nil
}

func (s *Seeder) seedPosts(ctx context.Context, users []*models.User, sum *Summary) error {
	for i, author := range users {
		for p := 0; p < s.opts.PostsPerUser; p++ {
			post, err := s.posts.Create(ctx, service.CreatePostInput{
				UserID:  author.ID,
				Content: s.factory.PostContent(),
			})
			if err != nil {
				return fmt.Errorf("create post: %w", err)
			}
			sum.Posts++

			for _, j := range s.factory.Pick(len(users), s.opts.LikesPerPost, i) {
				if _, err := s.posts.ToggleLike(ctx, post.ID, users[j].ID); err != nil {
					return fmt.Errorf("like post: %w", err)
				}
				sum.Likes++
			}

			for _, j := range s.factory.Pick(len(users), s.opts.CommentsPerPost, -1) {
				if _, err := s.comments.Add(ctx, service.AddCommentInput{
					UserID:  users[j].ID,
					PostID:  post.ID,
					Content: s.factory.Comment(),
				}); err != nil {
					return fmt.Errorf("comment: %w", err)
				}
				sum.Comments++
			}
		}
	}
	return nil
}

func (s *Seeder) seedReviews(ctx context.Context, users []*models.User) (int, error) {
	n := 0
	for _, author := range users {
		for r := 0; r < s.opts.ReviewsPerUser; r++ {
			if _, err := s.reviews.Create(ctx, s.factory.Review(author.ID)); err != nil {
				return n, fmt.Errorf("create review: %w", err)
			}
			n++
		}
	}
	return n, nil
}

// Clear deletes every NextFilm row, children first.
func (s *Seeder) Clear(ctx context.Context) error {
	tx := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, model := range []any{
		&models.Like{},
		&models.Comment{},
		&models.Review{},
		&models.Follow{},
		&models.Post{},
		&models.User{},
	} {
		if err := tx.Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	s.log.Info(ctx, "existing data cleared")
	return nil
}
