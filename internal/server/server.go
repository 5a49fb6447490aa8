// Package server contains the HTTP handlers for the NextFilm API.
package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nextfilm/internal/auth"
	"nextfilm/internal/cache"
	"nextfilm/internal/config"
	"nextfilm/internal/middleware"
	"nextfilm/internal/models"
	"nextfilm/internal/notifications"
	"nextfilm/internal/repository"
	"nextfilm/internal/service"
	"nextfilm/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	tokens      *auth.TokenService
	revocations *middleware.RevocationList
	notifier    *notifications.Notifier
	hub         *notifications.Hub
	localMedia  *storage.LocalStore

	authService    *service.AuthService
	userService    *service.UserService
	followService  *service.FollowService
	postService    *service.PostService
	commentService *service.CommentService
	feedService    *service.FeedService
	reviewService  *service.ReviewService
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; caching, revocation and activity events are then skipped.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, blobs storage.BlobStore) (*Server, error) {
	if blobs == nil {
		return nil, errors.New("blob store is required")
	}
	tokens, err := auth.NewTokenService(cfg.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("token service: %w", err)
	}

	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	reviewRepo := repository.NewReviewRepository(db)

	responseCache := cache.New(redisClient)
	notifier := notifications.NewNotifier(redisClient)
	revocations := middleware.NewRevocationList(redisClient)
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)
	media := service.NewMedia(blobs, cfg.SignedURLTTL())

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("nextfilm-api"),
		tokens:         tokens,
		revocations:    revocations,
		notifier:       notifier,
		hub:            notifications.NewHub(),
		localMedia:     localStoreOf(blobs),
	}

	s.followService = service.NewFollowService(followRepo, userRepo, notifier)
	s.userService = service.NewUserService(userRepo, s.followService, hasher, media, responseCache)
	s.authService = service.NewAuthService(userRepo, s.userService, hasher, tokens, revocations, media)
	s.postService = service.NewPostService(postRepo, userRepo, media, notifier)
	s.commentService = service.NewCommentService(commentRepo, postRepo, userRepo, notifier)
	s.feedService = service.NewFeedService(postRepo, media, cfg.FeedEnrichConcurrency)
	s.reviewService = service.NewReviewService(reviewRepo, media, responseCache)

	return s, nil
}

// localStoreOf finds the disk-backed store behind any decorators, so /media/* can serve it.
func localStoreOf(blobs storage.BlobStore) *storage.LocalStore {
	for {
		switch b := blobs.(type) {
		case *storage.LocalStore:
			return b
		case interface{ Unwrap() storage.BlobStore }:
			blobs = b.Unwrap()
		default:
			return nil
		}
	}
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Server span before the context middleware so trace ids reach the logs
	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:3000,http://127.0.0.1:3000"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: origins != "*",
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	required := middleware.RequireIdentity(s.tokens, s.revocations)
	optional := middleware.OptionalIdentity(s.tokens, s.revocations)

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Signed local blobs
	if s.localMedia != nil {
		app.Get("/media/*", s.ServeMedia)
	}

	api := app.Group("/api")

	// Auth routes
	authGroup := api.Group("/auth")
	authGroup.Post("/signup", middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "signup"), s.Signup)
	authGroup.Post("/signin", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "signin"), s.SignIn)
	authGroup.Get("/session", optional, s.Session)
	authGroup.Post("/signout", optional, s.SignOut)

	// User routes
	users := api.Group("/users")
	users.Get("/", s.GetUsers)
	// Define specific routes BEFORE generic /:id route
	users.Put("/profile", required, s.UpdateProfile)
	users.Post("/:id/follow", required, s.FollowUser)
	users.Delete("/:id/follow", required, s.UnfollowUser)
	users.Get("/:id/following", s.GetFollowing)
	users.Get("/:id/followers", s.GetFollowers)
	users.Get("/:id/posts", s.GetUserPosts)
	users.Get("/:id/reviews", s.GetUserReviews)
	users.Get("/:id", optional, s.GetUserProfile)

	// Post routes
	posts := api.Group("/posts")
	posts.Get("/", optional, s.GetFeed)
	posts.Get("/me", required, s.GetMyPosts)
	posts.Post("/", required, middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "create_post"), s.CreatePost)
	// Define specific /:id/:resource routes BEFORE generic /:id route
	posts.Post("/:id/like", required, s.ToggleLike)
	posts.Get("/:id/comments", s.GetComments)
	posts.Post("/:id/comments", required, middleware.RateLimit(
		s.redis, 20, time.Minute, "create_comment"), s.CreateComment)
	posts.Delete("/:id/comments/:commentId", required, s.DeleteComment)
	posts.Get("/:id", s.GetPost)
	posts.Delete("/:id", required, s.DeletePost)

	// Review routes
	reviews := api.Group("/reviews")
	reviews.Get("/", s.GetReviews)
	reviews.Post("/", required, s.CreateReview)
	reviews.Get("/movies/:movieId/rating", s.GetMovieRating)
	reviews.Get("/movies/:movieId", s.GetMovieReviews)
	reviews.Get("/:id", s.GetReview)
	reviews.Delete("/:id", required, s.DeleteReview)

	// Realtime activity
	api.Get("/ws/activity", required, s.ActivityStream())
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional, so
// only the database gates readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if s.db == nil {
		dbStatus = "unhealthy"
	} else if sqlDB, err := s.db.DB(); err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	} else if redisStatus == "unhealthy" {
		overallStatus = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// NewApp builds a Fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "NextFilm API",
		BodyLimit: int(s.config.UploadMaxBytes()) + 1024*1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.NewApp()

	// Activity fan-out; runs until Shutdown cancels shutdownCtx
	if err := s.startActivityFanout(s.shutdownCtx); err != nil {
		middleware.Logger.Warn("activity streams will not receive events", "error", err)
	}

	middleware.Logger.Info("server starting", "port", s.config.Port, "env", s.config.Env)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Cancel the server-scoped context to stop the activity subscriber
	if s.shutdownFn != nil {
		s.shutdownFn()
	}
	if s.hub != nil {
		_ = s.hub.Shutdown(ctx)
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	// Close database connection
	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			if cerr := sqlDB.Close(); cerr != nil {
				middleware.Logger.Error("error closing sql DB", "error", cerr)
			}
		}
	}

	// Close Redis connection
	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", "error", rerr)
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
