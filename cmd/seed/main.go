// Command main runs the database seeder for NextFilm.
package main

import (
	"context"
	"flag"
	"log"

	"nextfilm/internal/bootstrap"
	"nextfilm/internal/config"
	"nextfilm/internal/middleware"
	"nextfilm/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()

	numUsers := flag.Int("users", defaults.Users, "Number of users to create")
	postsPerUser := flag.Int("posts", defaults.PostsPerUser, "Posts per user")
	followsPerUser := flag.Int("follows", defaults.FollowsPerUser, "Accounts each user follows")
	likesPerPost := flag.Int("likes", defaults.LikesPerPost, "Likes per post")
	commentsPerPost := flag.Int("comments", defaults.CommentsPerPost, "Comments per post")
	reviewsPerUser := flag.Int("reviews", defaults.ReviewsPerUser, "Reviews per user")
	randSeed := flag.Int64("seed", defaults.Seed, "Random seed; equal seeds produce equal data")
	shouldClean := flag.Bool("clean", false, "Delete existing data before seeding")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}
	middleware.ConfigureLogger(cfg.Env)

	rt, err := bootstrap.InitRuntime(cfg, bootstrap.Options{ApplySchema: true})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	defer func() { _ = rt.Close() }()

	opts := defaults
	opts.Users = *numUsers
	opts.PostsPerUser = *postsPerUser
	opts.FollowsPerUser = *followsPerUser
	opts.LikesPerPost = *likesPerPost
	opts.CommentsPerPost = *commentsPerPost
	opts.ReviewsPerUser = *reviewsPerUser
	opts.Seed = *randSeed

	ctx := context.Background()
	seeder := seed.NewSeeder(rt.DB, rt.Redis, rt.Blobs, opts)

	if *shouldClean {
		if err := seeder.Clear(ctx); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	sum, err := seeder.Run(ctx)
	if err != nil {
		log.Fatalf("Seeding failed after %s: %v", sum, err)
	}
	log.Printf("Seeded %s; every account signs in with %q", sum, opts.Password)
}
