// Command main is the entry point for the NextFilm backend server.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nextfilm/internal/bootstrap"
	"nextfilm/internal/config"
	"nextfilm/internal/middleware"
	"nextfilm/internal/server"
)

// @title NextFilm API
// @version 1.0
// @description Movie review social feed: profiles, follows, posts, likes, comments and reviews

// @host localhost:8080
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token, or send the session cookie.

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	middleware.ConfigureLogger(cfg.Env)

	shutdownTracing, err := bootstrap.InitTracing(cfg, "nextfilm-api")
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	rt, err := bootstrap.InitRuntime(cfg, bootstrap.Options{ApplySchema: true})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	srv, err := server.NewServerWithDeps(cfg, rt.DB, rt.Redis, rt.Blobs)
	if err != nil {
		_ = rt.Close()
		log.Fatalf("Failed to create server: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		middleware.Logger.Info("shutting down server", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			middleware.Logger.Error("server stopped", "error", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown also closes the database and Redis handed over by the runtime.
	if err := srv.Shutdown(ctx); err != nil {
		middleware.Logger.Error("server resource shutdown error", "error", err)
	}
	if err := shutdownTracing(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		middleware.Logger.Error("tracer shutdown error", "error", err)
	}
}
