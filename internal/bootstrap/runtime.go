// Package bootstrap wires the process-wide dependencies shared by the commands.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"nextfilm/internal/cache"
	"nextfilm/internal/config"
	"nextfilm/internal/database"
	"nextfilm/internal/observability"
	"nextfilm/internal/storage"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// ApplySchema runs migrations per DB_SCHEMA_MODE after connecting.
	ApplySchema bool
}

// Runtime holds the connected backing services.
type Runtime struct {
	DB    *gorm.DB
	Redis *redis.Client
	Blobs storage.BlobStore
}

// InitRuntime connects to the database, Redis and the blob store. Redis is
// optional: an unreachable server leaves Runtime.Redis nil.
func InitRuntime(cfg *config.Config, opts Options) (*Runtime, error) {
	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: opts.ApplySchema})
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	blobs, err := NewBlobStore(cfg)
	if err != nil {
		closeDB(db)
		return nil, fmt.Errorf("blob store: %w", err)
	}

	return &Runtime{
		DB:    db,
		Redis: cache.Connect(cfg.RedisURL),
		Blobs: blobs,
	}, nil
}

// NewBlobStore builds the STORAGE_DRIVER backend wrapped with metrics and spans.
func NewBlobStore(cfg *config.Config) (storage.BlobStore, error) {
	switch cfg.StorageDriver {
	case "supabase":
		store, err := storage.NewSupabaseStore(storage.SupabaseConfig{
			ProjectURL: cfg.SupabaseURL,
			ServiceKey: cfg.SupabaseServiceKey,
			Bucket:     cfg.StorageBucket,
		})
		if err != nil {
			return nil, err
		}
		observability.Logger.Info("blob storage ready", slog.String("driver", "supabase"), slog.String("bucket", cfg.StorageBucket))
		return storage.Instrument(store, "supabase"), nil
	case "local", "":
		store, err := storage.NewLocalStore(cfg.StorageLocalDir, cfg.StoragePublicURL, cfg.JWTSecret)
		if err != nil {
			return nil, err
		}
		observability.Logger.Info("blob storage ready", slog.String("driver", "local"), slog.String("dir", cfg.StorageLocalDir))
		return storage.Instrument(store, "local"), nil
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.StorageDriver)
	}
}

// InitTracing starts the configured span exporter for serviceName.
func InitTracing(cfg *config.Config, serviceName string) (func(context.Context) error, error) {
	return observability.InitTracing(observability.TracingConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Exporter:       cfg.OTelExporter,
		OTLPEndpoint:   cfg.OTelEndpoint,
		SamplerRatio:   1.0,
	})
}

// Close releases the database and Redis connections.
func (r *Runtime) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.DB != nil {
		if sqlDB, err := r.DB.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	if r.Redis != nil {
		errs = append(errs, r.Redis.Close())
	}
	return errors.Join(errs...)
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
