package service

import (
	"context"
	"time"

	"nextfilm/internal/models"
	"nextfilm/internal/observability"
	"nextfilm/internal/storage"
)

// DefaultSignedURLTTL is how long read-path image URLs stay valid.
const DefaultSignedURLTTL = time.Hour

// Image is an uploaded file already checked for size and MIME type by the HTTP layer.
type Image struct {
	Data        []byte
	ContentType string
}

// Media uploads, signs and removes blobs on behalf of the services.
type Media struct {
	store storage.BlobStore
	ttl   time.Duration
	log   *observability.ServiceLogger
}

// NewMedia wraps store. A zero ttl uses DefaultSignedURLTTL.
func NewMedia(store storage.BlobStore, ttl time.Duration) *Media {
	if ttl <= 0 {
		ttl = DefaultSignedURLTTL
	}
	return &Media{store: store, ttl: ttl, log: observability.NewServiceLogger("media")}
}

// SignedURL resolves path to a signed URL. Read paths degrade: an empty path
// or a store failure yields nil.
func (m *Media) SignedURL(ctx context.Context, path string) *string {
	if path == "" || m == nil || m.store == nil {
		return nil
	}
	url, err := m.store.CreateSignedURL(ctx, path, m.ttl)
	if err != nil {
		m.log.Warn(ctx, "signed url unavailable", "path", path, "error", err.Error())
		return nil
	}
	return &url
}

// Upload stores img under a fresh path in collection and returns the path.
func (m *Media) Upload(ctx context.Context, collection string, img *Image) (string, error) {
	path := storage.NewPath(collection, img.ContentType)
	if err := m.store.Upload(ctx, path, img.Data, img.ContentType); err != nil {
		return "", models.NewStorageError("Error uploading image", err)
	}
	return path, nil
}

// Remove deletes the blob at path. Write paths propagate the failure.
func (m *Media) Remove(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}
	if err := m.store.Remove(ctx, []string{path}); err != nil {
		return models.NewStorageError("Error deleting image", err)
	}
	return nil
}

// orphaned logs a blob left behind because its row was never written.
func (m *Media) orphaned(ctx context.Context, path string, cause error) {
	m.log.Error(ctx, "blob orphaned after failed write", cause, "path", path)
}
