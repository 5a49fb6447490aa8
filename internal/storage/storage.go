// Package storage holds the blob store used for avatars and post and review images.
package storage

import (
	"context"
	"errors"
	"mime"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Path collections.
const (
	CollectionAvatars = "avatars"
	CollectionPosts   = "posts"
)

// ErrNotFound is returned when an object does not exist.
var ErrNotFound = errors.New("storage: object not found")

// BlobStore stores opaque binary objects addressed by path.
type BlobStore interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) error
	CreateSignedURL(ctx context.Context, path string, ttl time.Duration) (string, error)
	Remove(ctx context.Context, paths []string) error
}

var knownExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// ExtensionFor returns the file extension used for contentType, without the dot.
func ExtensionFor(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}
	if ext, ok := knownExtensions[mediaType]; ok {
		return ext
	}
	if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
		return strings.TrimPrefix(exts[0], ".")
	}
	return "bin"
}

// NewPath returns a fresh "{collection}/{uuid}.{ext}" path.
func NewPath(collection, contentType string) string {
	return collection + "/" + uuid.NewString() + "." + ExtensionFor(contentType)
}

func validPath(path string) bool {
	if path == "" || strings.HasPrefix(path, "/") || strings.Contains(path, "\\") {
		return false
	}
	for _, seg := range strings.Split(path, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return false
		}
	}
	return true
}
