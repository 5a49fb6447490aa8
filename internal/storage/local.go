package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const mediaAudience = "nextfilm-media"

// LocalStore keeps blobs on disk and hands out HMAC-signed URLs served by /media/*.
type LocalStore struct {
	dir        string
	publicBase string
	secret     []byte
	now        func() time.Time
}

// NewLocalStore creates dir if needed. publicBase is the externally visible
// server origin used to build signed URLs.
func NewLocalStore(dir, publicBase, secret string) (*LocalStore, error) {
	if dir == "" {
		return nil, errors.New("local storage: directory is required")
	}
	if secret == "" {
		return nil, errors.New("local storage: signing secret is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("local storage: create %s: %w", dir, err)
	}
	return &LocalStore{
		dir:        dir,
		publicBase: strings.TrimRight(publicBase, "/"),
		secret:     []byte(secret),
		now:        time.Now,
	}, nil
}

// WithClock replaces the time source; used by tests.
func (s *LocalStore) WithClock(now func() time.Time) *LocalStore {
	s.now = now
	return s
}

func (s *LocalStore) fullPath(path string) (string, error) {
	if !validPath(path) {
		return "", fmt.Errorf("local storage: invalid path %q", path)
	}
	return filepath.Join(s.dir, filepath.FromSlash(path)), nil
}

// Upload writes data at path and refuses to overwrite an existing object.
func (s *LocalStore) Upload(_ context.Context, path string, data []byte, _ string) error {
	full, err := s.fullPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("local storage: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(full)
		return fmt.Errorf("local storage: %w", err)
	}
	return f.Close()
}

// CreateSignedURL returns {publicBase}/media/{path}?token=... valid for ttl.
func (s *LocalStore) CreateSignedURL(_ context.Context, path string, ttl time.Duration) (string, error) {
	full, err := s.fullPath(path)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", err
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   path,
		Audience:  jwt.ClaimStrings{mediaAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", err
	}
	return s.publicBase + "/media/" + path + "?token=" + url.QueryEscape(token), nil
}

// Remove deletes paths. Missing files are ignored.
func (s *LocalStore) Remove(_ context.Context, paths []string) error {
	for _, p := range paths {
		full, err := s.fullPath(p)
		if err != nil {
			return err
		}
		if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("local storage: %w", err)
		}
	}
	return nil
}

// VerifyToken reports whether token grants access to path right now.
func (s *LocalStore) VerifyToken(token, path string) bool {
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(mediaAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	return err == nil && parsed.Valid && claims.Subject == path
}

// FilePath resolves path to its location on disk.
func (s *LocalStore) FilePath(path string) (string, error) {
	return s.fullPath(path)
}
