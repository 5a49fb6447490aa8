package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SupabaseConfig configures a SupabaseStore.
type SupabaseConfig struct {
	ProjectURL string
	ServiceKey string
	Bucket     string
	HTTPClient *http.Client
}

// SupabaseStore talks to the Supabase Storage REST API.
type SupabaseStore struct {
	base   string
	key    string
	bucket string
	client *http.Client
}

// NewSupabaseStore validates cfg and returns a store.
func NewSupabaseStore(cfg SupabaseConfig) (*SupabaseStore, error) {
	if cfg.ProjectURL == "" {
		return nil, errors.New("supabase: project URL is required")
	}
	if cfg.ServiceKey == "" {
		return nil, errors.New("supabase: service key is required")
	}
	if _, err := url.Parse(cfg.ProjectURL); err != nil {
		return nil, fmt.Errorf("supabase: invalid project URL: %w", err)
	}
	bucket := cfg.Bucket
	if bucket == "" {
		bucket = "nextfilms"
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &SupabaseStore{
		base:   strings.TrimRight(cfg.ProjectURL, "/") + "/storage/v1",
		key:    cfg.ServiceKey,
		bucket: bucket,
		client: client,
	}, nil
}

func (s *SupabaseStore) objectURL(parts ...string) string {
	escaped := make([]string, 0, len(parts))
	for _, p := range parts {
		for _, seg := range strings.Split(p, "/") {
			escaped = append(escaped, url.PathEscape(seg))
		}
	}
	return s.base + "/" + strings.Join(escaped, "/")
}

// Upload stores data at path. Existing objects are not overwritten.
func (s *SupabaseStore) Upload(ctx context.Context, path string, data []byte, contentType string) error {
	if !validPath(path) {
		return fmt.Errorf("supabase: invalid path %q", path)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.objectURL("object", s.bucket, path), bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "false")
	_, err = s.do(req)
	return err
}

type signRequest struct {
	ExpiresIn int `json:"expiresIn"`
}

type signResponse struct {
	SignedURL string `json:"signedURL"`
}

// CreateSignedURL returns a URL granting read access to path for ttl.
func (s *SupabaseStore) CreateSignedURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	if !validPath(path) {
		return "", fmt.Errorf("supabase: invalid path %q", path)
	}
	body, err := json.Marshal(signRequest{ExpiresIn: int(ttl.Seconds())})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.objectURL("object", "sign", s.bucket, path), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	raw, err := s.do(req)
	if err != nil {
		return "", err
	}
	var out signResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("supabase: decode signed url: %w", err)
	}
	if out.SignedURL == "" {
		return "", errors.New("supabase: empty signed url")
	}
	if strings.HasPrefix(out.SignedURL, "http://") || strings.HasPrefix(out.SignedURL, "https://") {
		return out.SignedURL, nil
	}
	return s.base + "/" + strings.TrimPrefix(out.SignedURL, "/"), nil
}

type removeRequest struct {
	Prefixes []string `json:"prefixes"`
}

// Remove deletes paths in one request. Missing objects are not an error.
func (s *SupabaseStore) Remove(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	body, err := json.Marshal(removeRequest{Prefixes: paths})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.objectURL("object", s.bucket), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	_, err = s.do(req)
	return err
}

func (s *SupabaseStore) do(req *http.Request) ([]byte, error) {
	req.Header.Set("Authorization", "Bearer "+s.key)
	req.Header.Set("apikey", s.key)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("supabase: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("supabase: read response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("supabase: %s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return raw, nil
}
