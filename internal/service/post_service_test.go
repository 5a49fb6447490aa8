package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"nextfilm/internal/models"
	"nextfilm/internal/notifications"
	"nextfilm/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("content required", func(t *testing.T) {
		svc := NewPostService(noopPostRepo(), noopUserRepo(), NewMedia(testutil.NewBlobStub(), 0), nil)
		_, err := svc.Create(ctx, CreatePostInput{UserID: 1, Content: "   "})
		assertAppError(t, err, models.CodeValidation)
	})

	t.Run("image uploaded before the row", func(t *testing.T) {
		blobs := testutil.NewBlobStub()
		posts := noopPostRepo()
		var stored *models.Post
		posts.createFn = func(_ context.Context, p *models.Post) error {
			assert.True(t, blobs.Has(p.ImagePath), "blob must exist before the row is written")
			stored = p
			p.ID = 11
			return nil
		}

		svc := NewPostService(posts, noopUserRepo(), NewMedia(blobs, 0), nil)
		detail, err := svc.Create(ctx, CreatePostInput{
			UserID:  1,
			Content: "First watch of Stalker",
			Image:   &Image{Data: []byte("webp"), ContentType: "image/webp"},
		})
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.True(t, strings.HasPrefix(stored.ImagePath, "posts/"))
		assert.True(t, strings.HasSuffix(stored.ImagePath, ".webp"))
		assert.Equal(t, uint(11), detail.ID)
		require.NotNil(t, detail.ImageURL)
		assert.Zero(t, detail.LikesCount)
		assert.Empty(t, detail.Comments)
	})

	t.Run("upload failure is fatal and nothing persists", func(t *testing.T) {
		blobs := testutil.NewBlobStub()
		blobs.FailUpload = errors.New("503 from storage")
		posts := noopPostRepo()
		posts.createFn = func(_ context.Context, _ *models.Post) error {
			t.Fatal("create should not run")
			return nil
		}

		svc := NewPostService(posts, noopUserRepo(), NewMedia(blobs, 0), nil)
		_, err := svc.Create(ctx, CreatePostInput{
			UserID:  1,
			Content: "x",
			Image:   &Image{Data: []byte("png"), ContentType: "image/png"},
		})
		assertAppError(t, err, models.CodeStorage)
		assert.Equal(t, "Error uploading image", err.(*models.AppError).Message)
	})
}

func TestPostService_ToggleLike(t *testing.T) {
	ctx := context.Background()

	t.Run("missing post", func(t *testing.T) {
		posts := noopPostRepo()
		posts.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
			return nil, models.NewNotFoundError("Post", id)
		}
		svc := NewPostService(posts, noopUserRepo(), NewMedia(testutil.NewBlobStub(), 0), nil)
		_, err := svc.ToggleLike(ctx, 9, 1)
		assertAppError(t, err, models.CodeNotFound)
	})

	t.Run("missing user", func(t *testing.T) {
		users := noopUserRepo()
		users.existsFn = func(_ context.Context, _ uint) (bool, error) { return false, nil }
		svc := NewPostService(noopPostRepo(), users, NewMedia(testutil.NewBlobStub(), 0), nil)
		_, err := svc.ToggleLike(ctx, 1, 99)
		assertAppError(t, err, models.CodeNotFound)
	})

	t.Run("like notifies the owner", func(t *testing.T) {
		posts := noopPostRepo()
		posts.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
			return &models.Post{ID: id, UserID: 5}, nil
		}
		activity := newActivityRecorder()
		svc := NewPostService(posts, noopUserRepo(), NewMedia(testutil.NewBlobStub(), 0), activity)

		res, err := svc.ToggleLike(ctx, 1, 2)
		require.NoError(t, err)
		assert.Equal(t, models.LikeResult{Liked: true, LikesCount: 1}, res)
		events := activity.For(5)
		require.Len(t, events, 1)
		assert.Equal(t, notifications.EventPostLiked, events[0].Type)
		assert.Equal(t, uint(1), events[0].PostID)
	})

	t.Run("unlike is silent", func(t *testing.T) {
		posts := noopPostRepo()
		posts.toggleLikeFn = func(_ context.Context, _, _ uint) (models.LikeResult, error) {
			return models.LikeResult{Liked: false, LikesCount: 0}, nil
		}
		activity := newActivityRecorder()
		svc := NewPostService(posts, noopUserRepo(), NewMedia(testutil.NewBlobStub(), 0), activity)

		res, err := svc.ToggleLike(ctx, 1, 2)
		require.NoError(t, err)
		assert.False(t, res.Liked)
		assert.Empty(t, activity.For(1))
	})
}

func TestPostService_Delete(t *testing.T) {
	ctx := context.Background()
	withImage := func(_ context.Context, id uint) (*models.Post, error) {
		return &models.Post{ID: id, UserID: 1, ImagePath: "posts/a.png"}, nil
	}

	t.Run("not the owner", func(t *testing.T) {
		posts := noopPostRepo()
		posts.getByIDFn = withImage
		posts.deleteFn = func(_ context.Context, _ uint) error {
			t.Fatal("delete should not run")
			return nil
		}
		svc := NewPostService(posts, noopUserRepo(), NewMedia(testutil.NewBlobStub(), 0), nil)
		assertAppError(t, svc.Delete(ctx, 1, 2), models.CodeForbidden)
	})

	t.Run("blob removal failure keeps the post", func(t *testing.T) {
		blobs := testutil.NewBlobStub()
		blobs.FailRemove = errors.New("timeout")
		posts := noopPostRepo()
		posts.getByIDFn = withImage
		deleted := false
		posts.deleteFn = func(_ context.Context, _ uint) error {
			deleted = true
			return nil
		}

		svc := NewPostService(posts, noopUserRepo(), NewMedia(blobs, 0), nil)
		assertAppError(t, svc.Delete(ctx, 1, 1), models.CodeStorage)
		assert.False(t, deleted)
	})

	t.Run("removes blob then row", func(t *testing.T) {
		blobs := testutil.NewBlobStub()
		blobs.Put("posts/a.png", []byte("png"))
		posts := noopPostRepo()
		posts.getByIDFn = withImage
		posts.deleteFn = func(_ context.Context, _ uint) error {
			assert.False(t, blobs.Has("posts/a.png"))
			return nil
		}

		svc := NewPostService(posts, noopUserRepo(), NewMedia(blobs, 0), nil)
		require.NoError(t, svc.Delete(ctx, 1, 1))
	})
}
