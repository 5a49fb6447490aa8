package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"nextfilm/internal/models"
	"nextfilm/internal/repository"
	"nextfilm/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePage(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name             string
		page, size       int
		wantPage, wantSz int
	}{
		{"defaults", 0, 0, 1, 10},
		{"negative", -3, -1, 1, 10},
		{"passthrough", 3, 20, 3, 20},
		{"capped", 1, 500, 1, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, s := normalizePage(tt.page, tt.size)
			assert.Equal(t, tt.wantPage, p)
			assert.Equal(t, tt.wantSz, s)
		})
	}
}

func TestSortOrder(t *testing.T) {
	t.Parallel()
	tests := []struct {
		key      string
		column   string
		wantDesc bool
	}{
		{"createdAt", repository.OrderCreatedAt, true},
		{"likesCount", repository.OrderLikesCount, false},
		{"commentsCount", repository.OrderCommentsCount, false},
		{"updatedAt", repository.OrderUpdatedAt, false},
		{"password", repository.OrderCreatedAt, true},
		{"", repository.OrderCreatedAt, true},
	}
	for _, tt := range tests {
		column, desc := sortOrder(tt.key)
		assert.Equal(t, tt.column, column, tt.key)
		assert.Equal(t, tt.wantDesc, desc, tt.key)
	}
}

func feedPosts(n int) []models.Post {
	posts := make([]models.Post, n)
	for i := range posts {
		posts[i] = models.Post{
			ID:        uint(i + 1),
			Content:   "post",
			UserID:    100,
			ImagePath: "posts/p.png",
			User:      models.User{ID: 100, Username: "ada", Email: "ada@example.com", Password: "digest", Avatar: "avatars/a.png"},
			CreatedAt: time.Unix(int64(i), 0),
		}
	}
	return posts
}

func TestFeedService_GetPage(t *testing.T) {
	blobs := testutil.NewBlobStub()
	blobs.Put("posts/p.png", []byte("png"))
	blobs.Put("avatars/a.png", []byte("png"))

	var likedCalls atomic.Int32
	var gotQuery repository.PostQuery
	posts := noopPostRepo()
	posts.findAndCountFn = func(_ context.Context, q repository.PostQuery) ([]models.Post, int64, error) {
		gotQuery = q
		return feedPosts(3), 23, nil
	}
	posts.getLikedPostIDsFn = func(_ context.Context, viewerID uint, ids []uint) ([]uint, error) {
		likedCalls.Add(1)
		assert.Equal(t, uint(7), viewerID)
		assert.Equal(t, []uint{1, 2, 3}, ids)
		return []uint{2}, nil
	}

	svc := NewFeedService(posts, NewMedia(blobs, 0), 2)
	page, err := svc.GetPage(context.Background(), FeedQuery{Page: 2, PageSize: 10, SortKey: "likesCount", ViewerID: 7})
	require.NoError(t, err)

	assert.Equal(t, repository.PostQuery{OrderBy: repository.OrderLikesCount, Desc: false, Limit: 10, Offset: 10}, gotQuery)
	assert.Equal(t, int32(1), likedCalls.Load(), "like state is fetched once per page")
	assert.True(t, page.HasNextPage)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, int64(23), page.Total)
	require.Len(t, page.Posts, 3)

	for _, item := range page.Posts {
		assert.Equal(t, item.ID == 2, item.IsLiked)
		require.NotNil(t, item.ImageURL)
		require.NotNil(t, item.User.AvatarURL)
		assert.Equal(t, "ada", item.User.Username)
	}
}

func TestFeedService_HasNextPageBoundary(t *testing.T) {
	posts := noopPostRepo()
	posts.findAndCountFn = func(_ context.Context, _ repository.PostQuery) ([]models.Post, int64, error) {
		return feedPosts(10), 20, nil
	}
	svc := NewFeedService(posts, NewMedia(testutil.NewBlobStub(), 0), 0)

	page, err := svc.GetPage(context.Background(), FeedQuery{Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.False(t, page.HasNextPage)
	assert.Equal(t, 2, page.TotalPages)
}

func TestFeedService_Degradation(t *testing.T) {
	blobs := testutil.NewBlobStub()
	blobs.FailSign = errors.New("storage unavailable")

	posts := noopPostRepo()
	posts.findAndCountFn = func(_ context.Context, _ repository.PostQuery) ([]models.Post, int64, error) {
		return feedPosts(2), 2, nil
	}
	posts.getLikedPostIDsFn = func(_ context.Context, _ uint, _ []uint) ([]uint, error) {
		return nil, errors.New("connection reset")
	}

	svc := NewFeedService(posts, NewMedia(blobs, 0), 4)
	page, err := svc.GetPage(context.Background(), FeedQuery{ViewerID: 1})
	require.NoError(t, err)
	require.Len(t, page.Posts, 2)
	for _, item := range page.Posts {
		assert.Nil(t, item.ImageURL)
		assert.Nil(t, item.User.AvatarURL)
		assert.False(t, item.IsLiked)
	}
}

func TestFeedService_AnonymousSkipsLikeQuery(t *testing.T) {
	posts := noopPostRepo()
	posts.findAndCountFn = func(_ context.Context, _ repository.PostQuery) ([]models.Post, int64, error) {
		return feedPosts(1), 1, nil
	}
	posts.getLikedPostIDsFn = func(_ context.Context, _ uint, _ []uint) ([]uint, error) {
		t.Fatal("anonymous viewers never query like state")
		return nil, nil
	}
	svc := NewFeedService(posts, NewMedia(testutil.NewBlobStub(), 0), 0)

	page, err := svc.GetPage(context.Background(), FeedQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 10, page.Limit)
}

func TestFeedService_GetByOwner(t *testing.T) {
	var gotQuery repository.PostQuery
	posts := noopPostRepo()
	posts.findAndCountFn = func(_ context.Context, q repository.PostQuery) ([]models.Post, int64, error) {
		gotQuery = q
		return nil, 0, nil
	}
	svc := NewFeedService(posts, NewMedia(testutil.NewBlobStub(), 0), 0)

	page, err := svc.GetByOwner(context.Background(), 9, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, repository.PostQuery{OwnerID: 9, OrderBy: repository.OrderCreatedAt, Desc: true, Limit: 50}, gotQuery)
	assert.NotNil(t, page.Posts)
	assert.Zero(t, page.TotalPages)
	assert.False(t, page.HasNextPage)
}

func TestFeedService_GetByID(t *testing.T) {
	posts := noopPostRepo()
	posts.getWithCommentsFn = func(_ context.Context, id uint) (*models.Post, error) {
		return &models.Post{
			ID: id,
			Comments: []models.Comment{
				{ID: 1, Content: "a", User: &models.User{ID: 2, Email: "b@example.com", Password: "digest"}},
			},
		}, nil
	}
	svc := NewFeedService(posts, NewMedia(testutil.NewBlobStub(), 0), 0)

	detail, err := svc.GetByID(context.Background(), 5)
	require.NoError(t, err)
	assert.Nil(t, detail.ImageURL)
	require.Len(t, detail.Comments, 1)
	assert.Empty(t, detail.Comments[0].User.Email)
	assert.Empty(t, detail.Comments[0].User.Password)

	posts.getWithCommentsFn = func(_ context.Context, id uint) (*models.Post, error) {
		return nil, models.NewNotFoundError("Post", id)
	}
	_, err = svc.GetByID(context.Background(), 6)
	assertAppError(t, err, models.CodeNotFound)
}
