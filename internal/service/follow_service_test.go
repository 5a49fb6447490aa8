package service

import (
	"context"
	"testing"

	"nextfilm/internal/models"
	"nextfilm/internal/notifications"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowService_Follow(t *testing.T) {
	ctx := context.Background()

	t.Run("self follow rejected before any lookup", func(t *testing.T) {
		users := noopUserRepo()
		users.existsFn = func(_ context.Context, _ uint) (bool, error) {
			t.Fatal("no lookup expected")
			return false, nil
		}
		svc := NewFollowService(noopFollowRepo(), users, nil)
		assertAppError(t, svc.Follow(ctx, 3, 3), models.CodeSelfFollow)
	})

	t.Run("missing target", func(t *testing.T) {
		users := noopUserRepo()
		users.existsFn = func(_ context.Context, _ uint) (bool, error) { return false, nil }
		svc := NewFollowService(noopFollowRepo(), users, nil)
		assertAppError(t, svc.Follow(ctx, 1, 2), models.CodeNotFound)
	})

	t.Run("existing edge", func(t *testing.T) {
		follows := noopFollowRepo()
		follows.existsFn = func(_ context.Context, _, _ uint) (bool, error) { return true, nil }
		follows.createFn = func(_ context.Context, _ *models.Follow) error {
			t.Fatal("create should not run")
			return nil
		}
		svc := NewFollowService(follows, noopUserRepo(), nil)
		err := svc.Follow(ctx, 1, 2)
		assertAppError(t, err, models.CodeConflict)
		assert.Equal(t, "Already following this user", err.(*models.AppError).Message)
	})

	t.Run("inserts and notifies target", func(t *testing.T) {
		follows := noopFollowRepo()
		var created *models.Follow
		follows.createFn = func(_ context.Context, f *models.Follow) error {
			created = f
			return nil
		}
		activity := newActivityRecorder()
		svc := NewFollowService(follows, noopUserRepo(), activity)

		require.NoError(t, svc.Follow(ctx, 1, 2))
		require.NotNil(t, created)
		assert.Equal(t, uint(1), created.FollowerID)
		assert.Equal(t, uint(2), created.FollowingID)

		events := activity.For(2)
		require.Len(t, events, 1)
		assert.Equal(t, notifications.EventUserFollowed, events[0].Type)
		assert.Equal(t, uint(1), events[0].ActorID)
	})
}

func TestFollowService_Unfollow(t *testing.T) {
	follows := noopFollowRepo()
	follows.deleteFn = func(_ context.Context, _, _ uint) (int64, error) { return 0, nil }
	svc := NewFollowService(follows, noopUserRepo(), nil)

	err := svc.Unfollow(context.Background(), 1, 2)
	assertAppError(t, err, models.CodeNotFound)
	assert.Equal(t, "Not following this user", err.(*models.AppError).Message)

	follows.deleteFn = func(_ context.Context, _, _ uint) (int64, error) { return 1, nil }
	assert.NoError(t, svc.Unfollow(context.Background(), 1, 2))
}

func TestFollowService_IsFollowing(t *testing.T) {
	calls := 0
	follows := noopFollowRepo()
	follows.existsFn = func(_ context.Context, _, _ uint) (bool, error) {
		calls++
		return true, nil
	}
	svc := NewFollowService(follows, noopUserRepo(), nil)
	ctx := context.Background()

	ok, err := svc.IsFollowing(ctx, 0, 5)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.IsFollowing(ctx, 5, 5)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, calls)

	ok, err = svc.IsFollowing(ctx, 4, 5)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, calls)
}

func TestFollowService_ListsStripPrivateFields(t *testing.T) {
	follows := noopFollowRepo()
	follows.listFollowersFn = func(_ context.Context, _ uint) ([]models.User, error) {
		return []models.User{{ID: 2, Email: "b@example.com", Password: "digest"}}, nil
	}
	svc := NewFollowService(follows, noopUserRepo(), nil)

	followers, err := svc.ListFollowers(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Empty(t, followers[0].Password)
	assert.Empty(t, followers[0].Email)

	following, err := svc.ListFollowing(context.Background(), 1)
	require.NoError(t, err)
	assert.NotNil(t, following)
	assert.Empty(t, following)
}
