package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rating struct {
	Average float64 `json:"average"`
	Count   int64   `json:"count"`
}

func newTestCache(t *testing.T) (*miniredis.Miniredis, *Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, New(rdb)
}

func TestAside_MissThenHit(t *testing.T) {
	mr, c := newTestCache(t)
	ctx := context.Background()
	calls := 0

	fetch := func(dest *rating) func() error {
		return func() error {
			calls++
			*dest = rating{Average: 4, Count: 3}
			return nil
		}
	}

	var first rating
	require.NoError(t, c.Aside(ctx, "movie_rating", MovieRatingKey("tt1"), &first, time.Minute, fetch(&first)))
	assert.Equal(t, rating{Average: 4, Count: 3}, first)
	assert.True(t, mr.Exists("movie:tt1:rating"))

	var second rating
	require.NoError(t, c.Aside(ctx, "movie_rating", MovieRatingKey("tt1"), &second, time.Minute, fetch(&second)))
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)

	c.Invalidate(ctx, MovieRatingKey("tt1"))
	assert.False(t, mr.Exists("movie:tt1:rating"))
}

func TestAside_FetchErrorNotCached(t *testing.T) {
	mr, c := newTestCache(t)
	boom := errors.New("db down")

	var dest rating
	err := c.Aside(context.Background(), "movie_rating", "k", &dest, time.Minute, func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("k"))
}

func TestAside_RedisDownFallsThrough(t *testing.T) {
	mr, c := newTestCache(t)
	mr.Close()

	var dest rating
	err := c.Aside(context.Background(), "movie_rating", "k", &dest, time.Minute, func() error {
		dest = rating{Average: 2, Count: 1}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), dest.Count)
}

func TestCache_Disabled(t *testing.T) {
	var nilCache *Cache
	assert.False(t, nilCache.Enabled())
	assert.False(t, New(nil).Enabled())

	found, err := nilCache.GetJSON(context.Background(), "k", &rating{})
	assert.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, nilCache.SetJSON(context.Background(), "k", rating{}, time.Minute))
	nilCache.Invalidate(context.Background(), "k")

	calls := 0
	require.NoError(t, nilCache.Aside(context.Background(), "f", "k", &rating{}, time.Minute, func() error {
		calls++
		return nil
	}))
	assert.Equal(t, 1, calls)
}

func TestConnect(t *testing.T) {
	assert.Nil(t, Connect(""))
	assert.Nil(t, Connect("redis://%%bad"))

	mr := miniredis.RunT(t)
	client := Connect(mr.Addr())
	require.NotNil(t, client)
	_ = client.Close()

	client = Connect("redis://" + mr.Addr() + "/0")
	require.NotNil(t, client)
	_ = client.Close()
}
