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

func newTestCache(t *testing.T) (*miniredis.Miniredis, *Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, New(rdb)
}

func TestCache_AsideCachesFetchResult(t *testing.T) {
	mr, c := newTestCache(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *[]string) func() error {
		return func() error {
			calls++
			*dest = []string{"go", "rust"}
			return nil
		}
	}

	var first []string
	require.NoError(t, c.Aside(ctx, CategoriesKey, &first, CategoriesTTL, fetch(&first)))
	assert.Equal(t, []string{"go", "rust"}, first)
	assert.True(t, mr.Exists(CategoriesKey))

	var second []string
	require.NoError(t, c.Aside(ctx, CategoriesKey, &second, CategoriesTTL, fetch(&second)))
	assert.Equal(t, []string{"go", "rust"}, second)
	assert.Equal(t, 1, calls)

	mr.FastForward(CategoriesTTL + time.Second)
	var third []string
	require.NoError(t, c.Aside(ctx, CategoriesKey, &third, CategoriesTTL, fetch(&third)))
	assert.Equal(t, 2, calls)
}

func TestCache_AsidePropagatesFetchError(t *testing.T) {
	mr, c := newTestCache(t)
	boom := errors.New("db down")

	var dest []string
	err := c.Aside(context.Background(), CategoriesKey, &dest, CategoriesTTL, func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists(CategoriesKey))
}

func TestCache_AsideFallsBackWhenRedisFails(t *testing.T) {
	mr, c := newTestCache(t)
	mr.Close()

	var dest []string
	err := c.Aside(context.Background(), CategoriesKey, &dest, CategoriesTTL, func() error {
		dest = []string{"go"}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"go"}, dest)
}

func TestCache_InvalidatePostWrite(t *testing.T) {
	mr, c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, mr.Set(PostKey("hello-world"), "{}"))
	require.NoError(t, mr.Set(CategoriesKey, "[]"))
	require.NoError(t, mr.Set(PostKey("other"), "{}"))

	c.InvalidatePostWrite(ctx, "hello-world")

	assert.False(t, mr.Exists(PostKey("hello-world")))
	assert.False(t, mr.Exists(CategoriesKey))
	assert.True(t, mr.Exists(PostKey("other")))
}

func TestCache_NilIsNoop(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	found, err := c.GetJSON(ctx, "k", &struct{}{})
	assert.False(t, found)
	assert.NoError(t, err)
	assert.NoError(t, c.SetJSON(ctx, "k", 1, time.Minute))
	assert.Nil(t, c.Client())
	c.Invalidate(ctx, "k")

	calls := 0
	require.NoError(t, c.Aside(ctx, "k", &struct{}{}, time.Minute, func() error {
		calls++
		return nil
	}))
	assert.Equal(t, 1, calls)
}

func TestConnect(t *testing.T) {
	ctx := context.Background()

	client, err := Connect(ctx, "")
	assert.NoError(t, err)
	assert.Nil(t, client)

	mr := miniredis.RunT(t)
	client, err = Connect(ctx, "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	require.NotNil(t, client)
	assert.NoError(t, client.Close())

	_, err = Connect(ctx, "redis://%zz")
	assert.Error(t, err)
}

func TestKeyFamily(t *testing.T) {
	assert.Equal(t, "post", keyFamily(PostKey("a:b")))
	assert.Equal(t, "categories", keyFamily(CategoriesKey))
}
