package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exercise(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()

	_, ok := c.Get(ctx, "missing")
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", []byte("v1"), time.Minute))
	v, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "v1", string(v))

	set, err := c.SetNX(ctx, "k", []byte("v2"), time.Minute)
	require.NoError(t, err)
	assert.False(t, set)
	v, _ = c.Get(ctx, "k")
	assert.Equal(t, "v1", string(v))

	set, err = c.SetNX(ctx, "fresh", []byte("x"), time.Minute)
	require.NoError(t, err)
	assert.True(t, set)

	require.NoError(t, c.Delete(ctx, "k", "fresh"))
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "fresh")
	assert.False(t, ok)
}

func TestLocalCache(t *testing.T) {
	c := NewLocalCache(LocalConfig{MaxSize: 10})
	defer c.Close()
	exercise(t, c)
}

func TestLocalCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLocalCache(LocalConfig{MaxSize: 2})
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))
	_, _ = c.Get(ctx, "a")
	require.NoError(t, c.Set(ctx, "c", []byte("3"), 0))

	_, ok := c.Get(ctx, "b")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "a")
	assert.True(t, ok)
}

func TestGoCache(t *testing.T) {
	c := NewGoCache(LocalConfig{})
	defer c.Close()
	exercise(t, c)
}

func TestGoCacheExpires(t *testing.T) {
	c := NewGoCache(LocalConfig{})
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "short", []byte("x"), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)
	_, ok := c.Get(ctx, "short")
	assert.False(t, ok)
}

func TestLayeredCacheBackfillsLocal(t *testing.T) {
	local := NewLocalCache(LocalConfig{})
	remote := NewGoCache(LocalConfig{})
	c := NewLayered(local, remote)
	exercise(t, c)

	ctx := context.Background()
	require.NoError(t, remote.Set(ctx, "only-remote", []byte("r"), 0))
	v, ok := c.Get(ctx, "only-remote")
	require.True(t, ok)
	assert.Equal(t, "r", string(v))
	v, ok = local.Get(ctx, "only-remote")
	require.True(t, ok)
	assert.Equal(t, "r", string(v))
}

func TestNewCacheRejectsUnknownType(t *testing.T) {
	_, err := NewCache(Config{Type: "memcached"})
	assert.Error(t, err)

	c, err := NewCache(Config{Type: "gocache"})
	require.NoError(t, err)
	assert.NotNil(t, c)
}
