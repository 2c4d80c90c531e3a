package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/budget-premium/internal/config"
	"github.com/magabrotheeeer/budget-premium/internal/models"
)

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cache, err := InitServer(context.Background(), config.RedisConnection{AddressRedis: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache, mr
}

func mustSet(t *testing.T, c *Cache, key string, value any) {
	t.Helper()
	stored, err := c.SetIfGeneration(context.Background(), key, 0, value, time.Minute)
	require.NoError(t, err)
	require.True(t, stored)
}

func TestSetAndGet(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	expiry := time.Date(2026, 11, 17, 10, 0, 0, 0, time.UTC)
	expected := models.PremiumStatus{IsPremium: true, Type: models.PurchaseMonthly, ExpiryDate: &expiry}
	mustSet(t, cache, StatusKey("user-1"), expected)

	var actual models.PremiumStatus
	found, err := cache.Get(ctx, StatusKey("user-1"), &actual)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, expected.IsPremium, actual.IsPremium)
	assert.Equal(t, expected.Type, actual.Type)
	require.NotNil(t, actual.ExpiryDate)
	assert.True(t, expiry.Equal(*actual.ExpiryDate))
}

func TestGetNotFound(t *testing.T) {
	cache, _ := setupTestCache(t)

	var out models.PremiumStatus
	found, err := cache.Get(context.Background(), "no_such_key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSetExpires(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	mustSet(t, cache, "key", "value")
	mr.FastForward(2 * time.Minute)

	var out string
	found, err := cache.Get(ctx, "key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidate(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	mustSet(t, cache, "key", "value")
	require.NoError(t, cache.Invalidate(ctx, "key"))

	var out string
	found, err := cache.Get(ctx, "key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidateBumpsGeneration(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	gen, err := cache.Generation(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, int64(0), gen)

	require.NoError(t, cache.Invalidate(ctx, "key"))
	require.NoError(t, cache.Invalidate(ctx, "key"))

	gen, err = cache.Generation(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, int64(2), gen)
	assert.Greater(t, mr.TTL("key:gen"), time.Duration(0))
}

func TestSetIfGeneration(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	gen, err := cache.Generation(ctx, "key")
	require.NoError(t, err)

	stored, err := cache.SetIfGeneration(ctx, "key", gen, "fresh", time.Minute)
	require.NoError(t, err)
	assert.True(t, stored)

	var out string
	found, err := cache.Get(ctx, "key", &out)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "fresh", out)

	// между чтением поколения и записью ключ инвалидировали
	require.NoError(t, cache.Invalidate(ctx, "key"))
	stored, err = cache.SetIfGeneration(ctx, "key", gen, "stale", time.Minute)
	require.NoError(t, err)
	assert.False(t, stored)

	found, err = cache.Get(ctx, "key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetInvalidJSON(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Db.Set(ctx, "bad", []byte("not-json"), time.Minute).Err())

	var out models.PremiumStatus
	found, err := cache.Get(ctx, "bad", &out)
	assert.False(t, found)
	assert.Error(t, err)
}

func TestInitServerInvalidAddr(t *testing.T) {
	cache, err := InitServer(context.Background(), config.RedisConnection{
		AddressRedis: "127.0.0.1:1",
		DialTimeout:  100 * time.Millisecond,
	})
	assert.Nil(t, cache)
	assert.Error(t, err)
}

func TestStatusKey(t *testing.T) {
	assert.Equal(t, "premium:status:abc", StatusKey("abc"))
}
