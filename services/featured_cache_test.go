package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeaturedCache(t *testing.T) {
	mr, client := newRedis(t)
	cache := NewFeaturedCache(client)
	ctx := context.Background()

	var got []string
	hit, err := cache.Get(ctx, &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.Set(ctx, []string{"a", "b"}))
	hit, err = cache.Get(ctx, &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"a", "b"}, got)

	require.NoError(t, cache.Invalidate(ctx))
	hit, err = cache.Get(ctx, &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.Set(ctx, []string{"c"}))
	mr.FastForward(FeaturedTTL + time.Second)
	hit, err = cache.Get(ctx, &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestFeaturedCacheRedisDown(t *testing.T) {
	mr, client := newRedis(t)
	mr.Close()

	var got []string
	_, err := NewFeaturedCache(client).Get(context.Background(), &got)
	assert.Error(t, err)
}
