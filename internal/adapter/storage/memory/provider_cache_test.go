package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chaindetect/internal/config"
)

func TestProviderCacheSetAndGet(t *testing.T) {
	t.Parallel()

	cache := NewProviderCache(config.DetectorConfig{ProviderCacheTTL: time.Minute}, zap.NewNop())
	ctx := context.Background()

	_, found, err := cache.Get(ctx, "http://primary")
	require.NoError(t, err)
	require.False(t, found)

	handle := &struct{ name string }{name: "client"}
	require.NoError(t, cache.Set(ctx, "http://primary", handle, time.Minute))

	got, found, err := cache.Get(ctx, "http://primary")
	require.NoError(t, err)
	require.True(t, found)
	require.Same(t, handle, got)

	// Other endpoints are unaffected.
	_, found, err = cache.Get(ctx, "http://backup")
	require.NoError(t, err)
	require.False(t, found)
}

func TestProviderCacheSupersedesEntry(t *testing.T) {
	t.Parallel()

	cache := NewProviderCache(config.DetectorConfig{ProviderCacheTTL: time.Minute}, zap.NewNop())
	ctx := context.Background()

	first := &struct{ n int }{n: 1}
	second := &struct{ n int }{n: 2}
	require.NoError(t, cache.Set(ctx, "http://primary", first, time.Minute))
	require.NoError(t, cache.Set(ctx, "http://primary", second, time.Minute))

	got, found, err := cache.Get(ctx, "http://primary")
	require.NoError(t, err)
	require.True(t, found)
	require.Same(t, second, got)
}

func TestProviderCacheExpiresPassively(t *testing.T) {
	t.Parallel()

	cache := NewProviderCache(config.DetectorConfig{ProviderCacheTTL: 20 * time.Millisecond}, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "http://primary", "client", 20*time.Millisecond))

	time.Sleep(50 * time.Millisecond)

	_, found, err := cache.Get(ctx, "http://primary")
	require.NoError(t, err)
	require.False(t, found)
}

func TestProviderCacheRejectsNilClient(t *testing.T) {
	t.Parallel()

	cache := NewProviderCache(config.DetectorConfig{ProviderCacheTTL: time.Minute}, zap.NewNop())
	require.Error(t, cache.Set(context.Background(), "http://primary", nil, time.Minute))
}
