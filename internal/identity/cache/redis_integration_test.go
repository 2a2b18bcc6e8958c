//go:build integration

package cache

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	platformredis "veriledger/internal/platform/redis"
	"veriledger/pkg/testutil/containers"
)

func newRedisCache(t *testing.T) *Redis {
	t.Helper()
	rc := containers.NewRedisContainer(t)
	client, err := platformredis.New(rc.Addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	return NewRedis(client, time.Minute, logger)
}

func TestRedisCache_SetGetInvalidate(t *testing.T) {
	c := newRedisCache(t)
	ctx := context.Background()

	_, ok := c.Get(ctx, "wallet-1")
	assert.False(t, ok, "cold cache misses")

	c.Set(ctx, "wallet-1", true)
	verified, ok := c.Get(ctx, "wallet-1")
	require.True(t, ok)
	assert.True(t, verified)

	c.Set(ctx, "wallet-2", false)
	verified, ok = c.Get(ctx, "wallet-2")
	require.True(t, ok)
	assert.False(t, verified, "negative results are cached too")

	c.Invalidate(ctx, "wallet-1")
	_, ok = c.Get(ctx, "wallet-1")
	assert.False(t, ok)

	verified, ok = c.Get(ctx, "wallet-2")
	require.True(t, ok, "invalidating one wallet leaves others cached")
	assert.False(t, verified)
}

func TestRedisCache_InvalidateAll(t *testing.T) {
	c := newRedisCache(t)
	ctx := context.Background()

	c.Set(ctx, "wallet-1", true)
	c.Set(ctx, "wallet-2", true)

	c.InvalidateAll(ctx)

	_, ok := c.Get(ctx, "wallet-1")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "wallet-2")
	assert.False(t, ok)

	// The cache stays usable in the new generation.
	c.Set(ctx, "wallet-1", true)
	verified, ok := c.Get(ctx, "wallet-1")
	require.True(t, ok)
	assert.True(t, verified)
}
