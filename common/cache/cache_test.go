package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndGet(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "page", []byte("html"), time.Minute))

	value, found, err := c.Get(ctx, "page")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("html"), value)
}

func TestGetExpired(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "page", []byte("html"), -time.Second))

	_, found, err := c.Get(ctx, "page")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDelete(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "page", []byte("html"), time.Minute))
	require.NoError(t, c.Delete(ctx, "page"))

	_, found, err := c.Get(ctx, "page")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCloseIsIdempotent(t *testing.T) {
	c := NewMemoryCache()
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}
