package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) *StatementCache {
	t.Helper()
	c, err := Open(Options{InMemory: true, TTL: ttl})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestPutGet(t *testing.T) {
	c := newTestCache(t, time.Hour)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "qwen3", "total sales")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, "qwen3", "Total   sales", "SELECT SUM(total) FROM sales;"))

	e, ok, err := c.Get(ctx, "qwen3", "  total sales ")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "SELECT SUM(total) FROM sales;", e.Statement)
	assert.Equal(t, "qwen3", e.Model)

	_, ok, err = c.Get(ctx, "other-model", "total sales")
	require.NoError(t, err)
	assert.False(t, ok, "keys are per model")

	require.NoError(t, c.Invalidate(ctx, "qwen3", "total sales"))
	_, ok, err = c.Get(ctx, "qwen3", "total sales")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClear(t *testing.T) {
	c := newTestCache(t, 0)
	ctx := context.Background()
	require.NoError(t, c.Put(ctx, "m", "a", "SELECT 1;"))
	require.NoError(t, c.Put(ctx, "m", "b", "SELECT 2;"))
	require.NoError(t, c.Clear())
	_, ok, err := c.Get(ctx, "m", "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCancelledContext(t *testing.T) {
	c := newTestCache(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, c.Put(ctx, "m", "q", "SELECT 1;"), context.Canceled)
	_, _, err := c.Get(ctx, "m", "q")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestKey(t *testing.T) {
	assert.Equal(t, Key("m", "Sales  by\nproduct"), Key("m", "sales by product"))
	assert.NotEqual(t, Key("m", "sales"), Key("n", "sales"))
	assert.Contains(t, string(Key("m", "x")), "stmt:")
}

func TestCloseIsIdempotent(t *testing.T) {
	c, err := Open(Options{InMemory: true})
	require.NoError(t, err)
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}
