package caching

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheRoundTrip(t *testing.T) {
	c, err := NewCache(t.TempDir(), time.Hour)
	require.NoError(t, err)

	_, ok := c.Get("https://example.com/a.pdf")
	assert.False(t, ok)

	require.NoError(t, c.Set("https://example.com/a.pdf", []byte("%PDF-1.7")))
	data, ok := c.Get("https://example.com/a.pdf")
	require.True(t, ok)
	assert.Equal(t, "%PDF-1.7", string(data))

	_, ok = c.Get("https://example.com/b.pdf")
	assert.False(t, ok)
}

func TestCacheExpiryAndPurge(t *testing.T) {
	dir := t.TempDir()
	c, err := NewCache(dir, time.Minute)
	require.NoError(t, err)

	require.NoError(t, c.Set("u1", []byte("old")))
	require.NoError(t, c.Set("u2", []byte("new")))

	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, c.key("u1")), old, old))

	_, ok := c.Get("u1")
	assert.False(t, ok, "expired entry is a miss")

	removed, err := c.Purge()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, ok = c.Get("u2")
	assert.True(t, ok)
}

func TestDisabledCache(t *testing.T) {
	c, err := NewCache(t.TempDir(), 0)
	require.NoError(t, err)
	require.NoError(t, c.Set("u", []byte("x")))
	_, ok := c.Get("u")
	assert.False(t, ok)

	var nilCache *Cache
	_, ok = nilCache.Get("u")
	assert.False(t, ok)
	assert.NoError(t, nilCache.Set("u", nil))
}
