package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPageKey(t *testing.T) {
	key := PageKey("https://www.amazon.com/gp/goldbox?ref=nav")
	assert.Equal(t, key, PageKey("https://www.amazon.com/gp/goldbox?ref=nav"))
	assert.NotEqual(t, key, PageKey("https://www.amazon.com/gp/goldbox"))
	assert.Len(t, key, len("page:")+32)
}

func TestMemoryCacheExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.nowFunc = func() time.Time { return now }

	assert.NoError(t, c.Set("k", []byte("v"), time.Minute))

	value, err := c.Get("k")
	assert.NoError(t, err)
	assert.Equal(t, "v", string(value))

	now = now.Add(time.Minute)
	_, err = c.Get("k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheDelete(t *testing.T) {
	c := NewMemoryCache()
	assert.NoError(t, c.Set("k", []byte("v"), 0))
	assert.NoError(t, c.Delete("k"))

	_, err := c.Get("k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}
