package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache: miss")

// CacheService represents a generic cache service
type CacheService interface {
	// Get retrieves a value from the cache
	Get(key string) ([]byte, error)

	// Set stores a value in the cache with an expiration time
	Set(key string, value []byte, expiration time.Duration) error

	// Delete removes a value from the cache
	Delete(key string) error
}

// PageKey returns the cache key for a fetched page.
// Memcache keys are limited to 250 bytes without spaces, so URLs are hashed.
func PageKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return "page:" + hex.EncodeToString(sum[:16])
}

// MemoryCache is a process-local CacheService.
type MemoryCache struct {
	mu      sync.Mutex
	items   map[string]memoryItem
	nowFunc func() time.Time
}

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		items:   make(map[string]memoryItem),
		nowFunc: time.Now,
	}
}

// Get implements CacheService.
func (m *MemoryCache) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	if !item.expiresAt.IsZero() && !m.nowFunc().Before(item.expiresAt) {
		delete(m.items, key)
		return nil, ErrCacheMiss
	}
	return item.value, nil
}

// Set implements CacheService. A zero expiration never expires.
func (m *MemoryCache) Set(key string, value []byte, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	item := memoryItem{value: append([]byte(nil), value...)}
	if expiration > 0 {
		item.expiresAt = m.nowFunc().Add(expiration)
	}
	m.items[key] = item
	return nil
}

// Delete implements CacheService.
func (m *MemoryCache) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, key)
	return nil
}
