package cache

import (
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache is an in-memory TTL cache for rendered API responses
type Cache struct {
	store      *gocache.Cache
	defaultTTL time.Duration
}

// New creates a cache with the given default TTL. Expired entries are swept
// every two TTLs.
func New(defaultTTL time.Duration) *Cache {
	return &Cache{
		store:      gocache.New(defaultTTL, 2*defaultTTL),
		defaultTTL: defaultTTL,
	}
}

// Get retrieves a value from the cache
func (c *Cache) Get(key string) (any, bool) {
	return c.store.Get(key)
}

// Set stores a value in the cache with the default TTL
func (c *Cache) Set(key string, value any) {
	c.store.Set(key, value, gocache.DefaultExpiration)
}

// SetWithTTL stores a value in the cache with a custom TTL
func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) {
	c.store.Set(key, value, ttl)
}

// Delete removes a value from the cache
func (c *Cache) Delete(key string) {
	c.store.Delete(key)
}

// DeletePrefix removes all values with keys starting with the given prefix
func (c *Cache) DeletePrefix(prefix string) {
	for key := range c.store.Items() {
		if strings.HasPrefix(key, prefix) {
			c.store.Delete(key)
		}
	}
}

// Clear removes all values from the cache
func (c *Cache) Clear() {
	c.store.Flush()
}

// Len reports the number of unexpired entries
func (c *Cache) Len() int {
	return len(c.store.Items())
}
