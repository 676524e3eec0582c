// Package cache provides an in-memory TTL cache used by the store.
package cache

import (
	"context"
	"sync"
	"time"
)

// Config holds the configuration for a Cache.
type Config struct {
	DefaultTTL      time.Duration // TTL applied by Set
	CleanupInterval time.Duration // how often expired items are swept
	MaxItems        int           // 0 means unbounded
	OnEviction      func(key string, value any)
}

type item struct {
	value     any
	expiresAt time.Time
}

// Cache is a concurrency-safe map with per-item expiry.
type Cache struct {
	config Config
	items  map[string]item
	mu     sync.RWMutex

	stopCh    chan struct{}
	closeOnce sync.Once
}

// New creates a cache and starts its cleanup goroutine.
func New(config Config) *Cache {
	if config.DefaultTTL <= 0 {
		config.DefaultTTL = 10 * time.Minute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = time.Minute
	}

	c := &Cache{
		config: config,
		items:  make(map[string]item),
		stopCh: make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

// Set stores value under key with the default TTL.
func (c *Cache) Set(ctx context.Context, key string, value any) {
	c.SetWithTTL(ctx, key, value, c.config.DefaultTTL)
}

// SetWithTTL stores value under key for ttl.
func (c *Cache) SetWithTTL(_ context.Context, key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && c.config.MaxItems > 0 && len(c.items) >= c.config.MaxItems {
		c.evictOldestLocked()
	}
	c.items[key] = item{value: value, expiresAt: time.Now().Add(ttl)}
}

// Get returns the value stored under key if it has not expired.
func (c *Cache) Get(_ context.Context, key string) (any, bool) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()

	if !ok || time.Now().After(it.expiresAt) {
		return nil, false
	}
	return it.value, true
}

// Delete removes key.
func (c *Cache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	it, ok := c.items[key]
	delete(c.items, key)
	c.mu.Unlock()

	if ok && c.config.OnEviction != nil {
		c.config.OnEviction(key, it.value)
	}
}

// Clear removes every item.
func (c *Cache) Clear(_ context.Context) {
	c.mu.Lock()
	c.items = make(map[string]item)
	c.mu.Unlock()
}

// Size returns the number of stored items, expired ones included.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close stops the cleanup goroutine.
func (c *Cache) Close() {
	c.closeOnce.Do(func() { close(c.stopCh) })
}

func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.deleteExpired()
		}
	}
}

func (c *Cache) deleteExpired() {
	now := time.Now()
	evicted := make(map[string]any)

	c.mu.Lock()
	for key, it := range c.items {
		if now.After(it.expiresAt) {
			evicted[key] = it.value
			delete(c.items, key)
		}
	}
	c.mu.Unlock()

	if c.config.OnEviction != nil {
		for key, value := range evicted {
			c.config.OnEviction(key, value)
		}
	}
}

// evictOldestLocked drops the item closest to expiry. Callers hold mu.
func (c *Cache) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	for key, it := range c.items {
		if oldestKey == "" || it.expiresAt.Before(oldest) {
			oldestKey, oldest = key, it.expiresAt
		}
	}
	if oldestKey == "" {
		return
	}
	delete(c.items, oldestKey)
}
