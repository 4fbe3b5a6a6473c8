package cache

import (
	"context"
	"sync"
	"time"
)

type inMemoryCacheItem struct {
	value      []byte
	expiration time.Time
}

func (i *inMemoryCacheItem) isExpired(now time.Time) bool {
	return !i.expiration.IsZero() && now.After(i.expiration)
}

// InMemoryCache is a process local RawCache, expired entries are swept periodically.
type InMemoryCache struct {
	mu     sync.RWMutex
	items  map[string]*inMemoryCacheItem
	maxAge time.Duration

	stopOnce  sync.Once
	stopClean chan struct{}
}

const defaultCleanupInterval = 5 * time.Minute

// NewInMemoryCache creates an in-memory cache, its cleanup goroutine runs until Close.
func NewInMemoryCache(opts ...Option) *InMemoryCache {
	o := NewOptions(opts...)

	c := &InMemoryCache{
		items:     map[string]*inMemoryCacheItem{},
		maxAge:    o.MaxAge,
		stopClean: make(chan struct{}),
	}

	go c.startCleanup(defaultCleanupInterval)

	return c
}

func (c *InMemoryCache) startCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stopClean:
			return
		}
	}
}

func (c *InMemoryCache) cleanup() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()
	for key, item := range c.items {
		if item.isExpired(now) {
			delete(c.items, key)
		}
	}
}

func (c *InMemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()

	if !ok || item.isExpired(time.Now()) {
		return nil, false, nil
	}

	return item.value, true, nil
}

// Set stores value, a ttl <= 0 uses the configured max age.
func (c *InMemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.maxAge
	}

	item := &inMemoryCacheItem{value: value}
	if ttl > 0 {
		item.expiration = time.Now().Add(ttl)
	}

	c.mu.Lock()
	c.items[key] = item
	c.mu.Unlock()
	return nil
}

func (c *InMemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
	return nil
}

func (c *InMemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	_, found, err := c.Get(ctx, key)
	return found, err
}

func (c *InMemoryCache) Flush(_ context.Context) error {
	c.mu.Lock()
	c.items = map[string]*inMemoryCacheItem{}
	c.mu.Unlock()
	return nil
}

// Close stops the cleanup goroutine, it is safe to call more than once.
func (c *InMemoryCache) Close() error {
	c.stopOnce.Do(func() {
		close(c.stopClean)
	})
	return nil
}
