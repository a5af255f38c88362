package store

import (
	"fmt"
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds how many index stores stay open at once.
const DefaultCacheSize = 8

// Cache keeps recently used stores open, keyed by database path.
// Handles are borrowed: Get hands out the store together with a release
// func, and eviction closes a store only once its last borrower has
// released it. A long indexing run on one index therefore never has its
// handle closed underneath it by activity on other indexes.
type Cache struct {
	mu    sync.Mutex
	cache *lru.Cache[string, *cacheEntry]
}

// cacheEntry tracks the outstanding borrowers of one open store.
type cacheEntry struct {
	path    string
	store   *Store
	refs    int
	evicted bool
}

// NewCache creates a cache holding at most size open stores.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}

	c := &Cache{}
	// The eviction callback runs while c.mu is already held by whoever
	// triggered the eviction, so it must not take the lock itself.
	inner, err := lru.NewWithEvict(size, func(path string, e *cacheEntry) {
		if e.refs > 0 {
			e.evicted = true
			return
		}
		closeStore(path, e.store)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create store cache: %w", err)
	}
	c.cache = inner
	return c, nil
}

func closeStore(path string, s *Store) {
	if err := s.Close(); err != nil {
		slog.Warn("store_evict_close_failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
	}
}

// Get borrows the open store for path, opening it on a miss. The
// release func must be called once the caller is done with the handle;
// the store stays open at least until then.
func (c *Cache) Get(path string) (*Store, func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.cache.Get(path); ok {
		e.refs++
		return e.store, c.release(e), nil
	}

	s, err := Open(path)
	if err != nil {
		return nil, nil, err
	}
	e := &cacheEntry{path: path, store: s, refs: 1}
	c.cache.Add(path, e)
	return s, c.release(e), nil
}

// release builds the borrower's release func. Calling it more than once
// only gives back the one borrow.
func (c *Cache) release(e *cacheEntry) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			e.refs--
			if e.refs == 0 && e.evicted {
				closeStore(e.path, e.store)
			}
		})
	}
}

// Drop forgets the store for path, if cached; it closes immediately
// when unborrowed, otherwise as soon as the last borrower releases it.
// Used before deleting an index's database file.
func (c *Cache) Drop(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Remove(path)
}

// Close evicts everything: stores without borrowers close immediately,
// the rest when released.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Purge()
}
