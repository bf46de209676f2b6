// Package cache provides a caching decorator for the listing client.
//
// Every ListFiles call on the plain client can cost a readiness wait
// against a remote provider. Read-heavy callers that rescan the same
// directories benefit from keeping resolved listings around for a short
// TTL.
package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/grote/lazylist/internal/logger"
	"github.com/grote/lazylist/pkg/listing"
	"github.com/grote/lazylist/pkg/provider"
)

// ListingClient is the client surface the decorator wraps. Satisfied by
// *listing.Client.
type ListingClient interface {
	ListFiles(ctx context.Context, dir provider.Directory) (listing.Listing, error)
	FindFile(ctx context.Context, dir provider.Directory, name string) (*listing.Entry, bool)
}

// CachedClient wraps a ListingClient with an LRU+TTL cache over ListFiles.
//
// Cache Strategy:
//   - LRU eviction when the cache is full
//   - TTL-based expiration
//   - Explicit invalidation per directory
//
// Thread Safety:
// All operations are protected by a mutex for safe concurrent use.
type CachedClient struct {
	client ListingClient

	enabled    bool
	ttl        time.Duration
	maxEntries int

	mu      sync.Mutex
	entries map[provider.Directory]*cacheEntry
	lruList *list.List

	hits   uint64
	misses uint64
}

// cacheEntry holds one cached listing.
type cacheEntry struct {
	listing   listing.Listing
	timestamp time.Time
	lruNode   *list.Element
}

// Config holds configuration for the listing cache.
type Config struct {
	// Enabled controls whether caching is active
	Enabled bool

	// TTL is how long cached listings remain valid
	TTL time.Duration

	// MaxEntries limits the cache size (LRU eviction)
	MaxEntries int
}

// DefaultConfig returns production-ready cache configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:    true,
		TTL:        5 * time.Second,
		MaxEntries: 1000,
	}
}

// NewCachedClient wraps a listing client with caching.
func NewCachedClient(client ListingClient, cfg Config) *CachedClient {
	if !cfg.Enabled {
		logger.Info("Listing cache disabled")
	} else {
		logger.Info("Listing cache enabled: ttl=%v max_entries=%d", cfg.TTL, cfg.MaxEntries)
	}

	return &CachedClient{
		client:     client,
		enabled:    cfg.Enabled,
		ttl:        cfg.TTL,
		maxEntries: cfg.MaxEntries,
		entries:    make(map[provider.Directory]*cacheEntry),
		lruList:    list.New(),
	}
}

// ListFiles returns the cached listing for dir when one is still valid,
// delegating to the wrapped client otherwise.
func (c *CachedClient) ListFiles(ctx context.Context, dir provider.Directory) (listing.Listing, error) {
	if cached, ok := c.getCached(dir); ok {
		return cached, nil
	}

	entries, err := c.client.ListFiles(ctx, dir)
	if err != nil {
		return nil, err
	}

	c.putCached(dir, entries)
	return entries, nil
}

// FindFile looks up a single entry by name, reusing the cached listing.
//
// Matches the wrapped client's degraded behavior: a failed listing is
// reported as not found.
func (c *CachedClient) FindFile(ctx context.Context, dir provider.Directory, name string) (*listing.Entry, bool) {
	entries, err := c.ListFiles(ctx, dir)
	if err != nil {
		logger.Warn("FindFile %q in %s: listing failed, reporting not found: %v", name, dir.Path(), err)
		return nil, false
	}

	if entry, ok := entries.Find(name); ok {
		return &entry, true
	}
	return nil, false
}

// Invalidate drops the cached listing for dir.
func (c *CachedClient) Invalidate(dir provider.Directory) {
	if !c.enabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[dir]
	if !ok {
		return
	}

	c.lruList.Remove(entry.lruNode)
	delete(c.entries, dir)

	logger.Debug("Invalidated listing cache entry: %s", dir.Path())
}

// Clear removes all cached listings.
func (c *CachedClient) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[provider.Directory]*cacheEntry)
	c.lruList = list.New()
}

// Stats returns cache hit/miss statistics and the current size.
func (c *CachedClient) Stats() (hits, misses uint64, size int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses, len(c.entries)
}

// getCached retrieves a cached listing if present and within TTL,
// updating LRU order and counters.
func (c *CachedClient) getCached(dir provider.Directory) (listing.Listing, bool) {
	if !c.enabled {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[dir]
	if !ok || time.Since(entry.timestamp) > c.ttl {
		c.misses++
		return nil, false
	}

	c.lruList.MoveToFront(entry.lruNode)
	c.hits++
	return entry.listing, true
}

// putCached stores a listing, evicting the least recently used entry when
// the cache is full.
func (c *CachedClient) putCached(dir provider.Directory, l listing.Listing) {
	if !c.enabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[dir]; ok {
		existing.listing = l
		existing.timestamp = time.Now()
		c.lruList.MoveToFront(existing.lruNode)
		return
	}

	if len(c.entries) >= c.maxEntries {
		c.evictOldest()
	}

	entry := &cacheEntry{
		listing:   l,
		timestamp: time.Now(),
	}
	entry.lruNode = c.lruList.PushFront(dir)
	c.entries[dir] = entry
}

// evictOldest removes the least recently used entry. Caller must hold c.mu.
func (c *CachedClient) evictOldest() {
	oldest := c.lruList.Back()
	if oldest == nil {
		return
	}
	c.lruList.Remove(oldest)

	dir := oldest.Value.(provider.Directory)
	delete(c.entries, dir)

	logger.Debug("Evicted listing cache entry: %s", dir.Path())
}
