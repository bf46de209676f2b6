package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/grote/lazylist/pkg/listing"
	"github.com/grote/lazylist/pkg/provider"
	"github.com/stretchr/testify/require"
)

// countingClient is a ListingClient double tracking how often each
// directory was listed.
type countingClient struct {
	mu       sync.Mutex
	listings map[provider.Directory]listing.Listing
	errs     map[provider.Directory]error
	calls    map[provider.Directory]int
}

func newCountingClient() *countingClient {
	return &countingClient{
		listings: make(map[provider.Directory]listing.Listing),
		errs:     make(map[provider.Directory]error),
		calls:    make(map[provider.Directory]int),
	}
}

func (c *countingClient) ListFiles(ctx context.Context, dir provider.Directory) (listing.Listing, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[dir]++
	if err := c.errs[dir]; err != nil {
		return nil, err
	}
	return c.listings[dir], nil
}

func (c *countingClient) FindFile(ctx context.Context, dir provider.Directory, name string) (*listing.Entry, bool) {
	entries, err := c.ListFiles(ctx, dir)
	if err != nil {
		return nil, false
	}
	if entry, ok := entries.Find(name); ok {
		return &entry, true
	}
	return nil, false
}

func (c *countingClient) callCount(dir provider.Directory) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[dir]
}

func TestCacheHit(t *testing.T) {
	inner := newCountingClient()
	inner.listings["/docs"] = listing.Listing{{Name: "a.txt", Kind: provider.KindFile}}

	cached := NewCachedClient(inner, Config{Enabled: true, TTL: time.Minute, MaxEntries: 10})
	ctx := context.Background()

	first, err := cached.ListFiles(ctx, "/docs")
	require.NoError(t, err)
	second, err := cached.ListFiles(ctx, "/docs")
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, 1, inner.callCount("/docs"))

	hits, misses, size := cached.Stats()
	require.EqualValues(t, 1, hits)
	require.EqualValues(t, 1, misses)
	require.Equal(t, 1, size)
}

func TestCacheTTLExpiry(t *testing.T) {
	inner := newCountingClient()
	inner.listings["/docs"] = listing.Listing{}

	cached := NewCachedClient(inner, Config{Enabled: true, TTL: 50 * time.Millisecond, MaxEntries: 10})
	ctx := context.Background()

	_, err := cached.ListFiles(ctx, "/docs")
	require.NoError(t, err)

	time.Sleep(80 * time.Millisecond)

	_, err = cached.ListFiles(ctx, "/docs")
	require.NoError(t, err)
	require.Equal(t, 2, inner.callCount("/docs"))
}

func TestCacheInvalidate(t *testing.T) {
	inner := newCountingClient()
	inner.listings["/docs"] = listing.Listing{}

	cached := NewCachedClient(inner, Config{Enabled: true, TTL: time.Minute, MaxEntries: 10})
	ctx := context.Background()

	_, err := cached.ListFiles(ctx, "/docs")
	require.NoError(t, err)

	cached.Invalidate("/docs")

	_, err = cached.ListFiles(ctx, "/docs")
	require.NoError(t, err)
	require.Equal(t, 2, inner.callCount("/docs"))
}

// TestCacheLRUEviction verifies the oldest entry is evicted when the
// cache is full.
func TestCacheLRUEviction(t *testing.T) {
	inner := newCountingClient()
	inner.listings["/a"] = listing.Listing{}
	inner.listings["/b"] = listing.Listing{}
	inner.listings["/c"] = listing.Listing{}

	cached := NewCachedClient(inner, Config{Enabled: true, TTL: time.Minute, MaxEntries: 2})
	ctx := context.Background()

	_, _ = cached.ListFiles(ctx, "/a")
	_, _ = cached.ListFiles(ctx, "/b")

	// Touch /a so /b becomes the eviction candidate
	_, _ = cached.ListFiles(ctx, "/a")

	_, _ = cached.ListFiles(ctx, "/c")

	// /b was evicted; /a survived
	_, _ = cached.ListFiles(ctx, "/b")
	_, _ = cached.ListFiles(ctx, "/a")
	require.Equal(t, 2, inner.callCount("/b"))
	require.Equal(t, 1, inner.callCount("/a"))
}

func TestCacheDisabled(t *testing.T) {
	inner := newCountingClient()
	inner.listings["/docs"] = listing.Listing{}

	cached := NewCachedClient(inner, Config{Enabled: false})
	ctx := context.Background()

	_, _ = cached.ListFiles(ctx, "/docs")
	_, _ = cached.ListFiles(ctx, "/docs")
	require.Equal(t, 2, inner.callCount("/docs"))
}

func TestCacheErrorsNotCached(t *testing.T) {
	inner := newCountingClient()
	inner.errs["/bad"] = &listing.ListError{Code: listing.ErrIO, Message: "listing failed"}

	cached := NewCachedClient(inner, Config{Enabled: true, TTL: time.Minute, MaxEntries: 10})
	ctx := context.Background()

	_, err := cached.ListFiles(ctx, "/bad")
	require.Error(t, err)
	_, err = cached.ListFiles(ctx, "/bad")
	require.Error(t, err)
	require.Equal(t, 2, inner.callCount("/bad"))
}

// TestCachedFindFile verifies lookups reuse the cached listing and keep
// the soft-miss behavior on failure.
func TestCachedFindFile(t *testing.T) {
	inner := newCountingClient()
	inner.listings["/docs"] = listing.Listing{{Name: "report.txt", Kind: provider.KindFile}}
	inner.errs["/bad"] = &listing.ListError{Code: listing.ErrIO, Message: "listing failed"}

	cached := NewCachedClient(inner, Config{Enabled: true, TTL: time.Minute, MaxEntries: 10})
	ctx := context.Background()

	entry, found := cached.FindFile(ctx, "/docs", "report.txt")
	require.True(t, found)
	require.Equal(t, "report.txt", entry.Name)

	_, found = cached.FindFile(ctx, "/docs", "missing.txt")
	require.False(t, found)
	require.Equal(t, 1, inner.callCount("/docs"))

	_, found = cached.FindFile(ctx, "/bad", "report.txt")
	require.False(t, found)
}

func TestCacheClear(t *testing.T) {
	inner := newCountingClient()
	inner.listings["/docs"] = listing.Listing{}

	cached := NewCachedClient(inner, Config{Enabled: true, TTL: time.Minute, MaxEntries: 10})
	ctx := context.Background()

	_, _ = cached.ListFiles(ctx, "/docs")
	cached.Clear()

	_, _, size := cached.Stats()
	require.Equal(t, 0, size)
}
