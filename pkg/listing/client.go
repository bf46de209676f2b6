// Package listing implements the readiness-wait primitive and the
// directory-listing client built on top of it.
//
// A provider backed by remote storage may answer a children query with a
// placeholder snapshot while it fetches real data asynchronously. The
// pieces here cooperate to hide that from callers:
//
//	Client -> Waiter -> Execute -> provider
//
// The Waiter suspends the caller until the provider signals readiness (or
// the wait times out / is cancelled), and List turns the resolved snapshot
// into typed entries.
package listing

import (
	"context"
	"time"

	"github.com/grote/lazylist/internal/logger"
	"github.com/grote/lazylist/pkg/provider"
)

// Client exposes the public listing operations over a provider.
//
// Thread Safety:
// Safe for concurrent use; independent calls share no mutable state.
type Client struct {
	provider provider.Provider
	waiter   Waiter
}

// NewClient builds a listing client over the given provider.
//
// waitTimeout bounds each readiness wait; zero selects DefaultWaitTimeout.
func NewClient(p provider.Provider, waitTimeout time.Duration) *Client {
	return &Client{
		provider: p,
		waiter:   Waiter{Timeout: waitTimeout},
	}
}

// ListFiles lists all entries of dir.
//
// The underlying wait failures (query failure, timeout, cancellation) are
// normalized into the generic I/O category here: this is the sole error
// translation boundary, and callers that need the precise cause can still
// unwrap it.
func (c *Client) ListFiles(ctx context.Context, dir provider.Directory) (Listing, error) {
	query := func(ctx context.Context) (provider.Result, error) {
		return c.provider.Children(ctx, dir)
	}

	res, err := c.waiter.Wait(ctx, query)
	if err != nil {
		return nil, &ListError{
			Code:    ErrIO,
			Message: "listing failed",
			Path:    dir.Path(),
			Err:     err,
		}
	}

	return List(dir, res), nil
}

// FindFile looks up a single entry by name within dir.
//
// The match is case-sensitive and exact. A failed listing degrades to a
// soft miss: the failure is logged but reported as "not found", favoring
// availability of a yes/no answer over surfacing transient provider
// flakiness to simple existence checks.
func (c *Client) FindFile(ctx context.Context, dir provider.Directory, name string) (*Entry, bool) {
	entries, err := c.ListFiles(ctx, dir)
	if err != nil {
		logger.Warn("FindFile %q in %s: listing failed, reporting not found: %v", name, dir.Path(), err)
		return nil, false
	}

	// The provider always returns the full set regardless of any requested
	// subset, so lookup is a linear scan over the listing.
	if entry, ok := entries.Find(name); ok {
		return &entry, true
	}
	return nil, false
}
