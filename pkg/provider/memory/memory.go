// Package memory implements an in-memory listing provider.
//
// Directories are populated programmatically, and population can be
// deferred to simulate (or locally emulate) a remote backend that answers
// first with a loading placeholder and signals readiness later. Used as
// the local backend and as the provider in tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/grote/lazylist/internal/logger"
	"github.com/grote/lazylist/pkg/provider"
)

// MemoryProvider implements provider.Provider backed by process memory.
//
// Thread Safety:
// All operations are protected by a mutex and safe for concurrent use.
type MemoryProvider struct {
	mu   sync.Mutex
	dirs map[provider.Directory]*dirState
}

// dirState tracks one directory's snapshot plus the results subscribed to
// its readiness.
type dirState struct {
	rows    []provider.Row
	loading bool

	// pending holds results handed out while loading; Populate notifies
	// them once real data lands.
	pending []*provider.StaticResult
}

// NewMemoryProvider creates an empty provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		dirs: make(map[provider.Directory]*dirState),
	}
}

// AddDirectory registers a directory with settled rows. Queries against it
// resolve immediately with loading=false.
func (p *MemoryProvider) AddDirectory(dir provider.Directory, rows []provider.Row) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dirs[dir] = &dirState{rows: rows}
}

// SetLoading registers a directory whose queries answer with the given
// placeholder rows and loading=true until Populate is called.
func (p *MemoryProvider) SetLoading(dir provider.Directory, placeholder []provider.Row) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dirs[dir] = &dirState{rows: placeholder, loading: true}
}

// Populate installs the real rows for a loading directory and fires the
// change notification on every outstanding result.
func (p *MemoryProvider) Populate(dir provider.Directory, rows []provider.Row) {
	p.mu.Lock()
	state, ok := p.dirs[dir]
	if !ok {
		state = &dirState{}
		p.dirs[dir] = state
	}
	state.rows = rows
	state.loading = false
	pending := state.pending
	state.pending = nil
	p.mu.Unlock()

	for _, res := range pending {
		res.Notify()
	}
}

// PopulateAfter schedules Populate to run after delay.
func (p *MemoryProvider) PopulateAfter(dir provider.Directory, delay time.Duration, rows []provider.Row) {
	time.AfterFunc(delay, func() {
		logger.Debug("Populating %s with %d rows after %v", dir.Path(), len(rows), delay)
		p.Populate(dir, rows)
	})
}

// Remove deletes a directory. Subsequent queries yield no result, which
// the executor surfaces as a query failure.
func (p *MemoryProvider) Remove(dir provider.Directory) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.dirs, dir)
}

// Children returns a snapshot of the directory's current rows.
//
// A loading directory hands out a result subscribed to its population; a
// missing directory yields a nil result (no error), the provider-level
// "no result" answer.
func (p *MemoryProvider) Children(ctx context.Context, dir provider.Directory) (provider.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	state, ok := p.dirs[dir]
	if !ok {
		return nil, nil
	}

	res := provider.NewStaticResult(state.rows, state.loading)
	if state.loading {
		state.pending = append(state.pending, res)
		res.SetOnClose(func() {
			p.unsubscribe(dir, res)
		})
	}
	return res, nil
}

// unsubscribe drops a closed result from the directory's pending list.
func (p *MemoryProvider) unsubscribe(dir provider.Directory, res *provider.StaticResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	state, ok := p.dirs[dir]
	if !ok {
		return
	}
	for i, r := range state.pending {
		if r == res {
			state.pending = append(state.pending[:i], state.pending[i+1:]...)
			return
		}
	}
}
