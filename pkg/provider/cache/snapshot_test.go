package cache

import (
	"context"
	"testing"
	"time"

	"github.com/grote/lazylist/pkg/provider"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, ttl time.Duration) *SnapshotStore {
	t.Helper()

	store, err := NewSnapshotStore(context.Background(), SnapshotStoreConfig{
		InMemory: true,
		TTL:      ttl,
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSnapshotRoundTrip(t *testing.T) {
	store := newTestStore(t, time.Minute)

	rows := []provider.Row{
		{Name: "a.txt", Kind: provider.KindFile, Size: 12},
		{Name: "sub", Kind: provider.KindDirectory},
	}
	require.NoError(t, store.Put("/docs", rows))

	got, ok, fresh, err := store.Get("/docs")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, fresh)
	require.Equal(t, rows, got)
}

func TestSnapshotMissing(t *testing.T) {
	store := newTestStore(t, time.Minute)

	_, ok, _, err := store.Get("/nope")
	require.NoError(t, err)
	require.False(t, ok)
}

// TestSnapshotStaleness verifies an expired snapshot is still returned
// but flagged stale, so callers can serve it as a loading placeholder.
func TestSnapshotStaleness(t *testing.T) {
	store := newTestStore(t, 50*time.Millisecond)

	require.NoError(t, store.Put("/docs", []provider.Row{{Name: "old.txt", Kind: provider.KindFile}}))
	time.Sleep(80 * time.Millisecond)

	rows, ok, fresh, err := store.Get("/docs")
	require.NoError(t, err)
	require.True(t, ok)
	require.False(t, fresh)
	require.Len(t, rows, 1)
}

func TestSnapshotInvalidate(t *testing.T) {
	store := newTestStore(t, time.Minute)

	require.NoError(t, store.Put("/docs", nil))
	require.NoError(t, store.Invalidate("/docs"))

	_, ok, _, err := store.Get("/docs")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSnapshotReplace(t *testing.T) {
	store := newTestStore(t, time.Minute)

	require.NoError(t, store.Put("/docs", []provider.Row{{Name: "v1", Kind: provider.KindFile}}))
	require.NoError(t, store.Put("/docs", []provider.Row{{Name: "v2", Kind: provider.KindFile}}))

	rows, ok, _, err := store.Get("/docs")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, rows, 1)
	require.Equal(t, "v2", rows[0].Name)
}

func TestSnapshotStoreRequiresPath(t *testing.T) {
	_, err := NewSnapshotStore(context.Background(), SnapshotStoreConfig{})
	require.Error(t, err)
}
