// Package cache persists directory snapshots in BadgerDB.
//
// Remote providers use it to answer queries immediately: a cached snapshot
// is served right away (flagged as loading when it has gone stale) while
// the real refresh runs in the background. The cache survives restarts, so
// a cold process still answers from the last known state of the remote
// tree.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/grote/lazylist/internal/logger"
	"github.com/grote/lazylist/pkg/provider"
)

// keyPrefix namespaces snapshot keys inside the database.
// Key format: snap:<directory path> -> snapshot (JSON)
const keyPrefix = "snap:"

// DefaultSnapshotTTL is how long a stored snapshot counts as fresh.
const DefaultSnapshotTTL = 30 * time.Second

// snapshot is the stored value for one directory.
//
// JSON encoding keeps the database debuggable; snapshots are small (one
// row per directory child) so encoding cost is irrelevant here.
type snapshot struct {
	Rows      []provider.Row `json:"rows"`
	FetchedAt time.Time      `json:"fetched_at"`
}

// SnapshotStoreConfig configures a SnapshotStore.
type SnapshotStoreConfig struct {
	// Path is the BadgerDB directory. Ignored when InMemory is set.
	Path string

	// InMemory runs the database without touching disk. Used by tests.
	InMemory bool

	// TTL is how long a snapshot counts as fresh. Zero selects
	// DefaultSnapshotTTL.
	TTL time.Duration
}

// SnapshotStore stores one snapshot per directory in BadgerDB.
//
// Thread Safety:
// BadgerDB transactions make all operations safe for concurrent use.
type SnapshotStore struct {
	db  *badger.DB
	ttl time.Duration
}

// NewSnapshotStore opens (or creates) the snapshot database.
func NewSnapshotStore(ctx context.Context, cfg SnapshotStoreConfig) (*SnapshotStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !cfg.InMemory && cfg.Path == "" {
		return nil, fmt.Errorf("snapshot store: path is required")
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}

	opts := badger.DefaultOptions(cfg.Path).
		WithInMemory(cfg.InMemory).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot database: %w", err)
	}

	logger.Info("Snapshot store opened: path=%q in_memory=%v ttl=%v", cfg.Path, cfg.InMemory, ttl)

	return &SnapshotStore{db: db, ttl: ttl}, nil
}

// Get returns the stored snapshot for dir.
//
// ok reports whether a snapshot exists; fresh reports whether it is still
// within the TTL. A stale snapshot is still returned so callers can serve
// it as a loading placeholder while refreshing.
func (s *SnapshotStore) Get(dir provider.Directory) (rows []provider.Row, ok bool, fresh bool, err error) {
	var snap snapshot

	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(dir))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &snap)
		})
	})

	if err == badger.ErrKeyNotFound {
		return nil, false, false, nil
	}
	if err != nil {
		return nil, false, false, fmt.Errorf("failed to read snapshot for %s: %w", dir.Path(), err)
	}

	return snap.Rows, true, time.Since(snap.FetchedAt) <= s.ttl, nil
}

// Put stores a fresh snapshot for dir, replacing any previous one.
func (s *SnapshotStore) Put(dir provider.Directory, rows []provider.Row) error {
	val, err := json.Marshal(snapshot{Rows: rows, FetchedAt: time.Now()})
	if err != nil {
		return fmt.Errorf("failed to encode snapshot for %s: %w", dir.Path(), err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(dir), val)
	})
	if err != nil {
		return fmt.Errorf("failed to store snapshot for %s: %w", dir.Path(), err)
	}
	return nil
}

// Invalidate drops the snapshot for dir, forcing the next query to hit
// the remote source.
func (s *SnapshotStore) Invalidate(dir provider.Directory) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key(dir))
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate snapshot for %s: %w", dir.Path(), err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}

func key(dir provider.Directory) []byte {
	return []byte(keyPrefix + dir.Path())
}
