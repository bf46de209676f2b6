// Package provider defines the contract between the listing core and the
// services that answer directory queries.
//
// A provider may be backed by remote storage and is allowed to answer a
// query immediately with a stale or empty snapshot while it populates real
// data in the background. The Result returned by such a query carries a
// Loading flag and a change-notification hook; callers that need a settled
// answer wait on that hook (see pkg/listing).
package provider

import (
	"context"
	"time"
)

// Directory is an opaque, already-authorized handle to a single directory.
//
// The path uses forward slashes and is rooted at the provider's namespace
// root (e.g., "/photos/2024"). How authorization was obtained is outside
// this package's scope; holding a Directory means access was granted.
type Directory string

// Path returns the slash-separated path of the directory.
func (d Directory) Path() string {
	return string(d)
}

// Kind classifies a directory child as a regular file or a subdirectory.
type Kind int

const (
	// KindFile is a regular file entry
	KindFile Kind = iota

	// KindDirectory is a subdirectory entry
	KindDirectory
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	default:
		return "unknown"
	}
}

// Row is one child entry as reported by a provider.
//
// Name is the child's identifier within the snapshot that produced it.
// Names are unique within one snapshot but not guaranteed stable across
// snapshots, so rows from different Results must only be compared by
// name and kind.
//
// Size, MIMEType and ModTime are optional: providers that do not know them
// leave the zero value, and the lister falls back to sensible defaults.
type Row struct {
	// Name is the child's name within its parent directory
	Name string `json:"name"`

	// Kind reports whether the child is a file or a directory
	Kind Kind `json:"kind"`

	// Size is the file size in bytes, 0 if unknown (files only)
	Size int64 `json:"size,omitempty"`

	// MIMEType is the media type if the provider knows it (files only)
	MIMEType string `json:"mime_type,omitempty"`

	// ModTime is the last modification time, zero if unknown
	ModTime time.Time `json:"mod_time,omitempty"`
}

// Result is a handle over one snapshot of a directory's children.
//
// Lifecycle: a Result is created per query and must be closed exactly once
// by whoever owns it at the time it becomes obsolete. Ownership moves with
// the snapshot: the waiter holds it while subscribed, the lister consumes
// and closes it once resolved.
//
// OnChange registers the single change-notification callback. The callback
// fires at most meaningfully once, when the data behind a Loading snapshot
// becomes ready. Firing after Close must be tolerated by the provider and
// ignored by the implementation.
type Result interface {
	// Rows returns the snapshot's child entries.
	Rows() []Row

	// Loading reports whether the snapshot is a placeholder that is still
	// being populated from the backing source.
	Loading() bool

	// OnChange registers the change-notification callback. At most one
	// callback can be registered; later registrations replace the earlier
	// one.
	OnChange(func())

	// Close releases the underlying resources. Safe to call more than
	// once; calls after the first are no-ops.
	Close() error
}

// Provider answers directory-children queries.
//
// Implementations must be safe for concurrent use: independent queries,
// even for the same directory, may run from multiple goroutines.
type Provider interface {
	// Children queries the children of dir and returns a snapshot handle.
	//
	// A nil Result with a nil error is a valid "no result" answer (for
	// example, the directory was deleted mid-query); the executor in
	// pkg/listing translates it into a query failure.
	Children(ctx context.Context, dir Directory) (Result, error)
}
