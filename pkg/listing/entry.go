package listing

import (
	"time"

	"github.com/grote/lazylist/pkg/provider"
)

// Entry is one typed item of a directory listing.
type Entry struct {
	// Name is the entry's name within its parent directory
	Name string

	// Path is the entry's location: the parent directory's path joined
	// with the entry name
	Path string

	// Kind reports whether the entry is a file or a directory
	Kind provider.Kind

	// Size is the file size in bytes. Directories report 0, and so do
	// files whose size was unknown when the entry was created.
	Size int64

	// MIMEType is the entry's media type (files only, may be empty)
	MIMEType string

	// ModTime is the last modification time, zero if unknown
	ModTime time.Time
}

// IsDir reports whether the entry is a directory.
func (e Entry) IsDir() bool {
	return e.Kind == provider.KindDirectory
}

// Listing is a point-in-time snapshot of a directory's entries.
//
// It is produced from exactly one resolved Result and is immutable
// thereafter. Order carries no meaning; comparisons must not rely on it.
type Listing []Entry

// Find returns the entry with the given name (case-sensitive exact match)
// and whether one was found.
func (l Listing) Find(name string) (Entry, bool) {
	for _, e := range l {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}
