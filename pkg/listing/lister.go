package listing

import (
	"mime"
	"path"

	"github.com/grote/lazylist/pkg/provider"
)

// List converts a resolved Result into a Listing for dir.
//
// Every row becomes exactly one Entry; duplicate names within the same
// Result are preserved as distinct entries (providers are assumed not to
// emit true duplicates, and if one does it is surfaced unchanged rather
// than deduplicated). The Result is consumed fully and closed before
// List returns: ownership transfers from the waiter to the lister once
// a wait resolves.
func List(dir provider.Directory, res provider.Result) Listing {
	defer res.Close()

	rows := res.Rows()
	entries := make(Listing, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, entryFromRow(dir, row))
	}
	return entries
}

// entryFromRow builds a typed Entry from one provider row.
func entryFromRow(dir provider.Directory, row provider.Row) Entry {
	entry := Entry{
		Name:    row.Name,
		Path:    path.Join(dir.Path(), row.Name),
		Kind:    row.Kind,
		ModTime: row.ModTime,
	}

	if row.Kind == provider.KindFile {
		entry.Size = row.Size
		entry.MIMEType = row.MIMEType
		if entry.MIMEType == "" {
			// Best effort: the listing carries no content bytes, so the
			// extension is the only signal available here.
			entry.MIMEType = mime.TypeByExtension(path.Ext(row.Name))
		}
	}

	return entry
}
