// Package canonical builds the per-group index of authoritative mod archives.
package canonical

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sdejongh/modsync/pkg/models"
)

// Index maps identifiers to their canonical archive for one version group.
// It is read-only once built.
type Index struct {
	group      string
	dir        string
	entries    map[models.Identifier]*models.CanonicalEntry
	duplicates []*DuplicateCanonicalError

	// Scanned is the number of archive files listed in the canonical directory
	Scanned int
	// IdentityErrors counts canonical archives whose identity could not be read
	IdentityErrors int
	// Err is set when the canonical directory could not be listed
	Err error
}

func newIndex(group, dir string) *Index {
	return &Index{
		group:   group,
		dir:     dir,
		entries: make(map[models.Identifier]*models.CanonicalEntry),
	}
}

// Group returns the version group name
func (x *Index) Group() string {
	return x.group
}

// Dir returns the canonical directory the index was built from
func (x *Index) Dir() string {
	return x.dir
}

// Lookup returns the canonical entry for id
func (x *Index) Lookup(id models.Identifier) (*models.CanonicalEntry, bool) {
	entry, ok := x.entries[id]
	return entry, ok
}

// Len returns the number of indexed identities
func (x *Index) Len() int {
	return len(x.entries)
}

// Entries returns the indexed entries sorted by identifier
func (x *Index) Entries() []*models.CanonicalEntry {
	out := make([]*models.CanonicalEntry, 0, len(x.entries))
	for _, e := range x.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identifier < out[j].Identifier })
	return out
}

// Duplicates returns the identities excluded because several canonical archives claimed them
func (x *Index) Duplicates() []*DuplicateCanonicalError {
	return x.duplicates
}

// DuplicateCanonicalError reports an identity claimed by more than one canonical archive.
// The identity is left out of the index.
type DuplicateCanonicalError struct {
	Group      string
	Identifier models.Identifier
	// Paths lists every colliding archive, sorted
	Paths []string
	// Newest is the most recently modified of Paths
	Newest string
}

func (e *DuplicateCanonicalError) Error() string {
	names := make([]string, len(e.Paths))
	for i, p := range e.Paths {
		names[i] = filepath.Base(p)
	}
	return fmt.Sprintf("duplicate canonical identity %q in group %q: %s (newest is %s); ignoring this identity until only one remains",
		e.Identifier, e.Group, strings.Join(names, ", "), filepath.Base(e.Newest))
}
