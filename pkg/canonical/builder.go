package canonical

import (
	"context"
	"sort"

	"github.com/sdejongh/modsync/pkg/identity"
	"github.com/sdejongh/modsync/pkg/logging"
	"github.com/sdejongh/modsync/pkg/models"
	"github.com/sdejongh/modsync/pkg/report"
	"github.com/sdejongh/modsync/pkg/storage"
)

// Builder scans canonical directories into indexes
type Builder struct {
	backend storage.Backend
	reader  identity.Reader
	sink    report.Sink
	logger  logging.Logger
}

// NewBuilder creates a new index builder
func NewBuilder(backend storage.Backend, reader identity.Reader, sink report.Sink, logger logging.Logger) *Builder {
	if sink == nil {
		sink = report.Discard
	}
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Builder{
		backend: backend,
		reader:  reader,
		sink:    sink,
		logger:  logger,
	}
}

// Build indexes the canonical directory of group. It never fails: an
// unreadable directory yields an empty index with Err set, and archives
// that cannot be identified or that collide are reported and left out.
// A cancelled context stops the scan and returns what was indexed so far.
func (b *Builder) Build(ctx context.Context, group models.VersionGroup) *Index {
	index := newIndex(group.Name, group.CanonicalDir)

	files, err := b.backend.List(ctx, group.CanonicalDir)
	if err != nil {
		index.Err = err
		if ctx.Err() != nil {
			return index
		}
		report.Error(b.sink, group.Name, group.CanonicalDir,
			"canonical directory cannot be read, every archive of this group will be left alone: %v", err)
		b.logger.Error(ctx, "canonical directory unreadable", err, logging.Fields{
			"group": group.Name,
			"dir":   group.CanonicalDir,
		})
		return index
	}

	claims := make(map[models.Identifier][]*models.CanonicalEntry)
	var order []models.Identifier

	for _, file := range files {
		if ctx.Err() != nil {
			break
		}
		index.Scanned++

		id, err := b.reader.Identify(file.Path)
		if err != nil {
			index.IdentityErrors++
			report.Warning(b.sink, group.Name, file.Path,
				"skipping canonical archive %s: %v", file.Name, err)
			b.logger.Warn(ctx, "canonical identity unreadable", logging.Fields{
				"group": group.Name,
				"path":  file.Path,
				"kind":  string(identity.KindOf(err)),
			})
			continue
		}

		if _, seen := claims[id]; !seen {
			order = append(order, id)
		}
		claims[id] = append(claims[id], &models.CanonicalEntry{
			Identifier: id,
			Path:       file.Path,
			FileName:   file.Name,
			Size:       file.Size,
			ModTime:    file.ModTime,
		})
	}

	for _, id := range order {
		entries := claims[id]
		if len(entries) == 1 {
			index.entries[id] = entries[0]
			b.logger.Debug(ctx, "indexed canonical archive", logging.Fields{
				"group": group.Name,
				"id":    string(id),
				"file":  entries[0].FileName,
			})
			continue
		}

		dup := newDuplicate(group.Name, id, entries)
		index.duplicates = append(index.duplicates, dup)
		report.Warning(b.sink, group.Name, group.CanonicalDir, "%s", dup.Error())
		b.logger.Warn(ctx, "duplicate canonical identity", logging.Fields{
			"group":  group.Name,
			"id":     string(id),
			"files":  len(entries),
			"newest": dup.Newest,
		})
	}

	return index
}

func newDuplicate(group string, id models.Identifier, entries []*models.CanonicalEntry) *DuplicateCanonicalError {
	dup := &DuplicateCanonicalError{Group: group, Identifier: id}

	newest := entries[0]
	for _, e := range entries {
		dup.Paths = append(dup.Paths, e.Path)
		if e.ModTime.After(newest.ModTime) {
			newest = e
		}
	}
	sort.Strings(dup.Paths)
	dup.Newest = newest.Path
	return dup
}
