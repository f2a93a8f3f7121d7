package sync

import (
	"context"
	"errors"
	"iter"

	"github.com/sdejongh/modsync/pkg/canonical"
	"github.com/sdejongh/modsync/pkg/compare"
	"github.com/sdejongh/modsync/pkg/identity"
	"github.com/sdejongh/modsync/pkg/logging"
	"github.com/sdejongh/modsync/pkg/models"
	"github.com/sdejongh/modsync/pkg/report"
	"github.com/sdejongh/modsync/pkg/storage"
)

// DirectoryObserver is told about every tracked directory before its archives
// are yielded. err is non-nil when the directory was skipped.
type DirectoryObserver func(group, dir string, archives int, err error)

// Reconciler classifies the archives of tracked directories against a canonical index
type Reconciler struct {
	backend    storage.Backend
	reader     identity.Reader
	comparator compare.Comparator
	sink       report.Sink
	logger     logging.Logger
	observer   DirectoryObserver
}

// NewReconciler creates a new reconciler
func NewReconciler(
	backend storage.Backend,
	reader identity.Reader,
	comparator compare.Comparator,
	sink report.Sink,
	logger logging.Logger,
) *Reconciler {
	if sink == nil {
		sink = report.Discard
	}
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Reconciler{
		backend:    backend,
		reader:     reader,
		comparator: comparator,
		sink:       sink,
		logger:     logger,
	}
}

// SetDirectoryObserver installs a callback invoked once per tracked directory
func (r *Reconciler) SetDirectoryObserver(fn DirectoryObserver) {
	r.observer = fn
}

// Reconcile yields every archive of the group's tracked directories with its
// decision. Directories are visited in configured order and archives in
// listing order. Listing happens lazily, one directory at a time, so the
// caller may mutate a directory while its archives are being yielded.
// Iteration stops early when ctx is cancelled.
func (r *Reconciler) Reconcile(ctx context.Context, group models.VersionGroup, index *canonical.Index) iter.Seq2[models.ScannedArchive, models.Decision] {
	return func(yield func(models.ScannedArchive, models.Decision) bool) {
		for _, dir := range group.TrackedDirs {
			if ctx.Err() != nil {
				return
			}

			files, err := r.backend.List(ctx, dir)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				report.Error(r.sink, group.Name, dir, "skipping tracked directory: %v", err)
				r.logger.Error(ctx, "tracked directory unreadable", err, logging.Fields{
					"group": group.Name,
					"dir":   dir,
				})
				r.observe(group.Name, dir, 0, err)
				continue
			}
			r.observe(group.Name, dir, len(files), nil)

			for _, file := range files {
				if ctx.Err() != nil {
					return
				}

				archive := models.ScannedArchive{
					Dir:      dir,
					FileName: file.Name,
					Path:     file.Path,
					Size:     file.Size,
					ModTime:  file.ModTime,
				}
				archive.Identifier, archive.IdentityErr = r.reader.Identify(file.Path)

				decision := r.Classify(ctx, group.Name, &archive, index)
				if !yield(archive, decision) {
					return
				}
			}
		}
	}
}

// Classify decides what to do with one scanned archive and reports the
// unmatched and current outcomes. Replace decisions are reported by the executor.
func (r *Reconciler) Classify(ctx context.Context, group string, archive *models.ScannedArchive, index *canonical.Index) models.Decision {
	if archive.IdentityErr != nil || archive.Identifier == "" {
		cause := archive.IdentityErr
		if cause == nil {
			cause = &identity.IdentityError{Path: archive.Path, Kind: identity.KindMissingIDField, Err: errors.New("empty id")}
		}
		report.Warning(r.sink, group, archive.Path, "cannot identify %s, leaving it alone: %v", archive.FileName, cause)
		r.logger.Debug(ctx, "unidentified archive", logging.Fields{
			"group": group,
			"path":  archive.Path,
			"kind":  string(identity.KindOf(cause)),
		})
		return models.Unmatched(models.CauseIdentityError, cause.Error())
	}

	entry, ok := index.Lookup(archive.Identifier)
	if !ok {
		reason := "no canonical copy exists for this identity; ignored"
		report.Info(r.sink, group, archive.Path, "%s (%s): %s", archive.FileName, archive.Identifier, reason)
		return models.Unmatched(models.CauseNoCanonical, reason)
	}

	result, err := r.comparator.Compare(ctx, archive, entry)
	if err != nil {
		report.Warning(r.sink, group, archive.Path, "cannot compare %s with canonical %s, leaving it alone: %v",
			archive.FileName, entry.FileName, err)
		return models.Unmatched(models.CauseCompareFailed, err.Error())
	}

	if result.Current() {
		report.Info(r.sink, group, archive.Path, "%s is up to date", archive.FileName)
		return models.Current(entry, result.Reason)
	}

	r.logger.Debug(ctx, "outdated archive", logging.Fields{
		"group":     group,
		"path":      archive.Path,
		"canonical": entry.Path,
		"reason":    result.Reason,
	})
	return models.Replace(entry, result.Reason)
}

func (r *Reconciler) observe(group, dir string, archives int, err error) {
	if r.observer != nil {
		r.observer(group, dir, archives, err)
	}
}
