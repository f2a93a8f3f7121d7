package sync

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/docker/go-units"
	"github.com/sdejongh/modsync/internal/platform"
	"github.com/sdejongh/modsync/pkg/logging"
	"github.com/sdejongh/modsync/pkg/models"
	"github.com/sdejongh/modsync/pkg/report"
	"github.com/sdejongh/modsync/pkg/storage"
)

// DefaultDisabledDir is the subdirectory outdated archives are moved into
const DefaultDisabledDir = "DISABLED"

// ErrTargetExists means another file already holds the canonical file name
// in the tracked directory
var ErrTargetExists = errors.New("target file already exists")

// MutationError is returned when a filesystem change of a replacement fails
type MutationError struct {
	// Op is the failed step: delete, disable or copy
	Op   models.Action
	Path string
	Err  error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *MutationError) Unwrap() error {
	return e.Err
}

// ExecutorOptions configures an Executor
type ExecutorOptions struct {
	// DryRun reports what would be done without touching the filesystem
	DryRun bool
	// DisabledDir is the name of the subdirectory used in disable mode
	DisabledDir string
}

// Executor applies reconciliation decisions to the filesystem
type Executor struct {
	backend     storage.Backend
	sink        report.Sink
	logger      logging.Logger
	dryRun      bool
	disabledDir string
}

// NewExecutor creates a new mutation executor
func NewExecutor(backend storage.Backend, sink report.Sink, logger logging.Logger, opts ExecutorOptions) *Executor {
	if sink == nil {
		sink = report.Discard
	}
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	if opts.DisabledDir == "" {
		opts.DisabledDir = DefaultDisabledDir
	}
	return &Executor{
		backend:     backend,
		sink:        sink,
		logger:      logger,
		dryRun:      opts.DryRun,
		disabledDir: opts.DisabledDir,
	}
}

// Apply carries out decision for archive. Failures are reported and recorded
// on the returned operation; they never stop the caller.
func (e *Executor) Apply(ctx context.Context, group models.VersionGroup, archive models.ScannedArchive, decision models.Decision) (op models.FileOperation) {
	op = models.FileOperation{
		Group:    group.Name,
		Archive:  archive,
		Decision: decision,
		Action:   models.ActionNone,
		DryRun:   e.dryRun,
	}

	if decision.Kind != models.DecisionReplace || decision.Canonical == nil {
		return op
	}

	start := time.Now()
	defer func() { op.Duration = time.Since(start) }()

	op.Action = models.ActionReplace
	canonical := decision.Canonical
	retire := models.ActionDelete
	if group.DisableOutdated {
		retire = models.ActionDisable
	}

	target := filepath.Join(archive.Dir, canonical.FileName)
	if e.occupied(ctx, target, archive.Path) {
		op.Error = &MutationError{Op: models.ActionCopy, Path: target, Err: ErrTargetExists}
		report.Warning(e.sink, group.Name, archive.Path, "not replacing %s: %s already exists in %s and would be overwritten",
			archive.FileName, canonical.FileName, archive.Dir)
		e.logger.Warn(ctx, "install target occupied", logging.Fields{
			"group":  group.Name,
			"path":   archive.Path,
			"target": target,
		})
		return op
	}

	if e.dryRun {
		report.Info(e.sink, group.Name, archive.Path, "would replace %s with %s (%s, outdated copy would be %s)",
			archive.FileName, canonical.FileName, decision.Reason, pastTense(retire))
		return op
	}

	if err := e.retire(ctx, &op, retire); err != nil {
		op.Error = err
		report.Error(e.sink, group.Name, archive.Path, "cannot retire outdated %s, canonical copy not installed: %v",
			archive.FileName, err)
		e.logger.Error(ctx, "retire failed", err, logging.Fields{
			"group":  group.Name,
			"path":   archive.Path,
			"action": string(retire),
		})
		return op
	}

	written, err := e.backend.Copy(ctx, canonical.Path, archive.Dir)
	op.BytesCopied = written
	if err != nil {
		op.Error = &MutationError{Op: models.ActionCopy, Path: canonical.Path, Err: err}
		report.Error(e.sink, group.Name, archive.Path, "%s was %s but installing %s failed: %v",
			archive.FileName, pastTense(retire), canonical.FileName, err)
		e.logger.Error(ctx, "copy failed", err, logging.Fields{
			"group":     group.Name,
			"canonical": canonical.Path,
			"dir":       archive.Dir,
		})
		return op
	}
	op.InstalledPath = target

	report.Info(e.sink, group.Name, archive.Path, "replaced %s with %s (%s, %s)",
		archive.FileName, canonical.FileName, units.HumanSize(float64(written)), decision.Reason)
	e.logger.Info(ctx, "archive replaced", logging.Fields{
		"group":     group.Name,
		"old":       archive.Path,
		"new":       op.InstalledPath,
		"retired":   string(retire),
		"retiredTo": op.RetiredTo,
		"bytes":     written,
	})
	return op
}

// occupied reports whether target exists and is a different file than the
// archive being replaced
func (e *Executor) occupied(ctx context.Context, target, archivePath string) bool {
	if platform.SamePath(target, archivePath) {
		return false
	}
	_, err := e.backend.Stat(ctx, target)
	return err == nil
}

// retire deletes the scanned archive or moves it into the disabled directory
func (e *Executor) retire(ctx context.Context, op *models.FileOperation, action models.Action) error {
	path := op.Archive.Path

	if action == models.ActionDisable {
		target, err := e.backend.Move(ctx, path, filepath.Join(op.Archive.Dir, e.disabledDir))
		if err != nil {
			return &MutationError{Op: models.ActionDisable, Path: path, Err: err}
		}
		op.RetiredTo = target
		op.Retired = action
		return nil
	}

	if err := e.backend.Delete(ctx, path); err != nil {
		return &MutationError{Op: models.ActionDelete, Path: path, Err: err}
	}
	op.Retired = action
	return nil
}

func pastTense(action models.Action) string {
	switch action {
	case models.ActionDisable:
		return "disabled"
	case models.ActionDelete:
		return "deleted"
	default:
		return string(action)
	}
}
