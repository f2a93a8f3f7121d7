package sync

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sdejongh/modsync/pkg/canonical"
	"github.com/sdejongh/modsync/pkg/compare"
	"github.com/sdejongh/modsync/pkg/identity"
	"github.com/sdejongh/modsync/pkg/logging"
	"github.com/sdejongh/modsync/pkg/models"
	"github.com/sdejongh/modsync/pkg/output"
	"github.com/sdejongh/modsync/pkg/report"
	"github.com/sdejongh/modsync/pkg/storage"
)

// Engine orchestrates a reconciliation run over every version group
type Engine struct {
	backend    storage.Backend
	reader     identity.Reader
	comparator compare.Comparator
	formatter  output.Formatter
	sink       report.Sink
	logger     logging.Logger
	operation  *models.RunOperation

	// Output receives formatter output, stdout when nil
	Output io.Writer
}

// NewEngine creates a new reconciliation engine
func NewEngine(
	backend storage.Backend,
	reader identity.Reader,
	comparator compare.Comparator,
	formatter output.Formatter,
	sink report.Sink,
	logger logging.Logger,
	operation *models.RunOperation,
) *Engine {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Engine{
		backend:    backend,
		reader:     reader,
		comparator: comparator,
		formatter:  formatter,
		sink:       sink,
		logger:     logger,
		operation:  operation,
	}
}

// Run reconciles every group in order and returns the consolidated report.
// It only returns an error when the operation itself is invalid; every
// per-archive, per-directory and per-group failure ends up in the report.
func (e *Engine) Run(ctx context.Context) (*models.RunReport, error) {
	if err := e.operation.Validate(); err != nil {
		return nil, fmt.Errorf("invalid operation: %w", err)
	}

	rep := &models.RunReport{
		OperationID: e.operation.ID,
		DryRun:      e.operation.DryRun,
		Currency:    e.operation.Currency,
		StartTime:   time.Now(),
	}

	state := &run{engine: e, report: rep}
	sink := report.Multi{report.SinkFunc(state.record), e.sink}

	builder := canonical.NewBuilder(e.backend, e.reader, sink, e.logger)
	reconciler := NewReconciler(e.backend, e.reader, e.comparator, sink, e.logger)
	reconciler.SetDirectoryObserver(state.directory)
	executor := NewExecutor(e.backend, sink, e.logger, ExecutorOptions{
		DryRun:      e.operation.DryRun,
		DisabledDir: e.operation.DisabledDir,
	})

	if e.formatter != nil {
		out := e.Output
		if out == nil {
			out = os.Stdout
		}
		if err := e.formatter.Start(out, e.operation); err != nil {
			e.logger.Warn(ctx, "formatter start failed", logging.Fields{"error": err.Error()})
		}
	}

	e.logger.Info(ctx, "starting reconciliation", logging.Fields{
		"operation_id": e.operation.ID,
		"groups":       len(e.operation.Groups),
		"currency":     string(e.operation.Currency),
		"dry_run":      e.operation.DryRun,
	})

	for _, group := range e.operation.Groups {
		if ctx.Err() != nil {
			break
		}
		state.group(ctx, group, builder, reconciler, executor)
	}

	cancelled := ctx.Err() != nil
	if cancelled {
		e.logger.Warn(ctx, "reconciliation interrupted", logging.Fields{"operation_id": e.operation.ID})
	}
	rep.Finalize(cancelled)

	e.logger.Info(ctx, "reconciliation finished", logging.Fields{
		"operation_id": e.operation.ID,
		"status":       string(rep.Status),
		"replaced":     rep.Stats.ArchivesReplaced,
		"duration":     rep.Duration.String(),
	})

	if e.formatter != nil {
		if err := e.formatter.Complete(rep); err != nil {
			e.logger.Warn(ctx, "formatter complete failed", logging.Fields{"error": err.Error()})
		}
	}

	return rep, nil
}

// run holds the mutable state of one Engine.Run
type run struct {
	engine *Engine
	report *models.RunReport
}

// record keeps warnings and errors on the report and forwards every message to the formatter
func (r *run) record(msg models.Message) {
	r.report.Record(msg)
	r.progress(output.ProgressUpdate{Type: output.UpdateMessage, Group: msg.Group, Path: msg.Path, Message: &msg})
}

func (r *run) progress(update output.ProgressUpdate) {
	if r.engine.formatter != nil {
		r.engine.formatter.Progress(update)
	}
}

func (r *run) directory(group, dir string, archives int, err error) {
	stats := &r.report.Stats
	if err != nil {
		stats.DirsSkipped++
	} else {
		stats.DirsScanned++
	}
	r.progress(output.ProgressUpdate{Type: output.UpdateDirectory, Group: group, Path: dir, Archives: archives, Error: err})
}

func (r *run) group(ctx context.Context, group models.VersionGroup, builder *canonical.Builder, reconciler *Reconciler, executor *Executor) {
	stats := &r.report.Stats
	r.report.Groups = append(r.report.Groups, models.GroupSummary{
		Name:         group.Name,
		CanonicalDir: group.CanonicalDir,
		TrackedDirs:  len(group.TrackedDirs),
	})
	summary := &r.report.Groups[len(r.report.Groups)-1]

	r.progress(output.ProgressUpdate{Type: output.UpdateGroupStart, Group: group.Name, Path: group.CanonicalDir})

	index := builder.Build(ctx, group)
	summary.CanonicalMods = index.Len()
	summary.DuplicateCanonical = len(index.Duplicates())
	stats.CanonicalScanned += index.Scanned
	stats.CanonicalIndexed += index.Len()
	stats.DuplicateCanonicals += len(index.Duplicates())
	stats.IdentityErrors += index.IdentityErrors

	if ctx.Err() != nil {
		return
	}

	current := 0
	for archive, decision := range reconciler.Reconcile(ctx, group, index) {
		op := executor.Apply(ctx, group, archive, decision)
		r.account(summary, op)
		r.report.Operations = append(r.report.Operations, op)

		current++
		r.progress(output.ProgressUpdate{Type: output.UpdateArchive, Group: group.Name, Path: archive.Path, Current: current, Operation: &op})
	}

	stats.GroupsProcessed++
	r.progress(output.ProgressUpdate{Type: output.UpdateGroupDone, Group: group.Name, Summary: summary})
}

// account folds one operation into the group summary and run statistics
func (r *run) account(summary *models.GroupSummary, op models.FileOperation) {
	stats := &r.report.Stats
	stats.ArchivesScanned++

	switch op.Decision.Kind {
	case models.DecisionCurrent:
		stats.ArchivesCurrent++
		summary.Current++
	case models.DecisionUnmatched:
		stats.ArchivesUnmatched++
		summary.Unmatched++
		if op.Decision.Cause == models.CauseIdentityError {
			stats.IdentityErrors++
		}
	case models.DecisionReplace:
		if op.Error == nil {
			stats.ArchivesReplaced++
			summary.Replaced++
		} else {
			stats.MutationFailures++
		}
	}

	switch op.Retired {
	case models.ActionDelete:
		stats.ArchivesDeleted++
	case models.ActionDisable:
		stats.ArchivesDisabled++
	}
	stats.BytesCopied += op.BytesCopied
}
