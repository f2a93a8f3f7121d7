package output

import (
	"fmt"
	"io"

	"github.com/sdejongh/modsync/pkg/models"
)

// HumanFormatter prints a line per group, per change and per problem, then a summary
type HumanFormatter struct {
	// Verbose also prints info messages such as current archives
	Verbose bool
	// Quiet prints only errors and the final status
	Quiet bool

	writer io.Writer
	styles styles
}

// NewHumanFormatter creates a new human-readable formatter
func NewHumanFormatter() *HumanFormatter {
	return &HumanFormatter{}
}

// Start initializes the formatter
func (f *HumanFormatter) Start(writer io.Writer, operation *models.RunOperation) error {
	if writer == nil {
		writer = io.Discard
	}
	f.writer = writer
	f.styles = newStyles(writer)

	if f.Quiet {
		return nil
	}

	mode := ""
	if operation.DryRun {
		mode = " (dry run)"
	}
	fmt.Fprintf(writer, "Reconciling %d version groups, currency by %s%s\n",
		len(operation.Groups), operation.Currency, mode)
	return nil
}

// Progress reports progress during the run
func (f *HumanFormatter) Progress(update ProgressUpdate) error {
	if f.writer == nil {
		return nil
	}

	switch update.Type {
	case UpdateGroupStart:
		if !f.Quiet {
			fmt.Fprintf(f.writer, "\n%s %s\n", f.styles.group.Render(update.Group), f.styles.faint.Render(update.Path))
		}

	case UpdateArchive:
		op := update.Operation
		if op == nil || op.Action != models.ActionReplace || op.Error != nil || f.Quiet || f.Verbose {
			return nil
		}
		verb := "replaced"
		if op.DryRun {
			verb = "would replace"
		}
		fmt.Fprintf(f.writer, "  %s %s %s -> %s\n", f.styles.ok.Render(verb),
			f.styles.faint.Render(op.Archive.Dir), op.Archive.FileName, op.Decision.Canonical.FileName)

	case UpdateMessage:
		msg := update.Message
		if msg == nil {
			return nil
		}
		switch msg.Severity {
		case models.SeverityError:
		case models.SeverityWarning:
			if f.Quiet {
				return nil
			}
		default:
			if !f.Verbose {
				return nil
			}
		}
		fmt.Fprintf(f.writer, "  %s\n", f.styles.message(*msg))
	}

	return nil
}

// Complete finalizes output and displays summary
func (f *HumanFormatter) Complete(report *models.RunReport) error {
	if f.writer == nil {
		f.writer = io.Discard
		f.styles = newStyles(f.writer)
	}

	if f.Quiet {
		fmt.Fprintf(f.writer, "Status: %s\n", f.styles.status(report.Status))
		return nil
	}

	WriteSummary(f.writer, report)
	return nil
}

// Error reports an error
func (f *HumanFormatter) Error(err error) error {
	if f.writer != nil {
		fmt.Fprintf(f.writer, "%s %v\n", f.styles.failure.Render("Error:"), err)
	}
	return nil
}

// Name returns the formatter name
func (f *HumanFormatter) Name() string {
	return "human"
}
