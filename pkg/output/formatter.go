package output

import (
	"fmt"
	"io"

	"github.com/sdejongh/modsync/pkg/models"
)

// UpdateType identifies a progress notification
type UpdateType string

const (
	// UpdateGroupStart is sent before a group's canonical directory is indexed
	UpdateGroupStart UpdateType = "group_start"
	// UpdateDirectory is sent once a tracked directory has been listed or skipped
	UpdateDirectory UpdateType = "directory"
	// UpdateArchive is sent after an archive has been classified and acted upon
	UpdateArchive UpdateType = "archive"
	// UpdateGroupDone is sent after the last archive of a group
	UpdateGroupDone UpdateType = "group_done"
	// UpdateMessage carries a reported info, warning or error
	UpdateMessage UpdateType = "message"
)

// ProgressUpdate represents a progress notification during a run
type ProgressUpdate struct {
	Type  UpdateType
	Group string
	Path  string
	// Archives is the number of archives listed in a directory
	Archives int
	// Current is the 1-based index of the archive within its group
	Current   int
	Operation *models.FileOperation
	Message   *models.Message
	Summary   *models.GroupSummary
	Error     error
}

// Formatter defines the interface for output formatting
// Implementations include human-readable, progress bar and JSON formatters
type Formatter interface {
	// Start initializes the formatter for a new run
	Start(writer io.Writer, operation *models.RunOperation) error

	// Progress reports progress during the run
	Progress(update ProgressUpdate) error

	// Complete finalizes output and displays summary
	Complete(report *models.RunReport) error

	// Error reports an error outside of the run
	Error(err error) error

	// Name returns the formatter name
	Name() string
}

// Options selects and tunes a formatter
type Options struct {
	// Format is human or json
	Format string
	// Progress shows progress bars when the output is a terminal
	Progress bool
	// Verbose prints every info message
	Verbose bool
	// Quiet suppresses everything but errors and the final status
	Quiet bool
}

// New returns the formatter matching opts. interactive tells whether the
// output is a terminal; progress bars are only drawn on one.
func New(opts Options, interactive bool) (Formatter, error) {
	switch opts.Format {
	case "json":
		return NewJSONFormatter(), nil
	case "human", "":
		if opts.Progress && interactive && !opts.Quiet && !opts.Verbose {
			return NewProgressFormatter(), nil
		}
		f := NewHumanFormatter()
		f.Verbose = opts.Verbose
		f.Quiet = opts.Quiet
		return f, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s (use: human, json)", opts.Format)
	}
}
