package output

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/cheggaaa/pb/v3"
	"github.com/sdejongh/modsync/pkg/models"
	"golang.org/x/term"
)

const (
	defaultTermWidth = 120
	barTemplate      = `{{string . "prefix"}} {{counters . }} {{bar . "[" "=" ">" " " "]"}} {{percent . }} {{etime . }}`
)

// ProgressFormatter draws one progress bar per version group. Replacements
// are buffered while a bar is live and printed once the group is done.
type ProgressFormatter struct {
	writer    io.Writer
	termWidth int
	static    bool
	styles    styles

	mu      sync.Mutex
	bar     *pb.ProgressBar
	pending []string
}

// NewProgressFormatter creates a new progress bar formatter
func NewProgressFormatter() *ProgressFormatter {
	return &ProgressFormatter{}
}

// IsTerminal reports whether w is an interactive terminal
func IsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

// Start initializes the formatter
func (f *ProgressFormatter) Start(writer io.Writer, operation *models.RunOperation) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if writer == nil {
		writer = os.Stdout
	}
	f.writer = writer
	f.styles = newStyles(writer)

	// Pipes and redirects get a fixed width and static rendering
	f.termWidth = defaultTermWidth
	f.static = true
	if file, ok := writer.(*os.File); ok {
		if width, _, err := term.GetSize(int(file.Fd())); err == nil && width > 0 {
			f.termWidth = width
			f.static = false
		}
	}

	suffix := ""
	if operation.DryRun {
		suffix = " (dry run)"
	}
	fmt.Fprintf(f.writer, "Reconciling %d version groups%s\n", len(operation.Groups), suffix)
	return nil
}

// Progress reports progress during the run
func (f *ProgressFormatter) Progress(update ProgressUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writer == nil {
		return nil
	}

	switch update.Type {
	case UpdateGroupStart:
		f.finishBar()
		f.bar = pb.ProgressBarTemplate(barTemplate).New(0)
		f.bar.Set("prefix", f.styles.group.Render(update.Group))
		f.bar.SetWriter(f.writer)
		f.bar.SetMaxWidth(f.termWidth)
		if f.static {
			f.bar.Set(pb.Static, true)
		}
		f.bar.Start()

	case UpdateDirectory:
		if f.bar != nil && update.Error == nil {
			f.bar.AddTotal(int64(update.Archives))
		}

	case UpdateArchive:
		if f.bar != nil {
			f.bar.Increment()
		}
		if op := update.Operation; op != nil && op.Action == models.ActionReplace && op.Error == nil {
			verb := "replaced"
			if op.DryRun {
				verb = "would replace"
			}
			f.pending = append(f.pending, fmt.Sprintf("  %s %s -> %s", verb, op.Archive.Path, op.Decision.Canonical.FileName))
		}

	case UpdateMessage:
		if msg := update.Message; msg != nil && msg.Severity == models.SeverityError {
			f.pending = append(f.pending, "  "+f.styles.message(*msg))
		}

	case UpdateGroupDone:
		f.finishBar()
		if s := update.Summary; s != nil {
			fmt.Fprintf(f.writer, "  %d replaced, %d current, %d unmatched\n", s.Replaced, s.Current, s.Unmatched)
		}
	}

	return nil
}

// finishBar stops the live bar and flushes buffered lines
func (f *ProgressFormatter) finishBar() {
	if f.bar != nil {
		if f.static {
			f.bar.Write()
		}
		f.bar.Finish()
		f.bar = nil
	}
	for _, line := range f.pending {
		fmt.Fprintln(f.writer, line)
	}
	f.pending = f.pending[:0]
}

// Complete finalizes output and displays summary
func (f *ProgressFormatter) Complete(report *models.RunReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writer == nil {
		f.writer = os.Stdout
	}
	f.finishBar()
	WriteSummary(f.writer, report)
	return nil
}

// Error reports an error
func (f *ProgressFormatter) Error(err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writer == nil {
		f.writer = os.Stderr
	}
	f.finishBar()
	fmt.Fprintf(f.writer, "Error: %v\n", err)
	return nil
}

// Name returns the formatter name
func (f *ProgressFormatter) Name() string {
	return "progress"
}
