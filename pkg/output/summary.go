package output

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/docker/go-units"
	"github.com/sdejongh/modsync/pkg/models"
)

// styles holds the lipgloss styles of the human output, bound to one writer
// so colors are only emitted on terminals
type styles struct {
	title   lipgloss.Style
	label   lipgloss.Style
	group   lipgloss.Style
	ok      lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	faint   lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title:   r.NewStyle().Bold(true),
		label:   r.NewStyle().Width(12),
		group:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		ok:      r.NewStyle().Foreground(lipgloss.Color("10")),
		warning: r.NewStyle().Foreground(lipgloss.Color("11")),
		failure: r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		faint:   r.NewStyle().Faint(true),
	}
}

func (s styles) status(status models.RunStatus) string {
	switch status {
	case models.StatusSuccess:
		return s.ok.Render(string(status))
	case models.StatusPartial, models.StatusCancelled:
		return s.warning.Render(string(status))
	default:
		return s.failure.Render(string(status))
	}
}

func (s styles) message(msg models.Message) string {
	switch msg.Severity {
	case models.SeverityError:
		return s.failure.Render("error") + " " + messageText(msg)
	case models.SeverityWarning:
		return s.warning.Render("warning") + " " + messageText(msg)
	default:
		return s.faint.Render("info") + " " + messageText(msg)
	}
}

func messageText(msg models.Message) string {
	if msg.Group == "" {
		return msg.Text
	}
	return "[" + msg.Group + "] " + msg.Text
}

// WriteSummary writes the end-of-run summary of report in human-readable form
func WriteSummary(w io.Writer, report *models.RunReport) {
	s := newStyles(w)

	verb := "Reconciliation"
	replaced := "replaced"
	if report.DryRun {
		verb = "Dry run"
		replaced = "to replace"
	}
	fmt.Fprintf(w, "\n%s\n\n", s.title.Render(fmt.Sprintf("%s completed in %s", verb, report.Duration.Round(time.Millisecond))))

	if len(report.Groups) > 0 {
		fmt.Fprintln(w, s.title.Render("Groups:"))
		for _, g := range report.Groups {
			line := fmt.Sprintf("  %s  %d canonical mods, %d tracked dirs: %d %s, %d current, %d unmatched",
				s.group.Render(g.Name), g.CanonicalMods, g.TrackedDirs, g.Replaced, replaced, g.Current, g.Unmatched)
			if g.DuplicateCanonical > 0 {
				line += s.warning.Render(fmt.Sprintf(" (%d duplicate identities)", g.DuplicateCanonical))
			}
			fmt.Fprintln(w, line)
		}
		fmt.Fprintln(w)
	}

	st := report.Stats
	fmt.Fprintln(w, s.title.Render("Summary:"))
	fmt.Fprintf(w, "  %s%d scanned, %d indexed, %d duplicate identities\n", s.label.Render("Canonical:"),
		st.CanonicalScanned, st.CanonicalIndexed, st.DuplicateCanonicals)
	fmt.Fprintf(w, "  %s%d dirs scanned, %d skipped\n", s.label.Render("Tracked:"), st.DirsScanned, st.DirsSkipped)
	fmt.Fprintf(w, "  %s%d scanned, %d current, %d %s, %d unmatched\n", s.label.Render("Archives:"),
		st.ArchivesScanned, st.ArchivesCurrent, st.ArchivesReplaced, replaced, st.ArchivesUnmatched)
	if !report.DryRun {
		fmt.Fprintf(w, "  %s%d deleted, %d disabled\n", s.label.Render("Retired:"), st.ArchivesDeleted, st.ArchivesDisabled)
		fmt.Fprintf(w, "  %s%s", s.label.Render("Copied:"), units.BytesSize(float64(st.BytesCopied)))
		if secs := report.Duration.Seconds(); secs > 0 && st.BytesCopied > 0 {
			fmt.Fprintf(w, " at %s/s", units.BytesSize(float64(st.BytesCopied)/secs))
		}
		fmt.Fprintln(w)
	}
	if st.IdentityErrors > 0 || st.MutationFailures > 0 {
		fmt.Fprintf(w, "  %s%s\n", s.label.Render("Failures:"), s.warning.Render(
			fmt.Sprintf("%d unidentifiable archives, %d failed replacements", st.IdentityErrors, st.MutationFailures)))
	}

	fmt.Fprintf(w, "\nStatus: %s\n", s.status(report.Status))

	if len(report.Warnings) > 0 {
		fmt.Fprintf(w, "\n%s\n", s.warning.Render(fmt.Sprintf("Warnings (%d):", len(report.Warnings))))
		for _, m := range report.Warnings {
			fmt.Fprintf(w, "  %s\n", messageText(m))
		}
	}
	if len(report.Errors) > 0 {
		fmt.Fprintf(w, "\n%s\n", s.failure.Render(fmt.Sprintf("Errors (%d):", len(report.Errors))))
		for _, m := range report.Errors {
			fmt.Fprintf(w, "  %s\n", messageText(m))
		}
	}
}
