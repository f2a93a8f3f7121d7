package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/docker/go-units"
	"github.com/sdejongh/modsync/pkg/models"
)

// JSONFormatter formats output as JSON for automation and scripting
type JSONFormatter struct {
	writer io.Writer
	errors []string
}

// JSONReportData represents the final report data
type JSONReportData struct {
	OperationID string              `json:"operation_id"`
	Status      string              `json:"status"`
	DryRun      bool                `json:"dry_run"`
	Currency    string              `json:"currency"`
	StartTime   string              `json:"start_time"`
	Duration    string              `json:"duration"`
	DurationMs  int64               `json:"duration_ms"`
	Stats       JSONStatsData       `json:"stats"`
	Groups      []JSONGroupData     `json:"groups"`
	Changes     []JSONOperationData `json:"changes,omitempty"`
	Unmatched   []JSONOperationData `json:"unmatched,omitempty"`
	Warnings    []JSONMessageData   `json:"warnings,omitempty"`
	Errors      []JSONMessageData   `json:"errors,omitempty"`
}

// JSONStatsData represents statistics in JSON format
type JSONStatsData struct {
	Canonical JSONCanonicalData `json:"canonical"`
	Tracked   JSONTrackedData   `json:"tracked"`
	Archives  JSONArchivesData  `json:"archives"`
	Mutations JSONMutationsData `json:"mutations"`
}

// JSONCanonicalData represents canonical index statistics
type JSONCanonicalData struct {
	Scanned    int `json:"scanned"`
	Indexed    int `json:"indexed"`
	Duplicates int `json:"duplicates"`
}

// JSONTrackedData represents tracked directory statistics
type JSONTrackedData struct {
	DirsScanned int `json:"dirs_scanned"`
	DirsSkipped int `json:"dirs_skipped"`
}

// JSONArchivesData represents classification statistics
type JSONArchivesData struct {
	Scanned        int `json:"scanned"`
	Current        int `json:"current"`
	Replaced       int `json:"replaced"`
	Unmatched      int `json:"unmatched"`
	IdentityErrors int `json:"identity_errors"`
}

// JSONMutationsData represents filesystem change statistics
type JSONMutationsData struct {
	Deleted     int    `json:"deleted"`
	Disabled    int    `json:"disabled"`
	Failures    int    `json:"failures"`
	BytesCopied int64  `json:"bytes_copied"`
	Copied      string `json:"copied"`
}

// JSONGroupData represents one version group summary
type JSONGroupData struct {
	Name               string `json:"name"`
	CanonicalDir       string `json:"canonical_dir"`
	CanonicalMods      int    `json:"canonical_mods"`
	DuplicateCanonical int    `json:"duplicate_canonical,omitempty"`
	TrackedDirs        int    `json:"tracked_dirs"`
	Replaced           int    `json:"replaced"`
	Current            int    `json:"current"`
	Unmatched          int    `json:"unmatched"`
}

// JSONOperationData represents a replacement or an unmatched archive
type JSONOperationData struct {
	Group      string `json:"group"`
	Path       string `json:"path"`
	Identifier string `json:"id,omitempty"`
	Canonical  string `json:"canonical,omitempty"`
	Installed  string `json:"installed,omitempty"`
	Retired    string `json:"retired,omitempty"`
	RetiredTo  string `json:"retired_to,omitempty"`
	Cause      string `json:"cause,omitempty"`
	Reason     string `json:"reason,omitempty"`
	Error      string `json:"error,omitempty"`
}

// JSONMessageData represents a warning or error
type JSONMessageData struct {
	Group string `json:"group,omitempty"`
	Path  string `json:"path,omitempty"`
	Text  string `json:"message"`
	Time  string `json:"time"`
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Start initializes the formatter
func (f *JSONFormatter) Start(writer io.Writer, operation *models.RunOperation) error {
	if writer == nil {
		writer = os.Stdout
	}
	f.writer = writer
	return nil
}

// Progress is silent so the output stays a single parseable document
func (f *JSONFormatter) Progress(update ProgressUpdate) error {
	return nil
}

// Complete writes the report as one indented JSON document
func (f *JSONFormatter) Complete(report *models.RunReport) error {
	if f.writer == nil {
		f.writer = io.Discard
	}

	data := BuildJSONReport(report)
	for _, e := range f.errors {
		data.Errors = append(data.Errors, JSONMessageData{Text: e, Time: time.Now().Format(time.RFC3339)})
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// Error records an error to include in the final document
func (f *JSONFormatter) Error(err error) error {
	f.errors = append(f.errors, err.Error())
	return nil
}

// Name returns the formatter name
func (f *JSONFormatter) Name() string {
	return "json"
}

// BuildJSONReport converts a run report to its JSON representation
func BuildJSONReport(report *models.RunReport) JSONReportData {
	st := report.Stats
	data := JSONReportData{
		OperationID: report.OperationID,
		Status:      string(report.Status),
		DryRun:      report.DryRun,
		Currency:    string(report.Currency),
		StartTime:   report.StartTime.Format(time.RFC3339),
		Duration:    report.Duration.Round(time.Millisecond).String(),
		DurationMs:  report.Duration.Milliseconds(),
		Stats: JSONStatsData{
			Canonical: JSONCanonicalData{
				Scanned:    st.CanonicalScanned,
				Indexed:    st.CanonicalIndexed,
				Duplicates: st.DuplicateCanonicals,
			},
			Tracked: JSONTrackedData{
				DirsScanned: st.DirsScanned,
				DirsSkipped: st.DirsSkipped,
			},
			Archives: JSONArchivesData{
				Scanned:        st.ArchivesScanned,
				Current:        st.ArchivesCurrent,
				Replaced:       st.ArchivesReplaced,
				Unmatched:      st.ArchivesUnmatched,
				IdentityErrors: st.IdentityErrors,
			},
			Mutations: JSONMutationsData{
				Deleted:     st.ArchivesDeleted,
				Disabled:    st.ArchivesDisabled,
				Failures:    st.MutationFailures,
				BytesCopied: st.BytesCopied,
				Copied:      units.BytesSize(float64(st.BytesCopied)),
			},
		},
		Groups: make([]JSONGroupData, 0, len(report.Groups)),
	}

	for _, g := range report.Groups {
		data.Groups = append(data.Groups, JSONGroupData{
			Name:               g.Name,
			CanonicalDir:       g.CanonicalDir,
			CanonicalMods:      g.CanonicalMods,
			DuplicateCanonical: g.DuplicateCanonical,
			TrackedDirs:        g.TrackedDirs,
			Replaced:           g.Replaced,
			Current:            g.Current,
			Unmatched:          g.Unmatched,
		})
	}

	for _, op := range report.Operations {
		switch op.Decision.Kind {
		case models.DecisionReplace:
			data.Changes = append(data.Changes, operationData(op))
		case models.DecisionUnmatched:
			data.Unmatched = append(data.Unmatched, operationData(op))
		}
	}

	data.Warnings = messagesData(report.Warnings)
	data.Errors = messagesData(report.Errors)
	return data
}

func operationData(op models.FileOperation) JSONOperationData {
	d := JSONOperationData{
		Group:      op.Group,
		Path:       op.Archive.Path,
		Identifier: string(op.Archive.Identifier),
		Installed:  op.InstalledPath,
		Retired:    string(op.Retired),
		RetiredTo:  op.RetiredTo,
		Cause:      string(op.Decision.Cause),
		Reason:     op.Decision.Reason,
	}
	if op.Decision.Canonical != nil {
		d.Canonical = op.Decision.Canonical.Path
	}
	if op.Error != nil {
		d.Error = op.Error.Error()
	}
	return d
}

func messagesData(msgs []models.Message) []JSONMessageData {
	var out []JSONMessageData
	for _, m := range msgs {
		out = append(out, JSONMessageData{
			Group: m.Group,
			Path:  m.Path,
			Text:  m.Text,
			Time:  m.Timestamp.Format(time.RFC3339),
		})
	}
	return out
}
