package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sdejongh/modsync/pkg/models"
)

// WriteRunReport writes the consolidated report to path, or stdout when path
// is empty. Format can be "human" or "json".
func WriteRunReport(report *models.RunReport, path string, format string) error {
	var w io.Writer = os.Stdout
	if path != "" {
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer file.Close()
		w = file
	}

	switch format {
	case "json":
		return writeReportJSON(report, w)
	case "human", "":
		return writeReportHuman(report, w)
	default:
		return fmt.Errorf("unsupported report format: %s (use: human, json)", format)
	}
}

// writeReportHuman lists every change and unmatched archive per group, then the summary
func writeReportHuman(report *models.RunReport, w io.Writer) error {
	fmt.Fprintf(w, "Reconciliation Report\n")
	fmt.Fprintf(w, "=====================\n\n")
	fmt.Fprintf(w, "Generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(w, "Run ID: %s\n", report.OperationID)
	fmt.Fprintf(w, "Currency: %s\n", report.Currency)
	fmt.Fprintf(w, "Dry Run: %v\n", report.DryRun)

	for _, g := range report.Groups {
		var changes, unmatched []models.FileOperation
		for _, op := range report.Operations {
			if op.Group != g.Name {
				continue
			}
			switch op.Decision.Kind {
			case models.DecisionReplace:
				changes = append(changes, op)
			case models.DecisionUnmatched:
				unmatched = append(unmatched, op)
			}
		}

		fmt.Fprintf(w, "\nGroup %s (canonical: %s)\n", g.Name, g.CanonicalDir)

		if len(changes) > 0 {
			fmt.Fprintf(w, "\n  Replacements (%d)\n", len(changes))
			for _, op := range changes {
				fmt.Fprintf(w, "    %s -> %s\n", op.Archive.Path, op.Decision.Canonical.FileName)
				if op.Decision.Reason != "" {
					fmt.Fprintf(w, "      Reason:  %s\n", op.Decision.Reason)
				}
				if op.RetiredTo != "" {
					fmt.Fprintf(w, "      Retired: %s\n", op.RetiredTo)
				}
				if op.Error != nil {
					fmt.Fprintf(w, "      Error:   %v\n", op.Error)
				}
			}
		}

		if len(unmatched) > 0 {
			fmt.Fprintf(w, "\n  Unmatched (%d)\n", len(unmatched))
			for _, op := range unmatched {
				fmt.Fprintf(w, "    %s [%s]\n", op.Archive.Path, op.Decision.Cause)
			}
		}

		if len(changes) == 0 && len(unmatched) == 0 {
			fmt.Fprintf(w, "  Nothing to do\n")
		}
	}

	WriteSummary(w, report)
	return nil
}

func writeReportJSON(report *models.RunReport, w io.Writer) error {
	output := struct {
		Generated string `json:"generated"`
		JSONReportData
	}{
		Generated:      time.Now().Format(time.RFC3339),
		JSONReportData: BuildJSONReport(report),
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
