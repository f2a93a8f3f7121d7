package models

import (
	"time"
)

// Severity is the importance of a reported message
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Message is one line emitted to the reporting sink
type Message struct {
	Severity  Severity
	Group     string
	Path      string
	Text      string
	Timestamp time.Time
}

// RunReport represents the results of a reconciliation run
type RunReport struct {
	OperationID string
	DryRun      bool
	Currency    CurrencyMethod

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	Stats Statistics

	// Groups holds per-group summaries in processing order
	Groups []GroupSummary

	// Operations performed, one per scanned archive
	Operations []FileOperation

	// Warnings and Errors are the non-info messages of the run
	Warnings []Message
	Errors   []Message

	Status RunStatus
}

// GroupSummary summarizes one version group
type GroupSummary struct {
	Name               string
	CanonicalDir       string
	CanonicalMods      int
	DuplicateCanonical int
	TrackedDirs        int
	Replaced           int
	Current            int
	Unmatched          int
}

// Statistics holds run metrics
type Statistics struct {
	GroupsProcessed int

	CanonicalScanned    int
	CanonicalIndexed    int
	DuplicateCanonicals int

	DirsScanned int
	DirsSkipped int

	ArchivesScanned   int
	ArchivesCurrent   int
	ArchivesReplaced  int
	ArchivesUnmatched int
	IdentityErrors    int

	ArchivesDeleted  int
	ArchivesDisabled int
	MutationFailures int

	BytesCopied int64
}

// RunStatus represents the overall result
type RunStatus string

const (
	// StatusSuccess indicates the run finished without warnings or errors
	StatusSuccess RunStatus = "success"
	// StatusPartial indicates some units were skipped or failed
	StatusPartial RunStatus = "partial"
	// StatusFailed indicates the run could not be performed
	StatusFailed RunStatus = "failed"
	// StatusCancelled indicates the run was interrupted
	StatusCancelled RunStatus = "cancelled"
)

// ExitCode returns the appropriate exit code for the run status
func (s RunStatus) ExitCode() int {
	switch s {
	case StatusSuccess:
		return 0
	case StatusPartial:
		return 1
	case StatusFailed:
		return 2
	case StatusCancelled:
		return 3
	default:
		return 2
	}
}

// Record appends a message to the matching list
func (r *RunReport) Record(msg Message) {
	switch msg.Severity {
	case SeverityWarning:
		r.Warnings = append(r.Warnings, msg)
	case SeverityError:
		r.Errors = append(r.Errors, msg)
	}
}

// Finalize stamps the end time and derives the status
func (r *RunReport) Finalize(cancelled bool) {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
	switch {
	case cancelled:
		r.Status = StatusCancelled
	case len(r.Errors) > 0 || len(r.Warnings) > 0:
		r.Status = StatusPartial
	default:
		r.Status = StatusSuccess
	}
}
