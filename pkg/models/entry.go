package models

import (
	"time"
)

// Identifier is the mod id read from an archive's descriptor.
// It is case-sensitive and only unique within one VersionGroup.
type Identifier string

// String returns the identifier as a plain string
func (id Identifier) String() string {
	return string(id)
}

// CanonicalEntry is the authoritative copy of a mod inside a group's canonical directory
type CanonicalEntry struct {
	// Identifier is the mod id
	Identifier Identifier
	// Path is the full path of the archive
	Path string
	// FileName is the base name of the archive
	FileName string
	// Size in bytes
	Size int64
	// ModTime is the freshness of the archive
	ModTime time.Time
}

// ScannedArchive is one archive found in a tracked directory during a reconciliation pass
type ScannedArchive struct {
	// Identifier is empty when IdentityErr is set
	Identifier Identifier
	// IdentityErr holds the reason the identity could not be read
	IdentityErr error
	// Dir is the tracked directory containing the archive
	Dir string
	// FileName is the base name of the archive
	FileName string
	// Path is the full path of the archive
	Path string
	// Size in bytes
	Size int64
	// ModTime is the last modification time
	ModTime time.Time
}

// HasIdentity reports whether the archive's identity was read successfully
func (a *ScannedArchive) HasIdentity() bool {
	return a.IdentityErr == nil && a.Identifier != ""
}

// DecisionKind is the outcome of classifying a scanned archive
type DecisionKind string

const (
	// DecisionCurrent means the archive already matches its canonical copy
	DecisionCurrent DecisionKind = "current"
	// DecisionReplace means the archive must be replaced by its canonical copy
	DecisionReplace DecisionKind = "replace"
	// DecisionUnmatched means the archive is left alone
	DecisionUnmatched DecisionKind = "unmatched"
)

// UnmatchedCause explains why an archive was not matched
type UnmatchedCause string

const (
	// CauseNone is used for matched decisions
	CauseNone UnmatchedCause = ""
	// CauseIdentityError means the archive's identity could not be read
	CauseIdentityError UnmatchedCause = "identity-error"
	// CauseNoCanonical means no canonical copy exists for the identity
	CauseNoCanonical UnmatchedCause = "no-canonical"
	// CauseCompareFailed means the currency test could not read one of the archives
	CauseCompareFailed UnmatchedCause = "compare-failed"
)

// Decision is the reconciliation verdict for one scanned archive
type Decision struct {
	Kind DecisionKind
	// Canonical is set for current and replace decisions
	Canonical *CanonicalEntry
	// Cause is set for unmatched decisions
	Cause  UnmatchedCause
	Reason string
}

// Current builds a current decision
func Current(entry *CanonicalEntry, reason string) Decision {
	return Decision{Kind: DecisionCurrent, Canonical: entry, Reason: reason}
}

// Replace builds a replace decision
func Replace(entry *CanonicalEntry, reason string) Decision {
	return Decision{Kind: DecisionReplace, Canonical: entry, Reason: reason}
}

// Unmatched builds an unmatched decision
func Unmatched(cause UnmatchedCause, reason string) Decision {
	return Decision{Kind: DecisionUnmatched, Cause: cause, Reason: reason}
}

// Action is the physical operation applied to a tracked archive
type Action string

const (
	// ActionNone means nothing was done
	ActionNone Action = "none"
	// ActionReplace means the archive was retired and the canonical copy installed
	ActionReplace Action = "replace"
	// ActionDelete removes an outdated archive
	ActionDelete Action = "delete"
	// ActionDisable moves an outdated archive into the disabled directory
	ActionDisable Action = "disable"
	// ActionCopy installs the canonical copy
	ActionCopy Action = "copy"
)

// FileOperation records what happened to one scanned archive
type FileOperation struct {
	Group    string
	Archive  ScannedArchive
	Decision Decision
	Action   Action
	// Retired is delete or disable once the outdated archive is gone
	Retired Action
	// RetiredTo is the destination of a disabled archive
	RetiredTo string
	// InstalledPath is where the canonical copy was written
	InstalledPath string
	BytesCopied   int64
	DryRun        bool
	Error         error
	Duration      time.Duration
}
