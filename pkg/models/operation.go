package models

import (
	"time"
)

// VersionGroup pairs one canonical directory with the directories kept in sync with it
type VersionGroup struct {
	// Name is the version label, e.g. "1.20.1"
	Name string
	// CanonicalDir holds the freshest copy of every mod. Empty means no canonical source.
	CanonicalDir string
	// TrackedDirs are reconciled in this order
	TrackedDirs []string
	// DisableOutdated moves superseded archives into the disabled directory instead of deleting them
	DisableOutdated bool
}

// CurrencyMethod defines how a tracked archive is judged up to date
type CurrencyMethod string

const (
	// CurrencyName treats equal file names as the same release
	CurrencyName CurrencyMethod = "name"
	// CurrencyHash compares SHA-256 digests of the archive content
	CurrencyHash CurrencyMethod = "hash"
)

// RunOperation is the resolved configuration of one reconciliation run
type RunOperation struct {
	ID              string
	Groups          []VersionGroup
	Currency        CurrencyMethod
	Extension       string
	Descriptor      string
	DisabledDir     string
	ExcludePatterns []string
	DryRun          bool
	BandwidthLimit  int64 // bytes per second, 0 = unlimited
	BufferSize      int
	CreatedAt       time.Time
}

// Validate checks if the operation configuration is valid
func (op *RunOperation) Validate() error {
	if op.Extension == "" {
		return &ValidationError{Field: "Extension", Message: "archive extension is required"}
	}
	if op.Descriptor == "" {
		return &ValidationError{Field: "Descriptor", Message: "descriptor name is required"}
	}
	if op.DisabledDir == "" {
		return &ValidationError{Field: "DisabledDir", Message: "disabled directory name is required"}
	}
	switch op.Currency {
	case CurrencyName, CurrencyHash:
	default:
		return &ValidationError{Field: "Currency", Message: "must be 'name' or 'hash'"}
	}
	if op.BufferSize < 1024 {
		return &ValidationError{Field: "BufferSize", Message: "buffer size must be at least 1024 bytes"}
	}
	seen := make(map[string]bool, len(op.Groups))
	for _, g := range op.Groups {
		if g.Name == "" {
			return &ValidationError{Field: "Groups", Message: "group name is required"}
		}
		if seen[g.Name] {
			return &ValidationError{Field: "Groups", Message: "duplicate group name " + g.Name}
		}
		seen[g.Name] = true
	}
	return nil
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
