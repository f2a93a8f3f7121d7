package cli

import (
	"time"

	"github.com/google/uuid"
	"github.com/sdejongh/modsync/pkg/config"
	"github.com/sdejongh/modsync/pkg/models"
	"github.com/spf13/cobra"
)

// loadConfig loads configuration from file or returns default
func loadConfig() (*config.Config, error) {
	if globalFlags.ConfigFile != "" {
		return config.LoadFromFile(globalFlags.ConfigFile)
	}
	return config.LoadDefault()
}

// applyFlagsToConfig overrides config values with the flags set on the command line
func applyFlagsToConfig(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	if flags.Changed("currency") {
		cfg.Sync.Currency = models.CurrencyMethod(syncFlags.Currency)
	}

	// Groups with their own setting keep it
	if flags.Changed("disable") {
		cfg.Sync.DisableInsteadOfDelete = syncFlags.Disable
	}

	if flags.Changed("bandwidth") {
		cfg.Performance.BandwidthLimit = syncFlags.Bandwidth
	}

	// Exclude patterns
	if len(syncFlags.Exclude) > 0 {
		cfg.Exclude = append(cfg.Exclude, syncFlags.Exclude...)
	}

	// Output format
	if flags.Changed("output") {
		cfg.Output.Format = syncFlags.Output
	}
	if syncFlags.NoProgress {
		cfg.Output.Progress = false
	}

	// Disable progress in quiet mode
	if globalFlags.Quiet {
		cfg.Output.Progress = false
		cfg.Output.Quiet = true
	}

	if flags.Changed("log-file") {
		cfg.Logging.File = syncFlags.LogFile
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = syncFlags.LogFormat
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = syncFlags.LogLevel
	}

	return cfg.Validate()
}

// createRunOperation creates a run operation from configuration
func createRunOperation(cfg *config.Config, dryRun bool) (*models.RunOperation, error) {
	groups, err := cfg.ToGroups(syncFlags.Groups...)
	if err != nil {
		return nil, err
	}

	bandwidth, err := cfg.Bandwidth()
	if err != nil {
		return nil, err
	}

	operation := &models.RunOperation{
		ID:              uuid.New().String(),
		Groups:          groups,
		Currency:        cfg.Sync.Currency,
		Extension:       cfg.Archive.Extension,
		Descriptor:      cfg.Archive.Descriptor,
		DisabledDir:     cfg.Sync.DisabledDir,
		ExcludePatterns: cfg.Exclude,
		DryRun:          dryRun,
		BandwidthLimit:  bandwidth,
		BufferSize:      cfg.Performance.BufferSize,
		CreatedAt:       time.Now(),
	}

	if err := operation.Validate(); err != nil {
		return nil, err
	}

	return operation, nil
}
