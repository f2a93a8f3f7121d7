package cli

import (
	"context"
	"fmt"

	"github.com/sdejongh/modsync/pkg/compare"
	"github.com/sdejongh/modsync/pkg/identity"
	"github.com/sdejongh/modsync/pkg/logging"
	"github.com/sdejongh/modsync/pkg/output"
	"github.com/sdejongh/modsync/pkg/ratelimit"
	"github.com/sdejongh/modsync/pkg/report"
	"github.com/sdejongh/modsync/pkg/storage"
	"github.com/sdejongh/modsync/pkg/sync"
	"github.com/spf13/cobra"
)

// SyncFlags holds sync command flags
type SyncFlags struct {
	Groups       []string
	DryRun       bool
	Disable      bool
	Currency     string
	Bandwidth    string
	Exclude      []string
	Output       string
	NoProgress   bool
	Report       string
	ReportFormat string
	// Logging flags
	LogFile   string
	LogFormat string
	LogLevel  string
}

var syncFlags SyncFlags

// NewSyncCommand creates the sync command
func NewSyncCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Replace outdated mods in tracked directories",
		Long: `Reconcile every configured version group: each mod archive found in a
tracked directory is matched by mod id against the group's canonical directory
and replaced when the canonical copy differs. Archives without a canonical
counterpart are left alone.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(cmd, syncFlags.DryRun)
		},
	}

	addRunFlags(cmd)
	cmd.Flags().BoolVar(&syncFlags.DryRun, "dry-run", false, "report decisions without changing anything")
	cmd.Flags().BoolVar(&syncFlags.Disable, "disable", false, "move outdated archives into the disabled directory instead of deleting them")
	cmd.Flags().StringVarP(&syncFlags.Bandwidth, "bandwidth", "b", "", "bandwidth limit for installing canonical copies (e.g., \"10M\", \"1G\")")

	// Logging flags
	cmd.Flags().StringVar(&syncFlags.LogFile, "log-file", "", "write logs to file (enables logging)")
	cmd.Flags().StringVar(&syncFlags.LogFormat, "log-format", "", "log format: text, json, logfmt")
	cmd.Flags().StringVar(&syncFlags.LogLevel, "log-level", "", "log level: debug, info, warn, error")

	return cmd
}

// addRunFlags registers the flags shared by sync and plan
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&syncFlags.Groups, "group", "g", nil, "only reconcile these version groups")
	cmd.Flags().StringVar(&syncFlags.Currency, "currency", "", "currency test: name, hash")
	cmd.Flags().StringSliceVar(&syncFlags.Exclude, "exclude", nil, "glob patterns of archives to ignore")
	cmd.Flags().StringVarP(&syncFlags.Output, "output", "o", "", "output format: human, json")
	cmd.Flags().BoolVar(&syncFlags.NoProgress, "no-progress", false, "disable progress bars")
	cmd.Flags().StringVar(&syncFlags.Report, "report", "", "write the run report to file")
	cmd.Flags().StringVar(&syncFlags.ReportFormat, "report-format", "human", "report format: human, json")
}

func runReconcile(cmd *cobra.Command, dryRun bool) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override config with command-line flags
	if err := applyFlagsToConfig(cmd, cfg); err != nil {
		return err
	}

	operation, err := createRunOperation(cfg, dryRun)
	if err != nil {
		return fmt.Errorf("failed to create run operation: %w", err)
	}
	if len(operation.Groups) == 0 {
		return fmt.Errorf("no version groups configured (see: modsync config init)")
	}

	// Create storage backend
	filter, err := storage.NewFilter(operation.Extension, operation.ExcludePatterns)
	if err != nil {
		return err
	}
	var limiter *ratelimit.Limiter
	if operation.BandwidthLimit > 0 {
		limiter = ratelimit.NewLimiter(operation.BandwidthLimit)
	}
	backend, err := storage.NewLocal(storage.LocalOptions{
		Filter:     filter,
		BufferSize: operation.BufferSize,
		Limiter:    limiter,
	})
	if err != nil {
		return fmt.Errorf("failed to create storage backend: %w", err)
	}
	defer backend.Close()

	comparator, err := compare.New(operation.Currency, backend, operation.BufferSize)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	formatter, err := output.New(output.Options{
		Format:   cfg.Output.Format,
		Progress: cfg.Output.Progress,
		Verbose:  globalFlags.Verbose,
		Quiet:    cfg.Output.Quiet,
	}, output.IsTerminal(out))
	if err != nil {
		return err
	}

	logSize, err := cfg.LogMaxSize()
	if err != nil {
		return err
	}
	logger, err := createLogger(cfg.Logging.File, cfg.Logging.Format, cfg.Logging.Level, logSize, cfg.Logging.MaxBackups)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()
	logger = logger.WithFields(logging.Fields{"run": operation.ID})

	engine := sync.NewEngine(
		backend,
		identity.NewZipReader(operation.Descriptor),
		comparator,
		formatter,
		report.NewLoggerSink(ctx, logger),
		logger,
		operation,
	)
	engine.Output = out

	rep, err := engine.Run(ctx)
	if err != nil {
		return fmt.Errorf("reconciliation failed: %w", err)
	}

	// Write the report if requested:
	// - --report is specified (write to file)
	// - --report-format is explicitly set (write to stdout)
	if syncFlags.Report != "" || cmd.Flags().Changed("report-format") {
		if err := output.WriteRunReport(rep, syncFlags.Report, syncFlags.ReportFormat); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}

	if code := rep.Status.ExitCode(); code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}

// createLogger combines the file logger, when a log file is set, with a
// console logger on stderr in verbose mode
func createLogger(logFile, logFormat, logLevel string, maxSize int64, maxBackups int) (logging.Logger, error) {
	var file, console logging.Logger

	if logFile != "" {
		format, err := logging.ParseFormat(logFormat)
		if err != nil {
			return nil, err
		}

		l, err := logging.NewFileLogger(logging.FileLoggerConfig{
			Path:       logFile,
			Format:     format,
			Level:      logging.ParseLevel(logLevel),
			MaxSize:    maxSize,
			MaxBackups: maxBackups,
		})
		if err != nil {
			return nil, err
		}
		file = l
	}

	if globalFlags.Verbose {
		console = logging.NewConsoleLogger(logging.DebugLevel)
	}

	return logging.NewMulti(file, console), nil
}
