package config

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/docker/go-units"
	"github.com/sdejongh/modsync/internal/platform"
	"github.com/sdejongh/modsync/pkg/identity"
	"github.com/sdejongh/modsync/pkg/logging"
	"github.com/sdejongh/modsync/pkg/models"
	"github.com/sdejongh/modsync/pkg/storage"
)

// Config represents the application configuration
type Config struct {
	Groups      []GroupConfig     `yaml:"groups" toml:"groups"`
	Archive     ArchiveConfig     `yaml:"archive" toml:"archive"`
	Sync        SyncConfig        `yaml:"sync" toml:"sync"`
	Performance PerformanceConfig `yaml:"performance" toml:"performance"`
	Output      OutputConfig      `yaml:"output" toml:"output"`
	Logging     LoggingConfig     `yaml:"logging" toml:"logging"`
	Exclude     []string          `yaml:"exclude" toml:"exclude"`

	// baseDir resolves relative group paths, the config file's directory
	baseDir string
}

// GroupConfig describes one version group
type GroupConfig struct {
	Name      string   `yaml:"name" toml:"name"`
	Canonical string   `yaml:"canonical" toml:"canonical"`
	Tracked   []string `yaml:"tracked" toml:"tracked"`
	// DisableInsteadOfDelete overrides sync.disable_instead_of_delete when set
	DisableInsteadOfDelete *bool `yaml:"disable_instead_of_delete,omitempty" toml:"disable_instead_of_delete,omitempty"`
}

// ArchiveConfig selects which files are mods and where their identity lives
type ArchiveConfig struct {
	Extension  string `yaml:"extension" toml:"extension"`
	Descriptor string `yaml:"descriptor" toml:"descriptor"`
}

// SyncConfig holds reconciliation settings
type SyncConfig struct {
	Currency               models.CurrencyMethod `yaml:"currency" toml:"currency"`
	DisableInsteadOfDelete bool                  `yaml:"disable_instead_of_delete" toml:"disable_instead_of_delete"`
	DisabledDir            string                `yaml:"disabled_dir" toml:"disabled_dir"`
}

// PerformanceConfig holds performance-related settings
type PerformanceConfig struct {
	BufferSize int `yaml:"buffer_size" toml:"buffer_size"`
	// BandwidthLimit is a size per second such as "10MB", empty for unlimited
	BandwidthLimit string `yaml:"bandwidth_limit" toml:"bandwidth_limit"`
}

// OutputConfig holds output-related settings
type OutputConfig struct {
	Format   string `yaml:"format" toml:"format"`     // "human" or "json"
	Progress bool   `yaml:"progress" toml:"progress"` // Show progress bars
	Quiet    bool   `yaml:"quiet" toml:"quiet"`       // Suppress non-error output
}

// LoggingConfig holds logging-related settings
type LoggingConfig struct {
	Format     string `yaml:"format" toml:"format"` // "text", "json" or "logfmt"
	Level      string `yaml:"level" toml:"level"`   // "debug", "info", "warn", "error"
	File       string `yaml:"file" toml:"file"`     // Log file path (empty = no file log)
	MaxSize    string `yaml:"max_size" toml:"max_size"`
	MaxBackups int    `yaml:"max_backups" toml:"max_backups"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Archive: ArchiveConfig{
			Extension:  storage.DefaultExtension,
			Descriptor: identity.DefaultDescriptor,
		},
		Sync: SyncConfig{
			Currency:    models.CurrencyName,
			DisabledDir: "DISABLED",
		},
		Performance: PerformanceConfig{
			BufferSize: 65536,
		},
		Output: OutputConfig{
			Format:   "human",
			Progress: true,
		},
		Logging: LoggingConfig{
			Format:     "text",
			Level:      "info",
			MaxSize:    "10MB",
			MaxBackups: 3,
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.Archive.Extension, ".") || len(c.Archive.Extension) < 2 {
		return &models.ValidationError{
			Field:   "archive.extension",
			Message: "must start with a dot, like .jar",
		}
	}

	if c.Archive.Descriptor == "" {
		return &models.ValidationError{
			Field:   "archive.descriptor",
			Message: "is required",
		}
	}

	switch c.Sync.Currency {
	case models.CurrencyName, models.CurrencyHash:
	default:
		return &models.ValidationError{
			Field:   "sync.currency",
			Message: "must be 'name' or 'hash'",
		}
	}

	if c.Sync.DisabledDir == "" || strings.ContainsAny(c.Sync.DisabledDir, `/\`) || c.Sync.DisabledDir == "." || c.Sync.DisabledDir == ".." {
		return &models.ValidationError{
			Field:   "sync.disabled_dir",
			Message: "must be a plain directory name",
		}
	}

	if c.Performance.BufferSize < 1024 {
		return &models.ValidationError{
			Field:   "performance.buffer_size",
			Message: "must be at least 1024 bytes",
		}
	}

	if _, err := c.Bandwidth(); err != nil {
		return &models.ValidationError{
			Field:   "performance.bandwidth_limit",
			Message: err.Error(),
		}
	}

	validFormats := map[string]bool{"human": true, "json": true}
	if !validFormats[c.Output.Format] {
		return &models.ValidationError{
			Field:   "output.format",
			Message: "must be 'human' or 'json'",
		}
	}

	if _, err := logging.ParseFormat(c.Logging.Format); err != nil {
		return &models.ValidationError{
			Field:   "logging.format",
			Message: "must be 'text', 'json', or 'logfmt'",
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return &models.ValidationError{
			Field:   "logging.level",
			Message: "must be 'debug', 'info', 'warn', or 'error'",
		}
	}

	if _, err := c.LogMaxSize(); err != nil {
		return &models.ValidationError{
			Field:   "logging.max_size",
			Message: err.Error(),
		}
	}

	for _, pattern := range c.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return &models.ValidationError{
				Field:   "exclude",
				Message: fmt.Sprintf("invalid glob pattern %q", pattern),
			}
		}
	}

	return c.validateGroups()
}

func (c *Config) validateGroups() error {
	seen := make(map[string]bool, len(c.Groups))
	for i, g := range c.Groups {
		field := fmt.Sprintf("groups[%d]", i)
		if g.Name == "" {
			return &models.ValidationError{Field: field + ".name", Message: "is required"}
		}
		if seen[g.Name] {
			return &models.ValidationError{Field: field + ".name", Message: "duplicate group " + g.Name}
		}
		seen[g.Name] = true

		canonical, err := c.resolveCanonical(g.Canonical)
		if err != nil {
			return &models.ValidationError{Field: field + ".canonical", Message: err.Error()}
		}

		tracked := make([]string, 0, len(g.Tracked))
		for j, dir := range g.Tracked {
			resolved, err := platform.Resolve(c.baseDir, dir)
			if err != nil {
				return &models.ValidationError{Field: fmt.Sprintf("%s.tracked[%d]", field, j), Message: err.Error()}
			}
			if canonical != "" && platform.SamePath(resolved, canonical) {
				return &models.ValidationError{
					Field:   fmt.Sprintf("%s.tracked[%d]", field, j),
					Message: "tracked directory is the canonical directory",
				}
			}
			for _, prev := range tracked {
				if platform.SamePath(prev, resolved) {
					return &models.ValidationError{
						Field:   fmt.Sprintf("%s.tracked[%d]", field, j),
						Message: "directory listed twice: " + dir,
					}
				}
			}
			tracked = append(tracked, resolved)
		}
	}
	return nil
}

// resolveCanonical resolves a canonical directory. An empty path stays empty;
// such a group has an empty index and every tracked archive is unmatched.
func (c *Config) resolveCanonical(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", nil
	}
	return platform.Resolve(c.baseDir, path)
}

// Bandwidth returns the copy bandwidth limit in bytes per second, 0 for unlimited
func (c *Config) Bandwidth() (int64, error) {
	return ParseSize(c.Performance.BandwidthLimit)
}

// LogMaxSize returns the log rotation size in bytes, 0 to disable rotation
func (c *Config) LogMaxSize() (int64, error) {
	return ParseSize(c.Logging.MaxSize)
}

// ParseSize parses a human size such as "512KB" or "10MB". Empty and "0"
// mean no limit.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	n, err := units.RAMInBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid size %q: must not be negative", s)
	}
	return n, nil
}

// SetBaseDir sets the directory relative group paths are resolved against
func (c *Config) SetBaseDir(dir string) {
	c.baseDir = dir
}

// ToGroups resolves the configured groups into version groups. With names,
// only those groups are returned, in configuration order.
func (c *Config) ToGroups(names ...string) ([]models.VersionGroup, error) {
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}

	var groups []models.VersionGroup
	for _, g := range c.Groups {
		if len(names) > 0 && !wanted[g.Name] {
			continue
		}
		delete(wanted, g.Name)

		canonical, err := c.resolveCanonical(g.Canonical)
		if err != nil {
			return nil, fmt.Errorf("group %s: %w", g.Name, err)
		}

		tracked := make([]string, 0, len(g.Tracked))
		for _, dir := range g.Tracked {
			resolved, err := platform.Resolve(c.baseDir, dir)
			if err != nil {
				return nil, fmt.Errorf("group %s: %w", g.Name, err)
			}
			tracked = append(tracked, resolved)
		}

		disable := c.Sync.DisableInsteadOfDelete
		if g.DisableInsteadOfDelete != nil {
			disable = *g.DisableInsteadOfDelete
		}

		groups = append(groups, models.VersionGroup{
			Name:            g.Name,
			CanonicalDir:    canonical,
			TrackedDirs:     tracked,
			DisableOutdated: disable,
		})
	}

	for _, n := range names {
		if wanted[n] {
			return nil, fmt.Errorf("unknown group: %s", n)
		}
	}

	return groups, nil
}
