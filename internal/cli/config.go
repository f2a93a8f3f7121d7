package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/sdejongh/modsync/pkg/config"
	"github.com/spf13/cobra"
)

// NewConfigCommand creates the config command
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  `View or create the modsync configuration.`,
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigInitCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	var asTOML bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			data, err := config.Marshal(cfg, asTOML)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			out.Write(data)

			groups, err := cfg.ToGroups()
			if err != nil {
				return err
			}
			if len(groups) == 0 {
				return nil
			}

			fmt.Fprintln(out, "\n# Resolved version groups:")
			for _, g := range groups {
				retire := "delete"
				if g.DisableOutdated {
					retire = "disable into " + cfg.Sync.DisabledDir
				}
				fmt.Fprintf(out, "#   %s: %s -> %d tracked (%s)\n", g.Name, g.CanonicalDir, len(g.TrackedDirs), retire)
				for _, dir := range g.TrackedDirs {
					fmt.Fprintf(out, "#     %s\n", dir)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asTOML, "toml", false, "print as TOML instead of YAML")

	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Create default configuration file",
		Long: `Write a configuration file with default settings and an example version
group. The format follows the file extension: .toml for TOML, YAML otherwise.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := globalFlags.ConfigFile
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				var err error
				if path, err = config.DefaultConfigPath(); err != nil {
					return err
				}
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}

			if err := config.SaveToFile(exampleConfig(), path); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created at: %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	return cmd
}

// exampleConfig is the default configuration with one group to edit
func exampleConfig() *config.Config {
	cfg := config.Default()
	cfg.Groups = []config.GroupConfig{
		{
			Name:      "1.20.1",
			Canonical: "~/mods/1.20.1",
			Tracked:   []string{},
		},
	}
	cfg.Exclude = []string{}
	return cfg
}
