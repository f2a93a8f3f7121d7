package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCommand creates the modsync command tree
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "modsync",
		Short: "Keep mod folders in step with a canonical mod set",
		Long: `modsync keeps the mod folders of game instances and servers up to date.
Mods are grouped by game version; each group has one canonical directory
holding the current archives and any number of tracked directories. Archives
are matched by the mod id in their descriptor, not by file name.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add global flags
	AddGlobalFlags(rootCmd)

	// Add commands
	rootCmd.AddCommand(NewSyncCommand())
	rootCmd.AddCommand(NewPlanCommand())
	rootCmd.AddCommand(NewIdentifyCommand())
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}
