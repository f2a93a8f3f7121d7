package cli

import (
	"github.com/spf13/cobra"
)

// NewPlanCommand creates the plan command
func NewPlanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show what sync would do (dry-run)",
		Long: `Classify every archive of the tracked directories and report which ones
would be replaced, without performing any file operations.
This is equivalent to sync --dry-run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(cmd, true)
		},
	}

	// Reuse sync flags for planning
	addRunFlags(cmd)

	return cmd
}
