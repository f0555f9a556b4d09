package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the command tree. Nothing is shared between two trees, so
// tests can build as many as they like.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "msdectl",
		Short: "Run a local game server stack",
		Long: `msdectl boots the containerized game server stack of a project, waits for
it to become healthy and synchronizes the project's games into it.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringP("project", "p", ".", "project directory")
	root.PersistentFlags().Bool("debug", false, "enable debug logging")
	root.PersistentFlags().BoolP("quiet", "q", false, "disable logging")

	root.AddCommand(
		newUpCmd(),
		newRunCmd(),
		newImportGamesCmd(),
		newRPCCmd(),
		newStopCmd(),
		newDownCmd(),
		newStatusCmd(),
		newContainersCmd(),
		newUpgradeProjectCmd(),
		newVersionCmd(),
	)
	return root
}

// ExecuteContext runs the CLI until ctx is canceled.
func ExecuteContext(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}
