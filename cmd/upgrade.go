package cmd

import (
	"context"

	"github.com/devpackage/msdectl/services/project"
	"github.com/devpackage/msdectl/services/upgrade"
	"github.com/spf13/cobra"
)

func newUpgradeProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upgrade-project",
		Short: "Upgrade the project to this version of the tool",
		Long: `upgrade-project migrates the project one minor version at a time up to the
version of this tool. Automatic steps change the project in place; manual
steps print what is left for you to do.`,
		Args: cobra.NoArgs,
		RunE: withApp(runUpgradeProject),
	}
	cmd.Flags().Bool("manual-only", false, "only print the manual steps")
	return cmd
}

func runUpgradeProject(ctx context.Context, a *app, cmd *cobra.Command, _ []string) error {
	manualOnly, err := cmd.Flags().GetBool("manual-only")
	if err != nil {
		return err
	}

	path := a.cfg.MetadataFile()
	meta, err := project.LoadMetadata(path)
	if err != nil {
		return err
	}

	planner := upgrade.NewPlanner(func(ctx context.Context, v string) error {
		return project.WriteVersion(path, v)
	}, a.logger)
	pipeline, err := planner.Plan(Version, meta.Version)
	if err != nil {
		return err
	}
	return pipeline.Run(ctx, cmd.OutOrStdout(), manualOnly)
}
