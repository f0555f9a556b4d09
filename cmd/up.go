package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/devpackage/msdectl/models"
	"github.com/devpackage/msdectl/services/compose"
	"github.com/devpackage/msdectl/services/project"
	"github.com/spf13/cobra"
)

func addBootFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceP("features", "f", nil, "features to boot (otel, metrics, web3, bot)")
	cmd.Flags().BoolP("attach", "a", false, "follow the game server output")
	cmd.Flags().Bool("build", false, "build images before starting")
}

func newUpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "up",
		Short: "Boot the stack and wait for the game server",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, _ []string) error {
			return boot(ctx, a, cmd, nil)
		}),
	}
	addBootFlags(cmd)
	return cmd
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Boot the stack and import the project's games",
		Long: `run boots the stack like up, then imports every game of the project into
the running server, syncs the stages flagged for launch and starts them.
The project's pre_run hooks run before the boot, its post_run hooks after the
import.`,
		Args: cobra.NoArgs,
		RunE: withApp(runRun),
	}
	addBootFlags(cmd)
	cmd.Flags().Bool("no-hooks", false, "skip the project's pre and post run hooks")
	return cmd
}

func runRun(ctx context.Context, a *app, cmd *cobra.Command, _ []string) error {
	noHooks, err := cmd.Flags().GetBool("no-hooks")
	if err != nil {
		return err
	}

	var hookSet models.Hooks
	if !noHooks {
		meta, err := project.LoadMetadata(a.cfg.MetadataFile())
		switch {
		case errors.Is(err, project.ErrNoProject):
			a.logger.Debug().Msg("no project metadata, skipping hooks")
		case err != nil:
			return err
		case meta.Hooks != nil:
			hookSet = *meta.Hooks
		}
	}

	runner := a.hookRunner()
	if err := runner.RunAll(ctx, "pre_run", hookSet.PreRun); err != nil {
		return err
	}

	return boot(ctx, a, cmd, func(ctx context.Context) error {
		if err := importGames(ctx, a, cmd); err != nil {
			return err
		}
		return runner.RunAll(ctx, "post_run", hookSet.PostRun)
	})
}

// boot runs the boot pipeline with the command's flags. afterHealthy, when
// set, runs once the server is healthy.
func boot(ctx context.Context, a *app, cmd *cobra.Command, afterHealthy func(ctx context.Context) error) error {
	features, err := a.features(cmd)
	if err != nil {
		return err
	}
	attach, err := cmd.Flags().GetBool("attach")
	if err != nil {
		return err
	}
	build, err := cmd.Flags().GetBool("build")
	if err != nil {
		return err
	}

	l := a.launcher()
	l.Build = build
	stack, err := a.stack(l)
	if err != nil {
		return err
	}

	opts := compose.BootOptions{AfterHealthy: afterHealthy}
	if attach {
		p, err := a.platform()
		if err != nil {
			return err
		}
		opts.Attach = func(ctx context.Context) error {
			id, err := p.ContainerID(ctx, models.PrimaryService)
			if err != nil {
				return err
			}
			return p.Attach(ctx, id, cmd.OutOrStdout())
		}
	}

	if err := stack.Boot(ctx, features, opts); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is up\n", models.PrimaryService)
	return nil
}
