package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/devpackage/msdectl/models"
	"github.com/devpackage/msdectl/services/compose"
	"github.com/devpackage/msdectl/services/docker"
	"github.com/spf13/cobra"
)

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the stack, keeping containers and volumes",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, _ []string) error {
			if err := compose.Stop(ctx, a.launcher()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "stack stopped")
			return nil
		}),
	}
}

func newDownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Remove the stack's containers and volumes",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, _ []string) error {
			l := a.launcher()
			stack, err := a.stack(l)
			if err != nil {
				return err
			}
			if err := stack.Down(ctx, l); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "stack removed")
			return nil
		}),
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stack's containers and the game server health",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, _ []string) error {
			p, err := a.platform()
			if err != nil {
				return err
			}
			containers, err := p.ProjectContainers(ctx, compose.ProjectName(a.cfg))
			if err != nil {
				return err
			}

			health := "not running"
			if id, err := p.ContainerID(ctx, models.PrimaryService); err == nil {
				if health, err = p.HealthStatus(ctx, id); err != nil {
					return err
				}
			} else if !errors.Is(err, docker.ErrContainerNotFound) {
				return err
			}

			return printStatus(cmd.OutOrStdout(), containers, health)
		}),
	}
}

// printStatus lists containers by name followed by the game server's health.
func printStatus(w io.Writer, containers map[string]string, health string) error {
	names := make([]string, 0, len(containers))
	for name := range containers {
		names = append(names, name)
	}
	slices.Sort(names)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CONTAINER\tSTATE")
	for _, name := range names {
		fmt.Fprintf(tw, "%s\t%s\n", strings.TrimPrefix(name, "/"), containers[name])
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%s: %s\n", models.PrimaryService, health)
	return err
}

func newContainersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "containers",
		Short: "List running containers and stop them with --yes",
		Long: `containers lists every running container on the engine. Containers of
other projects hold ports the stack needs, so they must be stopped before an
update. Pass --yes to stop them.`,
		Args: cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, _ []string) error {
			yes, err := cmd.Flags().GetBool("yes")
			if err != nil {
				return err
			}
			p, err := a.platform()
			if err != nil {
				return err
			}
			running, err := p.RunningContainers(ctx)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(running) == 0 {
				fmt.Fprintln(w, "no containers running")
				return nil
			}
			fmt.Fprintf(w, "%d containers running:\n", len(running))
			ids := make([]string, 0, len(running))
			for _, c := range running {
				fmt.Fprintf(w, "  %s  %s  %s\n", shortID(c.ID), c.Name, c.Image)
				ids = append(ids, c.ID)
			}
			if !yes {
				fmt.Fprintln(w, "run again with --yes to stop them")
				return nil
			}
			if err := p.StopContainers(ctx, ids); err != nil {
				return err
			}
			fmt.Fprintln(w, "containers stopped")
			return nil
		}),
	}
	cmd.Flags().BoolP("yes", "y", false, "stop the running containers")
	return cmd
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
