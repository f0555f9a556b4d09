package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newRPCCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rpc <expr>",
		Short: "Evaluate an expression on the game server",
		Example: `  msdectl rpc 'Game.export_stages()'
  msdectl rpc 'Application.started_applications()'`,
		Args: cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			caller, err := a.caller()
			if err != nil {
				return err
			}
			out, err := caller.Call(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		}),
	}
}
