package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/devpackage/msdectl/models"
	"github.com/devpackage/msdectl/services/game"
	"github.com/spf13/cobra"
)

func newImportGamesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-games",
		Short: "Import the project's games into the running server",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, _ []string) error {
			return importGames(ctx, a, cmd)
		}),
	}
}

// importGames merges the local stage declarations with the server's own and
// runs them through the sync engine.
func importGames(ctx context.Context, a *app, cmd *cobra.Command) error {
	local, err := game.LoadStages(a.cfg.StagesFile())
	if err != nil {
		return err
	}

	caller, err := a.caller()
	if err != nil {
		return err
	}
	remote, err := game.FetchRemoteStages(ctx, caller)
	if err != nil {
		return err
	}

	engine := game.NewEngine(caller, a.cfg.Sync, a.recorder, a.logger)
	report, err := engine.ImportGames(ctx, local, remote)
	if err != nil {
		return fmt.Errorf("import games: %w", err)
	}
	printReport(cmd.OutOrStdout(), report)
	return nil
}

func printReport(w io.Writer, r *game.Report) {
	synced := 0
	for _, job := range r.Jobs {
		if job.State == models.SyncFinished {
			synced++
		}
	}
	fmt.Fprintf(w, "imported %d games, synced %d stages, started %d\n", len(r.Imported), synced, len(r.Started))
	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "  %s\n", warning)
	}
	if r.Failed() {
		fmt.Fprintln(w, game.SomeStagesFailed)
	}
}
