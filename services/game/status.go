package game

import (
	"fmt"

	"github.com/devpackage/msdectl/models"
	"github.com/devpackage/msdectl/services/rpc"
)

// Statuses the server reports for a sync job.
const (
	StatusFinished     = "Finished"
	StatusVerifyError  = "Verify Error"
	StatusTuningError  = "Tuning Error"
	StatusScriptsError = "Scripts Error"
	// StatusScriptSetup shows up briefly on every sync. A job still reporting
	// it once backoff started is stuck.
	StatusScriptSetup = "Setting Up script File System"
)

// GameRunningAtom is the failure a start of an already started stage returns.
const GameRunningAtom = "game_running"

// classify maps a reported status to the job state. inBackoff is set for
// polls after the first one.
func classify(status string, inBackoff bool) models.SyncState {
	switch status {
	case StatusFinished:
		return models.SyncFinished
	case StatusVerifyError, StatusTuningError, StatusScriptsError:
		return models.SyncFailed
	case StatusScriptSetup:
		if inBackoff {
			return models.SyncFailed
		}
	}
	return models.SyncPending
}

func ImportExpr(payload []byte) string {
	return "Game.import_stages(" + rpc.Quote(string(payload)) + ")"
}

func SyncExpr(key models.StageKey) string {
	return fmt.Sprintf("Game.sync(%s, %s)", rpc.Quote(key.GUID.String()), rpc.Quote(key.SUID.String()))
}

func StatusExpr(jobID string) string {
	return rpc.Inspect(fmt.Sprintf("Game.sync_status(%s)", rpc.Quote(jobID)))
}

func StartExpr(key models.StageKey) string {
	return fmt.Sprintf("Game.start(%s, %s)", rpc.Quote(key.GUID.String()), rpc.Quote(key.SUID.String()))
}
