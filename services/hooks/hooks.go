package hooks

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/devpackage/msdectl/models"
	"github.com/devpackage/msdectl/services/process"
	"github.com/rs/zerolog"
)

// RunnerEnv tells hook scripts they were started by the tool.
const RunnerEnv = "MSDE_CLI_RUNNER"

const DefaultTimeout = 10 * time.Minute

// Runner executes project hook scripts through the process supervisor.
type Runner struct {
	ProjectDir string
	Timeout    time.Duration

	supervisor *process.Supervisor
	logger     zerolog.Logger
}

func NewRunner(projectDir string, supervisor *process.Supervisor, logger zerolog.Logger) *Runner {
	return &Runner{
		ProjectDir: projectDir,
		Timeout:    DefaultTimeout,
		supervisor: supervisor,
		logger:     logger,
	}
}

// RunAll executes hooks in order. A failing hook stops the sequence unless it
// allows continuing.
func (r *Runner) RunAll(ctx context.Context, stage string, hooks []models.ScriptHook) error {
	for i, h := range hooks {
		err := r.Run(ctx, h)
		if err == nil {
			continue
		}
		if h.ContinueOnFailure {
			r.logger.Warn().Err(err).Str("hook", h.Cmd).Msg("hook failed, continuing")
			continue
		}
		return fmt.Errorf("%s hook %d (%s): %w", stage, i, h.Cmd, err)
	}
	return nil
}

func (r *Runner) Run(ctx context.Context, h models.ScriptHook) error {
	output := process.OutputTee
	if h.HideOutput {
		output = process.OutputDiscard
	}

	dir := h.WorkingDirectory
	switch {
	case dir == "":
		dir = r.ProjectDir
	case !filepath.IsAbs(dir):
		dir = filepath.Join(r.ProjectDir, dir)
	}

	env := []string{RunnerEnv + "=true"}
	for k, v := range h.EnvOverrides {
		env = append(env, k+"="+v)
	}

	r.logger.Info().Str("hook", h.Cmd).Strs("args", h.Args).Msg("running hook")
	return r.supervisor.Run(ctx, process.Spec{
		Name:   "hook " + h.Cmd,
		Path:   h.Cmd,
		Args:   h.Args,
		Dir:    dir,
		Env:    env,
		Stdout: output,
		Stderr: output,
	}, r.Timeout)
}
