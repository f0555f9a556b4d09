package compose

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/devpackage/msdectl/models"
)

// allGroups covers every compose file of the stack, so down and stop reach
// containers of any feature that was ever booted.
func allGroups() models.Invocation {
	files := []string{models.BaseComposeFile}
	for _, f := range models.AllFeatures() {
		files = append(files, f.ComposeFile())
	}
	files = append(files, models.MainComposeFile)
	return models.Invocation{Group: "all", Files: files}
}

// ProjectName is the compose project name, derived from the directory that
// holds the compose files.
func ProjectName(cfg models.Configuration) string {
	return filepath.Base(cfg.DockerDir())
}

// Stop stops every container of the stack and keeps them.
func Stop(ctx context.Context, l *Launcher) error {
	if err := l.Run(ctx, VerbStop, allGroups(), nil); err != nil {
		return fmt.Errorf("stop stack: %w", err)
	}
	return nil
}

// Down removes the stack's containers, then its named volumes.
func (s *Stack) Down(ctx context.Context, l *Launcher) error {
	if err := l.Run(ctx, VerbDown, allGroups(), nil); err != nil {
		return fmt.Errorf("take down stack: %w", err)
	}

	project := ProjectName(s.cfg)
	if err := s.runtime.RemoveVolumes(ctx, project); err != nil {
		return fmt.Errorf("remove volumes of %s: %w", project, err)
	}
	s.logger.Info().Str("project", project).Msg("stack removed")
	return nil
}
