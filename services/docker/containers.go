package docker

import (
	"context"
	"fmt"
	"strings"

	"github.com/containerd/errdefs"

	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/client"
)

// RunningContainer is a running container of any project.
type RunningContainer struct {
	ID    string
	Name  string
	Image string
}

// RunningContainers lists every running container on the engine.
func (p *DockerPlatform) RunningContainers(ctx context.Context) ([]RunningContainer, error) {
	list, err := p.client.ContainerList(ctx, client.ContainerListOptions{})
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}

	out := make([]RunningContainer, 0, len(list.Items))
	for _, c := range list.Items {
		if c.State != container.StateRunning {
			continue
		}
		name := ""
		if len(c.Names) > 0 {
			name = strings.TrimPrefix(c.Names[0], "/")
		}
		out = append(out, RunningContainer{ID: c.ID, Name: name, Image: c.Image})
	}
	return out, nil
}

// StopContainers stops each container. Containers that are already gone are
// skipped.
func (p *DockerPlatform) StopContainers(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, err := p.client.ContainerStop(ctx, id, client.ContainerStopOptions{}); err != nil {
			if errdefs.IsNotFound(err) {
				continue
			}
			return fmt.Errorf("stop container %q: %w", id, err)
		}
		p.logger.Debug().Str("container", id).Msg("stopped container")
	}
	return nil
}
