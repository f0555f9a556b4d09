package docker

import (
	"context"
	"fmt"

	"github.com/containerd/errdefs"

	"github.com/moby/moby/client"
)

// ComposeProjectLabel is set by compose on every resource it creates.
const ComposeProjectLabel = "com.docker.compose.project"

// RemoveVolumes removes the named volumes of a compose project. Volumes that
// vanish in between are ignored.
func (p *DockerPlatform) RemoveVolumes(ctx context.Context, project string) error {
	f := make(client.Filters).
		Add("label", ComposeProjectLabel+"="+project)

	vols, err := p.client.VolumeList(ctx, client.VolumeListOptions{
		Filters: f,
	})
	if err != nil {
		return fmt.Errorf("list project volumes (project=%s): %w", project, err)
	}

	for _, v := range vols.Items {
		if v.Name == "" {
			continue
		}

		if _, err := p.client.VolumeRemove(ctx, v.Name, client.VolumeRemoveOptions{}); err != nil {
			if errdefs.IsNotFound(err) {
				continue
			}
			return fmt.Errorf("remove volume %q: %w", v.Name, err)
		}
		p.logger.Debug().Str("volume", v.Name).Msg("removed volume")
	}

	return nil
}

// ProjectContainers lists the containers of a compose project with their state.
func (p *DockerPlatform) ProjectContainers(ctx context.Context, project string) (map[string]string, error) {
	f := make(client.Filters).
		Add("label", ComposeProjectLabel+"="+project)

	containers, err := p.client.ContainerList(ctx, client.ContainerListOptions{
		All:     true,
		Filters: f,
	})
	if err != nil {
		return nil, fmt.Errorf("list project containers (project=%s): %w", project, err)
	}

	out := make(map[string]string, len(containers.Items))
	for _, c := range containers.Items {
		name := c.ID
		if len(c.Names) > 0 {
			name = c.Names[0]
		}
		out[name] = string(c.State)
	}
	return out, nil
}
