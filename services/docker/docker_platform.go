package docker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/containerd/errdefs"
	"github.com/rs/zerolog"

	"github.com/moby/moby/client"
)

// ErrContainerNotFound is returned when a named container does not exist.
var ErrContainerNotFound = errors.New("container not found")

// DockerPlatform implements interfaces.ContainerRuntime over the Engine API.
type DockerPlatform struct {
	client *client.Client
	logger zerolog.Logger
}

// NewDockerPlatform initializes the Docker client using environment variables
// (e.g. DOCKER_HOST) and API version negotiation.
func NewDockerPlatform(logger zerolog.Logger) (*DockerPlatform, error) {
	c, err := client.New(
		client.FromEnv,
	)
	if err != nil {
		return nil, err
	}

	return &DockerPlatform{
		client: c,
		logger: logger,
	}, nil
}

func (p *DockerPlatform) Close() error {
	return p.client.Close()
}

// ContainerID resolves a container by name.
func (p *DockerPlatform) ContainerID(ctx context.Context, name string) (string, error) {
	inspect, err := p.client.ContainerInspect(ctx, name, client.ContainerInspectOptions{})
	if err != nil {
		if errdefs.IsNotFound(err) {
			return "", fmt.Errorf("%w: %s", ErrContainerNotFound, strings.TrimPrefix(name, "/"))
		}
		return "", fmt.Errorf("inspect container %q: %w", name, err)
	}
	return inspect.Container.ID, nil
}

// HealthStatus reports "none" for containers without a health check.
func (p *DockerPlatform) HealthStatus(ctx context.Context, containerID string) (string, error) {
	inspect, err := p.client.ContainerInspect(ctx, containerID, client.ContainerInspectOptions{})
	if err != nil {
		return "", fmt.Errorf("inspect container %q: %w", containerID, err)
	}

	state := inspect.Container.State
	if state == nil || state.Health == nil {
		return StatusNone, nil
	}
	return string(state.Health.Status), nil
}

func (p *DockerPlatform) isTTY(ctx context.Context, containerID string) bool {
	inspect, err := p.client.ContainerInspect(ctx, containerID, client.ContainerInspectOptions{})
	if err != nil || inspect.Container.Config == nil {
		return false
	}
	return inspect.Container.Config.Tty
}
