package interfaces

import (
	"context"
	"io"

	"github.com/devpackage/msdectl/models"
)

// ContainerRuntime is the subset of the container engine the tool needs.
type ContainerRuntime interface {
	// ContainerID resolves a running container by name.
	ContainerID(ctx context.Context, name string) (string, error)

	// HealthStatus returns the container's health status ("healthy",
	// "unhealthy", "starting" or "none").
	HealthStatus(ctx context.Context, containerID string) (string, error)

	// Exec runs cmd inside the container with a pseudo-terminal and returns
	// everything it wrote to stdout.
	Exec(ctx context.Context, containerID string, cmd []string) ([]byte, error)

	// CopyFrom reads a single regular file out of the container.
	CopyFrom(ctx context.Context, containerID, path string) ([]byte, error)

	// CopyTo writes content to path inside the container.
	CopyTo(ctx context.Context, containerID, path string, content []byte) error

	// Attach streams the container's output to w until it stops or ctx ends.
	Attach(ctx context.Context, containerID string, w io.Writer) error

	// RemoveVolumes removes every volume of a compose project.
	RemoveVolumes(ctx context.Context, project string) error
}

// Launcher runs one compose invocation to completion. volumes, when non-nil,
// is streamed to the invocation as an extra compose file.
type Launcher interface {
	Launch(ctx context.Context, inv models.Invocation, volumes []byte) error
}

// ConfigPatcher rewrites the server's configuration file for a feature set.
type ConfigPatcher interface {
	Patch(content string, features []models.Feature) string
}

// Caller evaluates an expression on the game server and returns the decoded
// textual result.
type Caller interface {
	Call(ctx context.Context, expr string) (string, error)
}
