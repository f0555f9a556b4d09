package docker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/devpackage/msdectl/interfaces"
	"github.com/rs/zerolog"

	"github.com/moby/moby/api/types/container"
)

// Health statuses reported by the engine.
const (
	StatusHealthy   = string(container.Healthy)
	StatusUnhealthy = string(container.Unhealthy)
	StatusStarting  = string(container.Starting)
	StatusNone      = string(container.NoHealthcheck)
)

const (
	DefaultHealthInterval = 5 * time.Second
	DefaultHealthCap      = 60 * time.Second
)

var (
	ErrHealthTimeout = errors.New("health check timed out")
	ErrUnhealthy     = errors.New("container reported unhealthy")
	ErrNoHealthCheck = errors.New("container has no health check configured")
)

// HealthWaiter polls a container's health status until it settles.
type HealthWaiter struct {
	Interval time.Duration
	// Cap bounds every wait regardless of the timeout asked for.
	Cap time.Duration

	runtime interfaces.ContainerRuntime
	logger  zerolog.Logger
}

func NewHealthWaiter(runtime interfaces.ContainerRuntime, logger zerolog.Logger) *HealthWaiter {
	return &HealthWaiter{
		Interval: DefaultHealthInterval,
		Cap:      DefaultHealthCap,
		runtime:  runtime,
		logger:   logger,
	}
}

// WaitHealthy returns nil once the container reports healthy. An unhealthy
// container or one without a health check fails at once. The wait ends with
// ErrHealthTimeout after the smaller of timeout and the cap.
func (w *HealthWaiter) WaitHealthy(ctx context.Context, containerID string, timeout time.Duration) error {
	deadline := w.Cap
	if timeout > 0 && (deadline <= 0 || timeout < deadline) {
		deadline = timeout
	}
	waitCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		status, err := w.runtime.HealthStatus(waitCtx, containerID)
		if err != nil && waitCtx.Err() == nil {
			return fmt.Errorf("health of %q: %w", containerID, err)
		}

		if err == nil {
			switch status {
			case StatusHealthy:
				w.logger.Info().Str("container", containerID).Msg("container is healthy")
				return nil
			case StatusUnhealthy:
				return fmt.Errorf("%w: %s", ErrUnhealthy, containerID)
			case StatusNone, "":
				return fmt.Errorf("%w: %s", ErrNoHealthCheck, containerID)
			default:
				w.logger.Debug().Str("container", containerID).Str("status", status).Msg("waiting for container health")
			}
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w after %s", ErrHealthTimeout, deadline)
		case <-ticker.C:
		}
	}
}
