package docker

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/moby/moby/client"
)

// Attach follows the container's output until it stops or ctx is canceled.
func (p *DockerPlatform) Attach(ctx context.Context, containerID string, w io.Writer) error {
	tty := p.isTTY(ctx, containerID)

	attached, err := p.client.ContainerAttach(ctx, containerID, client.ContainerAttachOptions{
		Stream: true,
		Stdout: true,
		Stderr: true,
	})
	if err != nil {
		return fmt.Errorf("attach container %q: %w", containerID, err)
	}

	done := make(chan error, 1)
	go func() {
		if tty {
			_, err := io.Copy(w, attached.Reader)
			done <- err
			return
		}
		done <- Demux(w, w, attached.Reader)
	}()

	select {
	case err = <-done:
	case <-ctx.Done():
		// closing the connection unblocks the reader
		attached.Close()
		<-done
		return nil
	}
	attached.Close()

	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("stream container %q: %w", containerID, err)
	}
	return nil
}
