package docker

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/moby/moby/client"
)

// Exec runs cmd in the container with a pseudo-terminal and collects stdout.
// The server's remote shell only prints results when attached to a terminal.
// If the engine multiplexes the stream anyway, any stderr frame fails the call.
func (p *DockerPlatform) Exec(ctx context.Context, containerID string, cmd []string) ([]byte, error) {
	created, err := p.client.ExecCreate(ctx, containerID, client.ExecCreateOptions{
		TTY:          true,
		AttachStdout: true,
		AttachStderr: true,
		Cmd:          cmd,
	})
	if err != nil {
		return nil, fmt.Errorf("create exec in %q: %w", containerID, err)
	}

	attached, err := p.client.ExecAttach(ctx, created.ID, client.ExecAttachOptions{
		TTY: true,
	})
	if err != nil {
		return nil, fmt.Errorf("attach exec %q: %w", created.ID, err)
	}
	defer attached.Close()

	p.logger.Trace().Str("container", containerID).Strs("cmd", cmd).Msg("exec")

	var out bytes.Buffer
	if err := collectStdout(&out, attached.Reader); err != nil {
		return nil, fmt.Errorf("read exec output: %w", err)
	}
	return out.Bytes(), nil
}

// collectStdout copies a raw terminal stream, or demultiplexes a framed one
// rejecting stderr.
func collectStdout(dst io.Writer, src io.Reader) error {
	r := bufio.NewReader(src)
	if !isFramed(r) {
		_, err := io.Copy(dst, r)
		return err
	}
	return Demux(dst, stderrGuard{}, r)
}

// isFramed reports whether the stream starts with a multiplexing header.
func isFramed(r *bufio.Reader) bool {
	header, err := r.Peek(8)
	if err != nil {
		return false
	}
	if header[0] > streamStderr {
		return false
	}
	return header[1] == 0 && header[2] == 0 && header[3] == 0
}
