package docker

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/devpackage/msdectl/services/rpc"
)

// Stream ids of the engine's multiplexed output.
const (
	streamStdout = 1
	streamStderr = 2
)

// Demux splits a multiplexed engine stream (8 byte header: stream id, three
// zero bytes, big endian payload size) into stdout and stderr.
func Demux(dstOut, dstErr io.Writer, src io.Reader) error {
	r := bufio.NewReader(src)

	header := make([]byte, 8)
	for {
		if _, err := io.ReadFull(r, header); err != nil {
			// clean end of stream
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil
			}
			return err
		}

		streamType := header[0]
		size := binary.BigEndian.Uint32(header[4:8])

		if size == 0 {
			continue
		}

		payload := make([]byte, size)
		if _, err := io.ReadFull(r, payload); err != nil {
			return err
		}

		var w io.Writer
		switch streamType {
		case streamStderr:
			w = dstErr
		default:
			// stdin echo and unknown ids are kept with stdout
			w = dstOut
		}

		if _, err := w.Write(payload); err != nil {
			return fmt.Errorf("write stream payload: %w", err)
		}
	}
}

// stderrGuard fails on the first write. Any stderr output of a remote call
// means the result on stdout cannot be trusted.
type stderrGuard struct{}

func (stderrGuard) Write(p []byte) (int, error) {
	return 0, fmt.Errorf("%w: unexpected stderr output %q", rpc.ErrProtocol, p)
}
