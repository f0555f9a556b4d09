package docker

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/devpackage/msdectl/services/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frame(stream byte, payload string) []byte {
	header := make([]byte, 8)
	header[0] = stream
	binary.BigEndian.PutUint32(header[4:], uint32(len(payload)))
	return append(header, payload...)
}

func TestDemuxSplitsStreams(t *testing.T) {
	var src bytes.Buffer
	src.Write(frame(streamStdout, "hello "))
	src.Write(frame(streamStderr, "warn"))
	src.Write(frame(streamStdout, ""))
	src.Write(frame(streamStdout, "world"))

	var out, errOut bytes.Buffer
	require.NoError(t, Demux(&out, &errOut, &src))
	assert.Equal(t, "hello world", out.String())
	assert.Equal(t, "warn", errOut.String())
}

func TestCollectStdoutRawTerminalStream(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, collectStdout(&out, strings.NewReader("\x1b[0m{:ok, \"abc\"}\r\n")))
	assert.Equal(t, "\x1b[0m{:ok, \"abc\"}\r\n", out.String())
}

func TestCollectStdoutShortRawStream(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, collectStdout(&out, strings.NewReader(":ok")))
	assert.Equal(t, ":ok", out.String())
}

func TestCollectStdoutRejectsStderrFrames(t *testing.T) {
	var src bytes.Buffer
	src.Write(frame(streamStdout, "{:ok, "))
	src.Write(frame(streamStderr, "** (CompileError)"))

	var out bytes.Buffer
	err := collectStdout(&out, &src)
	assert.ErrorIs(t, err, rpc.ErrProtocol)
}

func TestCollectStdoutFramedStdout(t *testing.T) {
	var src bytes.Buffer
	src.Write(frame(streamStdout, "{:ok, "))
	src.Write(frame(streamStdout, "\"abc\"}"))

	var out bytes.Buffer
	require.NoError(t, collectStdout(&out, &src))
	assert.Equal(t, "{:ok, \"abc\"}", out.String())
}
