package process

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

// Output selects where a child's stream goes.
type Output int

const (
	// OutputCapture buffers the stream; it is persisted on failure.
	OutputCapture Output = iota
	// OutputTee buffers the stream and copies it to the parent's stream.
	OutputTee
	// OutputInherit passes the parent's stream through unchanged.
	OutputInherit
	// OutputDiscard drops the stream.
	OutputDiscard
)

// DefaultLogName is the diagnostic log written under the log directory.
const DefaultLogName = "docker-compose.log"

const defaultGrace = 10 * time.Second

// Spec describes a process to supervise.
type Spec struct {
	Name   string // used in errors and logs
	Path   string
	Args   []string
	Dir    string
	Env    []string // added on top of the parent environment
	Stdin  []byte   // streamed to the child, then closed
	Stdout Output
	Stderr Output
}

// Supervisor spawns processes and enforces deadlines on them.
type Supervisor struct {
	LogDir  string
	LogName string
	// Grace is how long a terminated process may take to exit before it is killed.
	Grace time.Duration

	logger zerolog.Logger
}

func NewSupervisor(logDir string, logger zerolog.Logger) *Supervisor {
	return &Supervisor{
		LogDir:  logDir,
		LogName: DefaultLogName,
		Grace:   defaultGrace,
		logger:  logger,
	}
}

// Handle is a running process.
type Handle struct {
	spec   Spec
	cmd    *exec.Cmd
	stdout bytes.Buffer
	stderr bytes.Buffer
	done   chan error
}

// Output returns what was captured. Only valid once the process was awaited.
func (h *Handle) Output() (stdout, stderr string) {
	return h.stdout.String(), h.stderr.String()
}

// Spawn starts the process and, if the spec carries stdin, streams it and
// closes the child's input before returning.
func (s *Supervisor) Spawn(spec Spec) (*Handle, error) {
	h := &Handle{spec: spec, done: make(chan error, 1)}

	cmd := exec.Command(spec.Path, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = append(os.Environ(), spec.Env...)
	cmd.Stdout = streamWriter(spec.Stdout, &h.stdout, os.Stdout)
	cmd.Stderr = streamWriter(spec.Stderr, &h.stderr, os.Stderr)
	// grandchildren may keep the output pipes open after the child exits
	cmd.WaitDelay = s.grace()

	var stdin io.WriteCloser
	if spec.Stdin != nil {
		pipe, err := cmd.StdinPipe()
		if err != nil {
			return nil, fmt.Errorf("stdin pipe for %q: %w", spec.Name, err)
		}
		stdin = pipe
	}

	s.logger.Debug().Str("process", spec.Name).Str("cmd", spec.Path+" "+strings.Join(spec.Args, " ")).Str("dir", spec.Dir).Msg("spawning")
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %q: %w", spec.Name, err)
	}
	h.cmd = cmd

	if stdin != nil {
		w := bufio.NewWriter(stdin)
		_, werr := w.Write(spec.Stdin)
		if werr == nil {
			werr = w.Flush()
		}
		if cerr := stdin.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			s.logger.Warn().Err(werr).Str("process", spec.Name).Msg("failed to stream input")
		}
	}

	go func() {
		h.done <- cmd.Wait()
	}()
	return h, nil
}

// WaitWithDeadline races process completion against d and ctx. On any
// non-success outcome the captured output is written to the diagnostic log and
// the returned error names its path.
func (s *Supervisor) WaitWithDeadline(ctx context.Context, h *Handle, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case err := <-h.done:
		if err == nil {
			return nil
		}
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		logPath := s.persist(h)
		return &ExitError{Name: h.spec.Name, Code: code, LogPath: logPath}
	case <-timer.C:
		s.terminate(h)
		return &TimeoutError{Name: h.spec.Name, Deadline: d, LogPath: s.persist(h)}
	case <-ctx.Done():
		s.terminate(h)
		return &CanceledError{Name: h.spec.Name, Err: ctx.Err(), LogPath: s.persist(h)}
	}
}

// Run spawns spec and waits for it with deadline d.
func (s *Supervisor) Run(ctx context.Context, spec Spec, d time.Duration) error {
	h, err := s.Spawn(spec)
	if err != nil {
		return err
	}
	return s.WaitWithDeadline(ctx, h, d)
}

// terminate sends SIGTERM and drains the process, escalating to a kill after
// the grace period.
func (s *Supervisor) terminate(h *Handle) {
	if err := h.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		s.logger.Debug().Err(err).Str("process", h.spec.Name).Msg("terminate signal failed")
	}
	select {
	case <-h.done:
	case <-time.After(s.grace()):
		_ = h.cmd.Process.Kill()
		<-h.done
	}
}

func (s *Supervisor) grace() time.Duration {
	if s.Grace <= 0 {
		return defaultGrace
	}
	return s.Grace
}

func (s *Supervisor) persist(h *Handle) string {
	name := s.LogName
	if name == "" {
		name = DefaultLogName
	}
	path := filepath.Join(s.LogDir, name)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "process: %s\n", h.spec.Name)
	fmt.Fprintf(&buf, "STDOUT:\n%s\n", captured(h.spec.Stdout, h.stdout.String()))
	fmt.Fprintf(&buf, "STDERR:\n%s\n", captured(h.spec.Stderr, h.stderr.String()))

	if err := os.MkdirAll(s.LogDir, 0o755); err != nil {
		s.logger.Error().Err(err).Str("dir", s.LogDir).Msg("failed to create log directory")
		return path
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		s.logger.Error().Err(err).Str("path", path).Msg("failed to write diagnostic log")
		return path
	}
	s.logger.Error().Str("process", h.spec.Name).Msgf("process output saved, see %s for details", path)
	return path
}

func captured(mode Output, s string) string {
	switch mode {
	case OutputInherit:
		return "(streamed to terminal)"
	case OutputDiscard:
		return "(discarded)"
	default:
		return s
	}
}

func streamWriter(mode Output, buf *bytes.Buffer, parent io.Writer) io.Writer {
	switch mode {
	case OutputTee:
		return io.MultiWriter(parent, buf)
	case OutputInherit:
		return parent
	case OutputDiscard:
		return nil
	default:
		return buf
	}
}
