package compose

import (
	"context"
	"path/filepath"
	"time"

	"github.com/devpackage/msdectl/models"
	"github.com/devpackage/msdectl/services/process"
)

// VersionEnv pins the game server image tag for compose files.
const VersionEnv = "MSDE_UPSTREAM_VERSION"

// Verb is a compose subcommand.
type Verb string

const (
	VerbUp   Verb = "up"
	VerbDown Verb = "down"
	VerbStop Verb = "stop"
)

// Launcher runs compose invocations through the process supervisor.
type Launcher struct {
	Binary     string // usually "docker"
	ProjectDir string
	Version    string
	Timeout    time.Duration
	Build      bool           // pass --build to up
	Output     process.Output // how compose output is surfaced

	supervisor *process.Supervisor
}

func NewLauncher(cfg models.Configuration, supervisor *process.Supervisor) *Launcher {
	binary := cfg.ComposeBinary
	if binary == "" {
		binary = "docker"
	}
	return &Launcher{
		Binary:     binary,
		ProjectDir: cfg.ProjectDir,
		Version:    cfg.ServerVersion,
		Timeout:    cfg.BootTimeout,
		Output:     process.OutputCapture,
		supervisor: supervisor,
	}
}

// Launch brings up one invocation of a boot plan.
func (l *Launcher) Launch(ctx context.Context, inv models.Invocation, volumes []byte) error {
	return l.Run(ctx, VerbUp, inv, volumes)
}

// Run executes verb over the invocation's compose files and waits for it under
// the launcher's timeout.
func (l *Launcher) Run(ctx context.Context, verb Verb, inv models.Invocation, volumes []byte) error {
	spec := process.Spec{
		Name:   "docker compose " + string(verb) + " (" + inv.Group + ")",
		Path:   l.Binary,
		Args:   l.Args(verb, inv, volumes != nil),
		Dir:    l.ProjectDir,
		Env:    []string{VersionEnv + "=" + l.Version},
		Stdin:  volumes,
		Stdout: l.Output,
		Stderr: l.Output,
	}
	return l.supervisor.Run(ctx, spec, l.Timeout)
}

// Args builds the compose command line. stdinFile adds `-f -` so the volume
// configuration read from stdin is merged on top of the group's files.
func (l *Launcher) Args(verb Verb, inv models.Invocation, stdinFile bool) []string {
	args := []string{"compose"}
	for _, f := range inv.Files {
		args = append(args, "-f", filepath.Join("docker", f))
	}
	if stdinFile {
		args = append(args, "-f", "-")
	}
	args = append(args, string(verb))

	if verb == VerbUp {
		args = append(args, "-d")
		if l.Build {
			args = append(args, "--build")
		}
	}
	if inv.Target != "" && verb != VerbDown {
		args = append(args, inv.Target)
	}
	return args
}
