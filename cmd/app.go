package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/devpackage/msdectl/config"
	"github.com/devpackage/msdectl/logging"
	"github.com/devpackage/msdectl/metrics"
	"github.com/devpackage/msdectl/models"
	"github.com/devpackage/msdectl/services/compose"
	"github.com/devpackage/msdectl/services/docker"
	"github.com/devpackage/msdectl/services/hooks"
	"github.com/devpackage/msdectl/services/process"
	"github.com/devpackage/msdectl/services/rpc"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// hookLogName keeps hook failures apart from compose failures.
const hookLogName = "hooks.log"

// app is built once per command from flags and configuration and handed to
// the components the command needs.
type app struct {
	cfg        models.Configuration
	debug      bool
	logger     zerolog.Logger
	recorder   *metrics.Recorder
	supervisor *process.Supervisor

	runtime *docker.DockerPlatform
	client  *rpc.Client
}

func newApp(cmd *cobra.Command) (*app, error) {
	projectDir, err := cmd.Flags().GetString("project")
	if err != nil {
		return nil, err
	}
	debug, err := cmd.Flags().GetBool("debug")
	if err != nil {
		return nil, err
	}
	quiet, err := cmd.Flags().GetBool("quiet")
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(projectDir)
	if err != nil {
		return nil, err
	}

	logger := logging.New(logging.Options{
		Level: cfg.Log.Level,
		Debug: debug,
		Quiet: quiet,
		Out:   cmd.ErrOrStderr(),
	})
	logger.Debug().Str("project", cfg.ProjectDir).Str("server_version", cfg.ServerVersion).Msg("configuration loaded")

	return &app{
		cfg:        cfg,
		debug:      debug,
		logger:     logger,
		recorder:   metrics.NewRecorder(),
		supervisor: process.NewSupervisor(cfg.LogDir(), logger),
	}, nil
}

// withApp wraps a command body with app construction and teardown.
func withApp(run func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()
		return run(cmd.Context(), a, cmd, args)
	}
}

// platform connects to the container engine on first use.
func (a *app) platform() (*docker.DockerPlatform, error) {
	if a.runtime != nil {
		return a.runtime, nil
	}
	p, err := docker.NewDockerPlatform(a.logger)
	if err != nil {
		return nil, fmt.Errorf("connect to docker: %w", err)
	}
	a.runtime = p
	return p, nil
}

func (a *app) caller() (*rpc.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	p, err := a.platform()
	if err != nil {
		return nil, err
	}
	a.client = rpc.NewClient(p, a.logger)
	return a.client, nil
}

// launcher surfaces compose output in debug mode; otherwise it is only kept
// for the failure log.
func (a *app) launcher() *compose.Launcher {
	l := compose.NewLauncher(a.cfg, a.supervisor)
	if a.debug {
		l.Output = process.OutputTee
	}
	return l
}

func (a *app) stack(l *compose.Launcher) (*compose.Stack, error) {
	p, err := a.platform()
	if err != nil {
		return nil, err
	}
	c, err := a.caller()
	if err != nil {
		return nil, err
	}
	return compose.NewStack(a.cfg, compose.Deps{
		Launcher: l,
		Runtime:  p,
		Caller:   c,
		Health:   docker.NewHealthWaiter(p, a.logger),
		Recorder: a.recorder,
		Logger:   a.logger,
	}), nil
}

func (a *app) hookRunner() *hooks.Runner {
	s := process.NewSupervisor(a.cfg.LogDir(), a.logger)
	s.LogName = hookLogName
	return hooks.NewRunner(a.cfg.ProjectDir, s, a.logger)
}

// features picks the --features flag when given, the configured set otherwise.
func (a *app) features(cmd *cobra.Command) ([]models.Feature, error) {
	names := a.cfg.Features
	if f := cmd.Flags().Lookup("features"); f != nil && f.Changed {
		var err error
		if names, err = cmd.Flags().GetStringSlice("features"); err != nil {
			return nil, err
		}
	}
	return models.ParseFeatures(names)
}

func (a *app) close() {
	if path := a.cfg.Metrics.Textfile; path != "" {
		if !filepath.IsAbs(path) {
			path = filepath.Join(a.cfg.ProjectDir, path)
		}
		if err := a.recorder.WriteTextfile(path); err != nil {
			a.logger.Warn().Err(err).Str("path", path).Msg("failed to write metrics")
		}
	}
	if a.runtime != nil {
		if err := a.runtime.Close(); err != nil {
			a.logger.Debug().Err(err).Msg("close docker client")
		}
	}
}
