package compose

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/devpackage/msdectl/interfaces"
	"github.com/devpackage/msdectl/metrics"
	"github.com/devpackage/msdectl/models"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const defaultTracingDelay = 8 * time.Second

// HealthWaiter blocks until a container reports healthy.
type HealthWaiter interface {
	WaitHealthy(ctx context.Context, containerID string, timeout time.Duration) error
}

// Deps are the collaborators of a Stack.
type Deps struct {
	Launcher interfaces.Launcher
	Runtime  interfaces.ContainerRuntime
	Caller   interfaces.Caller
	Health   HealthWaiter
	Patcher  interfaces.ConfigPatcher
	Recorder *metrics.Recorder
	Logger   zerolog.Logger
}

// Stack boots the developer stack of one project.
type Stack struct {
	// TracingDelay is how long after boot tracing is switched off when the
	// tracing feature is not active.
	TracingDelay time.Duration

	cfg      models.Configuration
	launcher interfaces.Launcher
	runtime  interfaces.ContainerRuntime
	caller   interfaces.Caller
	health   HealthWaiter
	patcher  interfaces.ConfigPatcher
	recorder *metrics.Recorder
	logger   zerolog.Logger
}

func NewStack(cfg models.Configuration, deps Deps) *Stack {
	patcher := deps.Patcher
	if patcher == nil {
		patcher = NewTogglePatcher()
	}
	return &Stack{
		TracingDelay: defaultTracingDelay,
		cfg:          cfg,
		launcher:     deps.Launcher,
		runtime:      deps.Runtime,
		caller:       deps.Caller,
		health:       deps.Health,
		patcher:      patcher,
		recorder:     deps.Recorder,
		logger:       deps.Logger,
	}
}

// BootOptions are continuations run once the groups are up.
type BootOptions struct {
	// Attach runs alongside the health wait, typically streaming the server's
	// output until ctx ends.
	Attach func(ctx context.Context) error

	// AfterHealthy runs only after the server reported healthy.
	AfterHealthy func(ctx context.Context) error
}

// Boot starts every compose group for features in order, runs the post-boot
// steps and waits for the game server to become healthy. The first failure
// aborts the remaining steps.
func (s *Stack) Boot(ctx context.Context, features []models.Feature, opts BootOptions) error {
	plan := BuildPlan(features)
	s.logger.Info().Strs("groups", plan.Groups()).Msg("booting stack")

	volumes, err := MarshalVolumeConfig(BuildVolumeConfig(s.cfg.ProjectDir, plan.Features))
	if err != nil {
		return fmt.Errorf("render volume config: %w", err)
	}

	for _, inv := range plan.Invocations {
		if err := s.launch(ctx, inv, volumes); err != nil {
			return err
		}
	}

	if err := s.postBoot(ctx, plan.Features); err != nil {
		return err
	}

	var tracing sync.WaitGroup
	if !models.HasFeature(plan.Features, models.FeatureOTEL) {
		tracing.Add(1)
		go func() {
			defer tracing.Done()
			s.disableTracing(ctx)
		}()
	}
	defer tracing.Wait()

	return s.awaitHealthy(ctx, opts)
}

func (s *Stack) launch(ctx context.Context, inv models.Invocation, volumes []byte) error {
	var stdin []byte
	if inv.InjectVolumes {
		stdin = volumes
	}

	s.logger.Info().Str("group", inv.Group).Str("target", inv.Target).Msg("starting group")
	start := time.Now()
	err := s.launcher.Launch(ctx, inv, stdin)
	s.recorder.ObserveBootStage(inv.Group, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("boot %s group: %w", inv.Group, err)
	}
	return nil
}

func (s *Stack) awaitHealthy(ctx context.Context, opts BootOptions) error {
	id, err := s.runtime.ContainerID(ctx, models.PrimaryService)
	if err != nil {
		return fmt.Errorf("locate %s: %w", models.PrimaryService, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	if opts.Attach != nil {
		g.Go(func() error {
			return opts.Attach(gctx)
		})
	}
	g.Go(func() error {
		if err := s.health.WaitHealthy(gctx, id, s.cfg.HealthTimeout); err != nil {
			return fmt.Errorf("wait for %s: %w", models.PrimaryService, err)
		}
		if opts.AfterHealthy != nil {
			return opts.AfterHealthy(gctx)
		}
		return nil
	})
	return g.Wait()
}
