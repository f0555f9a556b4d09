package compose

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/devpackage/msdectl/models"
	"github.com/devpackage/msdectl/services/rpc"
)

// Commands run inside the stack after the groups are up.
var (
	MetricsInitCommand = []string{"/bin/sh", "-c", "/usr/local/bin/metrics-init"}

	ReloadConfigExpr   = "Game.reload_config()"
	DisableTracingExpr = "Game.disable_tracing()"
)

// registryAdmin is the gateway admin endpoint reachable inside the web3 container.
const registryAdmin = "http://localhost:8001"

type registryStep struct {
	Name   string
	Method string
	Path   string
	Data   []string
}

// web3RegistrySteps replace whatever a previous run left registered for the
// game server with a fresh registration.
var web3RegistrySteps = []registryStep{
	{Name: "register consumer", Method: "PUT", Path: "/consumers/msde-web3"},
	{Name: "deregister stale msde service", Method: "DELETE", Path: "/services/msde"},
	{Name: "register msde service", Method: "PUT", Path: "/services/msde", Data: []string{"url=http://" + models.PrimaryService + ":4000"}},
}

func (st registryStep) command() []string {
	cmd := []string{"curl", "-s", "-o", "/dev/null", "-w", "%{http_code}", "-X", st.Method}
	for _, d := range st.Data {
		cmd = append(cmd, "--data", d)
	}
	return append(cmd, registryAdmin+st.Path)
}

func (s *Stack) postBoot(ctx context.Context, features []models.Feature) error {
	if models.HasFeature(features, models.FeatureMetrics) {
		if err := s.initMetrics(ctx); err != nil {
			return err
		}
	}
	if models.HasFeature(features, models.FeatureWeb3) {
		if err := s.registerWeb3(ctx); err != nil {
			return err
		}
	}
	return s.patchServerConfig(ctx, features)
}

func (s *Stack) initMetrics(ctx context.Context) error {
	id, err := s.runtime.ContainerID(ctx, models.MetricsService)
	if err != nil {
		return fmt.Errorf("locate %s: %w", models.MetricsService, err)
	}
	if _, err := s.runtime.Exec(ctx, id, MetricsInitCommand); err != nil {
		return fmt.Errorf("initialize metrics: %w", err)
	}
	s.logger.Info().Msg("metrics initialized")
	return nil
}

// registerWeb3 runs the registry steps in order. A failing step is logged and
// the next one still runs.
func (s *Stack) registerWeb3(ctx context.Context) error {
	id, err := s.runtime.ContainerID(ctx, models.Web3Service)
	if err != nil {
		return fmt.Errorf("locate %s: %w", models.Web3Service, err)
	}

	for _, step := range web3RegistrySteps {
		out, err := s.runtime.Exec(ctx, id, step.command())
		if err != nil {
			s.logger.Warn().Err(err).Str("step", step.Name).Msg("web3 registry step failed")
			continue
		}
		code := rpc.Decode(out)
		if !strings.HasPrefix(code, "2") {
			s.logger.Warn().Str("step", step.Name).Str("status", code).Msg("web3 registry step rejected")
			continue
		}
		s.logger.Debug().Str("step", step.Name).Str("status", code).Msg("web3 registry step done")
	}
	return nil
}

// patchServerConfig switches the server's feature toggles and reloads its
// configuration.
func (s *Stack) patchServerConfig(ctx context.Context, features []models.Feature) error {
	id, err := s.runtime.ContainerID(ctx, models.PrimaryService)
	if err != nil {
		return fmt.Errorf("locate %s: %w", models.PrimaryService, err)
	}

	content, err := s.runtime.CopyFrom(ctx, id, ServerConfigPath)
	if err != nil {
		return fmt.Errorf("fetch server config: %w", err)
	}

	patched := s.patcher.Patch(string(content), features)
	if err := s.runtime.CopyTo(ctx, id, ServerConfigPath, []byte(patched)); err != nil {
		s.logger.Error().Err(err).Str("path", ServerConfigPath).Msg("failed to write server config back")
	}

	out, err := s.caller.Call(ctx, ReloadConfigExpr)
	if err != nil {
		return fmt.Errorf("reload server config: %w", err)
	}
	s.logger.Debug().Str("result", out).Msg("server config reloaded")
	return nil
}

// disableTracing switches tracing off once the server had time to start its
// tracing subsystems. Failures are only logged.
func (s *Stack) disableTracing(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(s.TracingDelay):
	}

	if _, err := s.caller.Call(ctx, DisableTracingExpr); err != nil {
		s.logger.Warn().Err(err).Msg("failed to disable tracing")
		return
	}
	s.logger.Debug().Msg("tracing disabled")
}
