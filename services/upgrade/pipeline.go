package upgrade

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/mod/semver"
)

// Step is one unit of a project upgrade: either Automatic or Manual.
type Step interface {
	perform(ctx context.Context, out io.Writer, manualOnly bool) error
}

// Automatic runs code against the project. It is skipped in manual-only mode.
type Automatic struct {
	Name string
	Func func(ctx context.Context) error
}

func (a Automatic) perform(ctx context.Context, _ io.Writer, manualOnly bool) error {
	if manualOnly {
		return nil
	}
	if err := a.Func(ctx); err != nil {
		return fmt.Errorf("upgrade step %q: %w", a.Name, err)
	}
	return nil
}

// Manual is an instruction printed for the user. It is always shown.
type Manual struct {
	Message string
}

func (m Manual) perform(_ context.Context, out io.Writer, _ bool) error {
	_, err := fmt.Fprintln(out, m.Message)
	return err
}

// Pipeline runs its steps in order and stops at the first failure.
type Pipeline struct {
	Steps []Step
}

func (p *Pipeline) Auto(name string, f func(ctx context.Context) error) {
	p.Steps = append(p.Steps, Automatic{Name: name, Func: f})
}

func (p *Pipeline) Manual(msg string) {
	p.Steps = append(p.Steps, Manual{Message: msg})
}

func (p *Pipeline) Run(ctx context.Context, out io.Writer, manualOnly bool) error {
	for _, s := range p.Steps {
		if err := s.perform(ctx, out, manualOnly); err != nil {
			return err
		}
	}
	return nil
}

// Hop is a consecutive minor version upgrade.
type Hop struct {
	From, To string
}

// Path lists the hops from one version to a newer one: one per minor version,
// the hop into the target's minor landing on it exactly. Versions accept an optional "v" prefix.
func Path(from, to string) ([]Hop, error) {
	from, to = canonical(from), canonical(to)
	if !semver.IsValid(from) {
		return nil, fmt.Errorf("invalid version %q", from)
	}
	if !semver.IsValid(to) {
		return nil, fmt.Errorf("invalid version %q", to)
	}

	var hops []Hop
	current := from
	for semver.Compare(current, to) < 0 {
		next := to
		if semver.MajorMinor(current) != semver.MajorMinor(to) {
			major, minor, err := majorMinor(current)
			if err != nil {
				return nil, err
			}
			if semver.Major(current) != semver.Major(to) {
				// the last minor of a major line is unknown, go to the next major
				next = fmt.Sprintf("v%d.0.0", major+1)
			} else {
				next = fmt.Sprintf("v%d.%d.0", major, minor+1)
			}
			if semver.MajorMinor(next) == semver.MajorMinor(to) {
				next = to
			}
		}
		hops = append(hops, Hop{From: current, To: next})
		current = next
	}
	return hops, nil
}

// HopSteps returns extra steps for one hop, or nil when the hop needs none.
type HopSteps func(h Hop) (*Pipeline, error)

// Planner builds the upgrade of a project to the tool's version.
type Planner struct {
	// WriteVersion records the new version in the project.
	WriteVersion func(ctx context.Context, version string) error
	// Hops supplies version specific migrations.
	Hops HopSteps

	logger zerolog.Logger
}

func NewPlanner(writeVersion func(ctx context.Context, version string) error, logger zerolog.Logger) *Planner {
	return &Planner{
		WriteVersion: writeVersion,
		Hops:         KnownHops,
		logger:       logger,
	}
}

// Plan returns the pipeline upgrading a project at version project to tool.
// Older tools and equal versions yield an empty pipeline.
func (p *Planner) Plan(tool, project string) (*Pipeline, error) {
	tool, project = canonical(tool), canonical(project)
	if !semver.IsValid(tool) || !semver.IsValid(project) {
		return nil, fmt.Errorf("cannot compare versions %q and %q", tool, project)
	}

	switch c := semver.Compare(tool, project); {
	case c < 0:
		p.logger.Info().Str("tool", tool).Str("project", project).Msg("project is newer than this tool, consider installing a newer version")
		return &Pipeline{}, nil
	case c == 0:
		p.logger.Info().Str("version", project).Msg("project is up to date")
		return &Pipeline{}, nil
	}

	p.logger.Info().Str("from", project).Str("to", tool).Msg("upgrading project")
	pipeline := &Pipeline{}
	version := strings.TrimPrefix(tool, "v")
	pipeline.Auto("write project version", func(ctx context.Context) error {
		return p.WriteVersion(ctx, version)
	})

	hops, err := Path(project, tool)
	if err != nil {
		return nil, err
	}
	for _, h := range hops {
		if p.Hops == nil {
			break
		}
		extra, err := p.Hops(h)
		if err != nil {
			return nil, fmt.Errorf("plan upgrade %s -> %s: %w", h.From, h.To, err)
		}
		if extra != nil {
			pipeline.Steps = append(pipeline.Steps, extra.Steps...)
		}
	}
	return pipeline, nil
}

// KnownHops holds the migrations between released minor versions.
func KnownHops(h Hop) (*Pipeline, error) {
	switch {
	case semver.MajorMinor(h.From) == "v0.13" && semver.MajorMinor(h.To) == "v0.14":
		p := &Pipeline{}
		p.Manual("Compose files moved to the docker/ directory of the project. Move any local overrides there.")
		return p, nil
	}
	return nil, nil
}

func canonical(v string) string {
	v = strings.TrimSpace(v)
	if v != "" && !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

func majorMinor(v string) (int, int, error) {
	parts := strings.SplitN(strings.TrimPrefix(semver.MajorMinor(v), "v"), ".", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid version %q", v)
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid version %q: %w", v, err)
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid version %q: %w", v, err)
	}
	return major, minor, nil
}
