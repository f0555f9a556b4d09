package upgrade

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathConsecutiveMinors(t *testing.T) {
	hops, err := Path("0.12.3", "0.15.1")
	require.NoError(t, err)
	assert.Equal(t, []Hop{
		{From: "v0.12.3", To: "v0.13.0"},
		{From: "v0.13.0", To: "v0.14.0"},
		{From: "v0.14.0", To: "v0.15.1"},
	}, hops)
}

func TestPathSameMinor(t *testing.T) {
	hops, err := Path("v0.14.0", "v0.14.2")
	require.NoError(t, err)
	assert.Equal(t, []Hop{{From: "v0.14.0", To: "v0.14.2"}}, hops)

	hops, err = Path("0.14.2", "0.14.2")
	require.NoError(t, err)
	assert.Empty(t, hops)
}

func TestPathAcrossMajor(t *testing.T) {
	hops, err := Path("0.19.0", "1.1.0")
	require.NoError(t, err)
	assert.Equal(t, []Hop{
		{From: "v0.19.0", To: "v1.0.0"},
		{From: "v1.0.0", To: "v1.1.0"},
	}, hops)
}

func TestPathRejectsGarbage(t *testing.T) {
	_, err := Path("latest", "0.14.0")
	assert.Error(t, err)
}

func TestRunSkipsAutomaticStepsInManualMode(t *testing.T) {
	ran := false
	p := &Pipeline{}
	p.Auto("touch", func(ctx context.Context) error {
		ran = true
		return nil
	})
	p.Manual("edit your config")

	var out bytes.Buffer
	require.NoError(t, p.Run(context.Background(), &out, true))
	assert.False(t, ran)
	assert.Equal(t, "edit your config\n", out.String())

	out.Reset()
	require.NoError(t, p.Run(context.Background(), &out, false))
	assert.True(t, ran)
	assert.Equal(t, "edit your config\n", out.String())
}

func TestRunStopsAtFailure(t *testing.T) {
	p := &Pipeline{}
	p.Auto("broken", func(ctx context.Context) error { return errors.New("disk full") })
	p.Manual("never shown")

	var out bytes.Buffer
	err := p.Run(context.Background(), &out, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `upgrade step "broken"`)
	assert.Empty(t, out.String())
}

func TestPlanUpgradesAcrossKnownHop(t *testing.T) {
	var written string
	planner := NewPlanner(func(ctx context.Context, v string) error {
		written = v
		return nil
	}, zerolog.Nop())

	p, err := planner.Plan("0.14.1", "0.13.0")
	require.NoError(t, err)
	require.Len(t, p.Steps, 2)

	var out bytes.Buffer
	require.NoError(t, p.Run(context.Background(), &out, false))
	assert.Equal(t, "0.14.1", written)
	assert.Contains(t, out.String(), "docker/")
}

func TestPlanNoopForEqualOrOlderTool(t *testing.T) {
	planner := NewPlanner(func(ctx context.Context, v string) error {
		t.Fatal("version must not be written")
		return nil
	}, zerolog.Nop())

	for _, project := range []string{"0.14.0", "0.15.0"} {
		p, err := planner.Plan("0.14.0", project)
		require.NoError(t, err)
		assert.Empty(t, p.Steps)
	}
}
