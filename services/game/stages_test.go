package game

import (
	"context"
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/devpackage/msdectl/models"
	"github.com/devpackage/msdectl/services/rpc"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeDeduplicatesBySUID(t *testing.T) {
	guid := uuid.New()
	shared := uuid.New()
	local := []models.Stages{{Stages: []models.StageConfig{
		{GUID: guid, SUID: shared, Name: "local"},
		{GUID: guid, SUID: uuid.New(), Name: "only-local"},
	}}}
	remote := []models.Stages{{Stages: []models.StageConfig{
		{GUID: guid, SUID: shared, Name: "remote"},
	}}}

	merged := Merge(local, remote)
	require.Len(t, merged, 1)
	require.Len(t, merged[0].Stages, 2)
	assert.Equal(t, "remote", merged[0].Stages[0].Name)
	assert.Equal(t, "only-local", merged[0].Stages[1].Name)
}

// For random inputs the merged size equals the number of distinct
// (guid, suid) pairs and no suid repeats within a group.
func TestMergeSizeMatchesDistinctStages(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	guids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	suids := make([]uuid.UUID, 8)
	for i := range suids {
		suids[i] = uuid.New()
	}

	randomStages := func() []models.Stages {
		var out []models.Stages
		for n := rng.Intn(4); n > 0; n-- {
			guid := guids[rng.Intn(len(guids))]
			var s models.Stages
			for m := rng.Intn(6); m > 0; m-- {
				s.Stages = append(s.Stages, models.StageConfig{GUID: guid, SUID: suids[rng.Intn(len(suids))]})
			}
			out = append(out, s)
		}
		return out
	}

	for round := 0; round < 200; round++ {
		a, b := randomStages(), randomStages()

		distinct := map[models.StageKey]struct{}{}
		for _, src := range [][]models.Stages{a, b} {
			for _, s := range src {
				for _, st := range s.Stages {
					distinct[keyOf(st)] = struct{}{}
				}
			}
		}

		total := 0
		for _, g := range Merge(a, b) {
			seen := map[uuid.UUID]bool{}
			for _, st := range g.Stages {
				require.False(t, seen[st.SUID], "duplicate suid in round %d", round)
				seen[st.SUID] = true
				assert.Equal(t, g.GUID(), st.GUID)
			}
			total += len(g.Stages)
		}
		require.Equal(t, len(distinct), total, "round %d", round)
	}
}

func TestLaunchKeys(t *testing.T) {
	guid := uuid.New()
	a, b := stage(guid, true), stage(guid, false)

	keys := LaunchKeys([]models.Stages{{Stages: []models.StageConfig{a, b}}})
	assert.Equal(t, []models.StageKey{keyOf(a)}, keys)
}

func TestLoadStages(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stages.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
games:
  - stages:
      - guid: 6f0a1c2e-8d4b-4e61-9a3f-2b7c5d9e1f00
        suid: 0b1c2d3e-4f50-4617-8293-a4b5c6d7e8f9
        name: Lobby
        launch: true
        script: {link: scripts/lobby}
        tuning: {link: tuning/lobby.json}
        macrosEnabled: true
        evmlistener: false
`), 0o644))

	games, err := LoadStages(path)
	require.NoError(t, err)
	require.Len(t, games, 1)
	s := games[0].Stages[0]
	assert.Equal(t, "Lobby", s.Name)
	assert.True(t, s.Launch)
	assert.True(t, s.MacrosEnabled)
	assert.Equal(t, "scripts/lobby", s.Script.Link)
	assert.Equal(t, uuid.MustParse("6f0a1c2e-8d4b-4e61-9a3f-2b7c5d9e1f00"), s.GUID)
}

func TestLoadStagesMissingFile(t *testing.T) {
	games, err := LoadStages(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)
	assert.Empty(t, games)
}

type exportServer struct{ reply string }

func (s exportServer) Call(ctx context.Context, expr string) (string, error) {
	return s.reply, nil
}

func TestFetchRemoteStages(t *testing.T) {
	guid := uuid.New()
	payload, err := json.Marshal([]models.Stages{{Stages: []models.StageConfig{stage(guid, true)}}})
	require.NoError(t, err)

	games, err := FetchRemoteStages(context.Background(), exportServer{reply: rpc.Quote(string(payload))})
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, guid, games[0].GUID())

	_, err = FetchRemoteStages(context.Background(), exportServer{reply: `"not json"`})
	assert.ErrorIs(t, err, rpc.ErrProtocol)
}
