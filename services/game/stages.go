package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/devpackage/msdectl/interfaces"
	"github.com/devpackage/msdectl/models"
	"github.com/devpackage/msdectl/services/rpc"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// ExportStagesExpr returns every stage group the server knows as JSON.
const ExportStagesExpr = "Game.export_stages()"

// stagesFile is the layout of games/stages.yml.
type stagesFile struct {
	Games []models.Stages `yaml:"games"`
}

// LoadStages reads the project's local stage declarations. A missing file
// means no local stages.
func LoadStages(path string) ([]models.Stages, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read stages %q: %w", path, err)
	}

	var f stagesFile
	if err := yaml.Unmarshal(content, &f); err != nil {
		return nil, fmt.Errorf("parse stages %q: %w", path, err)
	}
	return f.Games, nil
}

// FetchRemoteStages reads the stage groups the running server exports. The
// export is usually larger than one exec returns, so it is read in slices.
func FetchRemoteStages(ctx context.Context, caller interfaces.Caller) ([]models.Stages, error) {
	raw, err := rpc.FetchChunked(ctx, caller, ExportStagesExpr)
	if err != nil {
		return nil, fmt.Errorf("export remote stages: %w", err)
	}

	var out []models.Stages
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode remote stages: %w: %v", rpc.ErrProtocol, err)
	}
	return out, nil
}

// Merge combines stage groups by guid, in order of first appearance. Within a
// group every suid is kept once; a later definition replaces an earlier one in
// place.
func Merge(sources ...[]models.Stages) []models.Stages {
	var order []uuid.UUID
	groups := make(map[uuid.UUID]*models.Stages)
	index := make(map[uuid.UUID]map[uuid.UUID]int)

	for _, source := range sources {
		for _, s := range source {
			for _, stage := range s.Stages {
				g, ok := groups[stage.GUID]
				if !ok {
					g = &models.Stages{}
					groups[stage.GUID] = g
					index[stage.GUID] = make(map[uuid.UUID]int)
					order = append(order, stage.GUID)
				}
				if i, seen := index[stage.GUID][stage.SUID]; seen {
					g.Stages[i] = stage
					continue
				}
				index[stage.GUID][stage.SUID] = len(g.Stages)
				g.Stages = append(g.Stages, stage)
			}
		}
	}

	out := make([]models.Stages, 0, len(order))
	for _, guid := range order {
		out = append(out, *groups[guid])
	}
	return out
}

// LaunchKeys lists the stages flagged for launch, in merge order.
func LaunchKeys(groups []models.Stages) []models.StageKey {
	var keys []models.StageKey
	for _, g := range groups {
		for _, s := range g.Stages {
			if s.Launch {
				keys = append(keys, models.StageKey{GUID: s.GUID, SUID: s.SUID})
			}
		}
	}
	return keys
}
