package compose

import (
	"path/filepath"

	"github.com/devpackage/msdectl/models"
	"gopkg.in/yaml.v3"
)

// Paths the server and its companions read project content from.
const (
	containerGamesDir     = "/usr/local/bin/merigo/games"
	containerExtensionDir = "/usr/local/bin/merigo/extension"
	containerLogDir       = "/var/log/msde"
	containerBotsDir      = "/usr/local/bin/merigo/bots"
)

// BuildPlan orders the compose invocations for a feature set: the base group,
// one group per feature in feature order, then the main group. The bot group
// also starts the game server, so with the bot feature the main group is
// omitted and the last feature group receives the volume configuration.
func BuildPlan(features []models.Feature) models.BootPlan {
	sorted := models.SortFeatures(features)
	withBot := models.HasFeature(sorted, models.FeatureBot)

	plan := models.BootPlan{Features: sorted}
	plan.Invocations = append(plan.Invocations, models.Invocation{
		Group: "base",
		Files: []string{models.BaseComposeFile},
	})

	for i, f := range sorted {
		inv := models.Invocation{
			Group: f.String(),
			Files: []string{f.ComposeFile()},
		}
		if i == len(sorted)-1 && withBot {
			inv.Target = models.PrimaryService
			inv.InjectVolumes = true
		}
		plan.Invocations = append(plan.Invocations, inv)
	}

	if !withBot {
		plan.Invocations = append(plan.Invocations, models.Invocation{
			Group:         "main",
			Files:         []string{models.MainComposeFile},
			Target:        models.PrimaryService,
			InjectVolumes: true,
		})
	}
	return plan
}

// BuildVolumeConfig binds the project's content directories into the services
// started by the last invocation.
func BuildVolumeConfig(projectDir string, features []models.Feature) models.VolumeConfig {
	var v models.VolumeConfig
	v.Bind(models.PrimaryService, filepath.Join(projectDir, "games"), containerGamesDir)
	v.Bind(models.PrimaryService, filepath.Join(projectDir, "merigo_extension", "priv"), containerExtensionDir)
	v.Bind(models.PrimaryService, filepath.Join(projectDir, "log"), containerLogDir)

	if models.HasFeature(features, models.FeatureBot) {
		v.Bind(models.BotService, filepath.Join(projectDir, "bots"), containerBotsDir)
	}
	return v
}

// MarshalVolumeConfig renders the volume configuration as a compose file.
func MarshalVolumeConfig(v models.VolumeConfig) ([]byte, error) {
	return yaml.Marshal(v)
}
