package compose

import (
	"strings"

	"github.com/devpackage/msdectl/models"
)

// ServerConfigPath is the runtime configuration of the game server.
const ServerConfigPath = "/usr/local/bin/merigo/msde/releases/runtime.exs"

// Toggle is a pair of lines that switch one feature in the server config.
type Toggle struct {
	Feature models.Feature
	Off     string
	On      string
}

var DefaultToggles = []Toggle{
	{Feature: models.FeatureOTEL, Off: "tracing_enabled: false", On: "tracing_enabled: true"},
	{Feature: models.FeatureMetrics, Off: "metrics_enabled: false", On: "metrics_enabled: true"},
	{Feature: models.FeatureWeb3, Off: "web3_enabled: false", On: "web3_enabled: true"},
}

// TogglePatcher rewrites every toggle to match the active features. Toggles
// are independent; content without a toggle's lines is left as is.
type TogglePatcher struct {
	Toggles []Toggle
}

func NewTogglePatcher() *TogglePatcher {
	return &TogglePatcher{Toggles: DefaultToggles}
}

func (p *TogglePatcher) Patch(content string, features []models.Feature) string {
	for _, t := range p.Toggles {
		if models.HasFeature(features, t.Feature) {
			content = strings.ReplaceAll(content, t.Off, t.On)
		} else {
			content = strings.ReplaceAll(content, t.On, t.Off)
		}
	}
	return content
}
