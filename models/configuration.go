package models

import (
	"path/filepath"
	"time"
)

// Configuration is built once at start-up and passed to every component.
type Configuration struct {
	ProjectDir    string        `mapstructure:"project_dir"`
	ServerVersion string        `mapstructure:"server_version"` // pinned image tag of the game server
	ComposeBinary string        `mapstructure:"compose_binary"` // "docker"
	Features      []string      `mapstructure:"features"`
	BootTimeout   time.Duration `mapstructure:"boot_timeout"`
	HealthTimeout time.Duration `mapstructure:"health_timeout"`
	Log           LogConfig     `mapstructure:"log"`
	Metrics       MetricsConfig `mapstructure:"metrics"`
	Sync          SyncConfig    `mapstructure:"sync"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type MetricsConfig struct {
	// Textfile is a node-exporter textfile path; empty disables metrics output.
	Textfile string `mapstructure:"textfile"`
}

type SyncConfig struct {
	Concurrency int           `mapstructure:"concurrency"`
	PollBudget  time.Duration `mapstructure:"poll_budget"`
}

// DockerDir holds the compose files.
func (c Configuration) DockerDir() string {
	return filepath.Join(c.ProjectDir, "docker")
}

// LogDir holds diagnostic logs of failed steps.
func (c Configuration) LogDir() string {
	return filepath.Join(c.ProjectDir, "log")
}

// StagesFile is the local stage declaration of the project.
func (c Configuration) StagesFile() string {
	return filepath.Join(c.ProjectDir, "games", "stages.yml")
}

// MetadataFile is the project metadata (version, hooks).
func (c Configuration) MetadataFile() string {
	return filepath.Join(c.ProjectDir, "metadata.json")
}
