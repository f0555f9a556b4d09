package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/devpackage/msdectl/models"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides (MSDE_BOOT_TIMEOUT, ...).
const EnvPrefix = "MSDE"

const (
	DefaultServerVersion = "latest"
	DefaultBootTimeout   = 5 * time.Minute
	DefaultHealthTimeout = 60 * time.Second
	DefaultConcurrency   = 10
	DefaultPollBudget    = 30 * time.Second
)

func setDefaults(v *viper.Viper, projectDir string) {
	v.SetDefault("project_dir", projectDir)
	v.SetDefault("server_version", DefaultServerVersion)
	v.SetDefault("compose_binary", "docker")
	v.SetDefault("features", []string{})
	v.SetDefault("boot_timeout", DefaultBootTimeout)
	v.SetDefault("health_timeout", DefaultHealthTimeout)
	v.SetDefault("log.level", "info")
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("sync.concurrency", DefaultConcurrency)
	v.SetDefault("sync.poll_budget", DefaultPollBudget)
}

// Load reads config.yaml from <projectDir>/.msde and then $HOME/.msde. A
// missing file is not an error; every key has a default and may be overridden
// from the environment.
func Load(projectDir string) (models.Configuration, error) {
	var cfg models.Configuration

	abs, err := filepath.Abs(projectDir)
	if err != nil {
		return cfg, fmt.Errorf("resolve project dir %q: %w", projectDir, err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(abs, ".msde"))
	if home, herr := os.UserHomeDir(); herr == nil {
		v.AddConfigPath(filepath.Join(home, ".msde"))
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, abs)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
	}

	// the directory asked for on the command line always wins
	v.Set("project_dir", abs)

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	return normalize(cfg), nil
}

func normalize(cfg models.Configuration) models.Configuration {
	if cfg.Sync.Concurrency <= 0 {
		cfg.Sync.Concurrency = DefaultConcurrency
	}
	if cfg.Sync.PollBudget <= 0 {
		cfg.Sync.PollBudget = DefaultPollBudget
	}
	if cfg.BootTimeout <= 0 {
		cfg.BootTimeout = DefaultBootTimeout
	}
	if cfg.HealthTimeout <= 0 {
		cfg.HealthTimeout = DefaultHealthTimeout
	}
	return cfg
}
