package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.ProjectDir)
	assert.Equal(t, "docker", cfg.ComposeBinary)
	assert.Equal(t, DefaultBootTimeout, cfg.BootTimeout)
	assert.Equal(t, DefaultHealthTimeout, cfg.HealthTimeout)
	assert.Equal(t, DefaultConcurrency, cfg.Sync.Concurrency)
	assert.Equal(t, DefaultPollBudget, cfg.Sync.PollBudget)
	assert.Equal(t, filepath.Join(dir, "log"), cfg.LogDir())
}

func TestLoadProjectFileAndEnvironment(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".msde"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".msde", "config.yaml"), []byte(`
server_version: "2.4.0"
features: [metrics, bot]
boot_timeout: 90s
sync:
  concurrency: 4
`), 0o644))
	t.Setenv("MSDE_HEALTH_TIMEOUT", "15s")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "2.4.0", cfg.ServerVersion)
	assert.Equal(t, []string{"metrics", "bot"}, cfg.Features)
	assert.Equal(t, 90*time.Second, cfg.BootTimeout)
	assert.Equal(t, 15*time.Second, cfg.HealthTimeout)
	assert.Equal(t, 4, cfg.Sync.Concurrency)
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".msde"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".msde", "config.yaml"), []byte("features: [\n"), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestLoadProjectDirIsNotOverridden(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".msde"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".msde", "config.yaml"), []byte("project_dir: /somewhere/else\n"), 0o644))
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.ProjectDir)

	t.Setenv("MSDE_PROJECT_DIR", "/from/env")
	cfg, err = Load(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.ProjectDir)
}
