package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	wd, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	defer func() { _ = os.Chdir(wd) }()

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5555, cfg.Port)
	assert.Empty(t, cfg.EnabledExperiments)
}

func TestLoad_ExperimentsEnv(t *testing.T) {
	dir := t.TempDir()
	wd, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	defer func() { _ = os.Chdir(wd) }()

	t.Setenv("SUPERSURF_EXPERIMENTS", "page_diffing, smart_waiting ,page_diffing")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"page_diffing", "smart_waiting"}, cfg.EnabledExperiments)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/supersurf.yaml"
	require.NoError(t, os.WriteFile(path, []byte("port: 6000\ndebug: truncate\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 6000, cfg.Port)
	assert.Equal(t, "truncate", string(cfg.Debug))
}
