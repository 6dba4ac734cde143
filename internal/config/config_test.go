package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qtab/datatable"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "qtab.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, datatable.BuildAuto, cfg.Build)
	assert.Equal(t, datatable.DefaultConfig(), cfg.Model)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_OverrideDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `
build: 12340
model:
  chunk_size: 500
log:
  level: debug
open_dir: `+dir+`
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 12340, cfg.Build)
	assert.Equal(t, 500, cfg.Model.ChunkSize)
	assert.Equal(t, datatable.DefaultLargeThreshold, cfg.Model.LargeThreshold)
	assert.Equal(t, datatable.DefaultMaxCellLength, cfg.Model.MaxCellLength)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, dir, cfg.OpenDir)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeConfig(t, "build: [1, 2"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(c *Config) {}, ""},
		{"build below auto", func(c *Config) { c.Build = -2 }, "build (-2) must be >= -1"},
		{"zero chunk size", func(c *Config) { c.Model.ChunkSize = 0 }, "chunk_size must be >= 1"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, `log.level "loud"`},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, `log.format "xml"`},
		{"missing open dir", func(c *Config) { c.OpenDir = "/does/not/exist" }, "open_dir"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvBuild, "8606")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvOpenDir, dir)

	cfg := DefaultConfig()
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, 8606, cfg.Build)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, dir, cfg.OpenDir)
}

func TestApplyEnvInvalid(t *testing.T) {
	t.Setenv(EnvBuild, "latest")
	assert.Error(t, DefaultConfig().ApplyEnv())

	t.Setenv(EnvBuild, "-5")
	err := DefaultConfig().ApplyEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build (-5) must be >= -1")
}
