package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	slizzai "github.com/Slizzurp/SlizzAi-3"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "slizzai.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
frame:
  width: 1920
  height: 1080
tiles: 64
budget: 50
concurrency: 8
fidelity_loss_ceiling: 0.01
pass_through: true
retry_limit: 2
supersample_timeout: 45s
enhance_factor: 4
endpoint: http://localhost:8188
`)

	cfg, endpoint, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 1920, cfg.Width)
	assert.Equal(t, 1080, cfg.Height)
	assert.Equal(t, 64, cfg.TileCount)
	assert.Equal(t, 50.0, cfg.BudgetLimit)
	assert.Equal(t, 8, cfg.MaxConcurrency)
	assert.Equal(t, 0.01, cfg.FidelityLossCeiling)
	assert.True(t, cfg.PassThrough)
	assert.Equal(t, 2, cfg.RetryLimit)
	assert.Equal(t, 45*time.Second, cfg.SuperSampleTimeout)
	assert.Equal(t, 4, cfg.EnhanceFactor)
	assert.Equal(t, "http://localhost:8188", endpoint)
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, `
frame:
  width: 640
  height: 480
tiles: 16
budget: 20
`)

	cfg, endpoint, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.MaxConcurrency)
	assert.Equal(t, 0.02, cfg.FidelityLossCeiling)
	assert.Equal(t, 3, cfg.RetryLimit)
	assert.Equal(t, 30*time.Second, cfg.SuperSampleTimeout)
	assert.Equal(t, 2, cfg.EnhanceFactor)
	assert.Empty(t, endpoint, "no endpoint means the built-in upscaler")
}

func TestLoadConfig_BadDuration(t *testing.T) {
	path := writeConfig(t, `
frame: {width: 640, height: 480}
tiles: 16
budget: 20
supersample_timeout: soon
`)
	_, _, err := loadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "supersample_timeout")
}

func TestLoadConfig_InvalidCycle(t *testing.T) {
	path := writeConfig(t, `
frame: {width: 640, height: 480}
tiles: 0
budget: 20
`)
	_, _, err := loadConfig(path)
	require.ErrorIs(t, err, slizzai.ErrInvalidConfig)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, _, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadConfig_Malformed(t *testing.T) {
	path := writeConfig(t, "frame: [not, a, mapping")
	_, _, err := loadConfig(path)
	require.Error(t, err)
}
