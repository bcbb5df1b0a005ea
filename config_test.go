package marble

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileConfig_DefaultsWhenPathEmpty(t *testing.T) {
	cfg, err := LoadFileConfig("")
	require.NoError(t, err)
	assert.Equal(t, defaultTickTime, cfg.TickTime)
	assert.Equal(t, defaultMaxTicks, cfg.MaxTicks)
	assert.Equal(t, defaultMaxDrainIterations, cfg.MaxDrainIterations)
}

func TestLoadFileConfig_ParsesYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "marble.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tick_time: 50ms\nmax_ticks: 42\nmax_drain_iterations: 7\n"), 0o644))

	cfg, err := LoadFileConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 50*time.Millisecond, cfg.TickTime)
	assert.Equal(t, Tick(42), cfg.MaxTicks)
	assert.Equal(t, 7, cfg.MaxDrainIterations)
}

func TestLoadFileConfig_EnvOverlayWinsOverYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "marble.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_ticks: 42\n"), 0o644))

	t.Setenv(envMaxTicks, "99")
	cfg, err := LoadFileConfig(path)
	require.NoError(t, err)
	assert.Equal(t, Tick(99), cfg.MaxTicks)
}

func TestWithFileConfig_OverlaysNonZeroFieldsOnly(t *testing.T) {
	cfg := &FileConfig{MaxTicks: 42}
	opts := resolveSchedulerOptions([]Option{WithFileConfig(cfg)})
	assert.Equal(t, Tick(42), opts.maxTicks)
	assert.Equal(t, defaultTickTime, opts.tickTime)
	assert.Equal(t, defaultMaxDrainIterations, opts.maxDrainIterations)
}

func TestWithFileConfig_NilIsNoOp(t *testing.T) {
	opts := resolveSchedulerOptions([]Option{WithFileConfig(nil)})
	assert.Equal(t, defaultMaxTicks, opts.maxTicks)
}

func TestResolveSchedulerOptions_ExplicitOptionWinsOverFileConfig(t *testing.T) {
	cfg := &FileConfig{MaxTicks: 5}

	opts := resolveSchedulerOptions([]Option{WithFileConfig(cfg), WithMaxTicks(500)})
	assert.Equal(t, Tick(500), opts.maxTicks)
}

func TestResolveSchedulerOptions_FileConfigWinsWhenListedLast(t *testing.T) {
	cfg := &FileConfig{MaxTicks: 5}

	opts := resolveSchedulerOptions([]Option{WithMaxTicks(500), WithFileConfig(cfg)})
	assert.Equal(t, Tick(5), opts.maxTicks)
}
