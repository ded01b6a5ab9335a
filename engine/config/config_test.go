package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spaghettifunk/anima-descriptors/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, uint32(256), cfg.Descriptors.MaxSetsPerPool)
	assert.Equal(t, HashPolicyUsageID, cfg.Descriptors.HashPolicy)
}

func TestLoadTOML(t *testing.T) {
	p := writeFile(t, t.TempDir(), "descriptors.toml", `
[descriptors]
max_sets_per_pool = 64
hash_policy = "structure"

[logging]
level = "debug"
`)
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, uint32(64), cfg.Descriptors.MaxSetsPerPool)
	assert.Equal(t, HashPolicyStructure, cfg.Descriptors.HashPolicy)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// untouched keys keep their defaults
	assert.Equal(t, uint64(10), cfg.Descriptors.SafeFrames)
	assert.Equal(t, 1, cfg.Descriptors.ReclaimPerGC)
}

func TestLoadYAML(t *testing.T) {
	p := writeFile(t, t.TempDir(), "descriptors.yaml", `
descriptors:
  safe_frames: 4
  reclaim_per_gc: 2
simulation:
  frames: 10
`)
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), cfg.Descriptors.SafeFrames)
	assert.Equal(t, 2, cfg.Descriptors.ReclaimPerGC)
	assert.Equal(t, 10, cfg.Simulation.Frames)
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(writeFile(t, dir, "bad.toml", "[descriptors]\nhash_policy = \"crc\"\n"))
	assert.ErrorIs(t, err, core.ErrInvalidConfig)

	_, err = Load(writeFile(t, dir, "bad.json", "{}"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, dir, "zero.toml", "[descriptors]\nmax_sets_per_pool = 0\n"))
	assert.Error(t, err)

	// registries would be reclaimed while frames still reference them
	_, err = Load(writeFile(t, dir, "short.yaml", "descriptors:\n  safe_frames: 2\nsimulation:\n  frames_in_flight: 3\n"))
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
}

func TestDump(t *testing.T) {
	out, err := Default().Dump()
	require.NoError(t, err)
	assert.Contains(t, out, "max_sets_per_pool: 256")
	assert.Contains(t, out, "hash_policy: usage_id")
}

func TestWatchReloads(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "descriptors.toml", "[descriptors]\nreclaim_per_gc = 1\n")

	changes := make(chan *Config, 16)
	w, err := Watch(p, func(c *Config) {
		select {
		case changes <- c:
		default:
		}
	})
	require.NoError(t, err)
	defer w.Close()

	writeFile(t, dir, "descriptors.toml", "[descriptors]\nreclaim_per_gc = 3\n")

	// a write can surface as several events, the last one carries the full file
	deadline := time.After(5 * time.Second)
	for observed := false; !observed; {
		select {
		case cfg := <-changes:
			observed = cfg.Descriptors.ReclaimPerGC == 3
		case <-deadline:
			t.Fatal("config change was not observed")
		}
	}
	assert.NoError(t, w.Close())
	assert.Error(t, w.Close())
}
