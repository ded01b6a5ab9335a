package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/anima-descriptors/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetFlags(t *testing.T) {
	t.Cleanup(func() {
		configPath = ""
		verbose = false
		_ = core.SetLogLevel("info")
		_ = core.SetLogFormat("text")
	})
}

func TestLoadConfig_Defaults(t *testing.T) {
	resetFlags(t)
	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, uint32(256), cfg.Descriptors.MaxSetsPerPool)
}

func TestLoadConfig_FileAndVerbose(t *testing.T) {
	resetFlags(t)
	configPath = filepath.Join(t.TempDir(), "anima.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("descriptors:\n  reclaim_per_gc: 5\nlogging:\n  level: warn\n  format: logfmt\n"), 0o644))
	verbose = true

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Descriptors.ReclaimPerGC)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "logfmt", cfg.Logging.Format)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	resetFlags(t)
	configPath = filepath.Join(t.TempDir(), "missing.toml")
	_, err := loadConfig()
	assert.Error(t, err)
}

func TestRootCmd_RegistersCommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range RootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["simulate"])
	assert.True(t, names["config"])
	assert.NotNil(t, simulateCmd.Flags().Lookup("watch"))
}
