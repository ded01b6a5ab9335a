package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/profile"
	"github.com/spaghettifunk/anima-descriptors/engine/config"
	"github.com/spaghettifunk/anima-descriptors/engine/core"
	"github.com/spf13/cobra"
)

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (toml or yaml)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	RootCmd.PersistentFlags().BoolVar(&doCpuProfile, "cpu", false, "Enable CPU profiling")
	RootCmd.PersistentFlags().BoolVar(&doMemoryProfile, "memory", false, "Enable memory profiling")
	RootCmd.PersistentFlags().BoolVar(&doMutexProfile, "mutex", false, "Enable mutex profiling")
}

var RootCmd = &cobra.Command{
	Use:   strings.TrimSuffix(filepath.Base(os.Args[0]), filepath.Ext(os.Args[0])),
	Short: "Anima descriptor pooling testbed",
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if doCpuProfile {
			cpuProfile = profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
		}
		if doMemoryProfile {
			memoryProfile = profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.NoShutdownHook)
		}
		if doMutexProfile {
			mutexProfile = profile.Start(profile.MutexProfile, profile.ProfilePath("."), profile.NoShutdownHook)
		}
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if cpuProfile != nil {
			cpuProfile.Stop()
		}
		if memoryProfile != nil {
			memoryProfile.Stop()
		}
		if mutexProfile != nil {
			mutexProfile.Stop()
		}
	},
}

var configPath string
var verbose bool
var doCpuProfile bool
var cpuProfile interface{ Stop() }
var doMemoryProfile bool
var memoryProfile interface{ Stop() }
var doMutexProfile bool
var mutexProfile interface{ Stop() }

// loadConfig reads --config if set, otherwise the built-in defaults, and
// applies the logging settings. --verbose wins over the configured level.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return nil, err
		}
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := core.SetLogLevel(cfg.Logging.Level); err != nil {
		return nil, err
	}
	if err := core.SetLogFormat(cfg.Logging.Format); err != nil {
		return nil, err
	}
	return cfg, nil
}
