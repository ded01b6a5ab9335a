package cmd

import (
	"fmt"

	"github.com/spaghettifunk/anima-descriptors/engine/core"
	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	Run:   dumpConfig,
}

func dumpConfig(_ *cobra.Command, _ []string) {
	cfg, err := loadConfig()
	if err != nil {
		core.LogFatal("error loading config (%v)", err)
	}
	if err := cfg.Validate(); err != nil {
		core.LogWarn("config is not valid (%v)", err)
	}
	out, err := cfg.Dump()
	if err != nil {
		core.LogFatal("error dumping config (%v)", err)
	}
	fmt.Print(out)
}
