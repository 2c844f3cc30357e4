package main

import (
	"github.com/spf13/cobra"
)

const (
	configFlag   = "config"
	logLevelFlag = "log-level"
)

var rootCmd = &cobra.Command{
	Use:          "perfstats",
	Short:        "Collect process measurements into hierarchical statistics",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String(configFlag, "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().String(logLevelFlag, "INFO", "log level: DEBUG, INFO, WARNING, ERROR")
	rootCmd.AddCommand(initSampleCMD())
	rootCmd.AddCommand(initConfigCMD())
}
