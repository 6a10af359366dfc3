package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aschepis/mythra/logger"
)

var (
	cfgFile  string
	logLevel string
	logFile  string

	rootCmd = &cobra.Command{
		Use:   "mythra",
		Short: "LLM-assisted Solidity gas optimization analyzer",
		Long: `mythra sends Solidity sources to an LLM provider and reports
gas-optimization opportunities with suggested changes, estimated savings,
and a safety rationale for each.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.mythra/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs as JSON lines to this file instead of stderr")

	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(versionCmd())
}

// initLogger builds the process logger from the persistent flags.
func initLogger() (zerolog.Logger, error) {
	if logFile != "" {
		return logger.InitFile(logLevel, logFile)
	}
	return logger.Init(logLevel, true), nil
}
