package main

import (
	"fmt"
	"log"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"github.com/spf13/cobra"

	"github.com/ajiwo/qlimit/internal/logging"
)

var (
	// Global flags
	cfgFile   string
	verbosity int
)

var rootCmd = &cobra.Command{
	Use:   "qlimit",
	Short: "Inspect and exercise in-process admission limiters",
	Long: `qlimit works with the YAML quota files read by quota.Load.

Each limiter entry sets a concurrency ceiling, a sliding-window rate
ceiling (rate per interval) and an optional maximum queuing delay.
Values can be overridden with QLIMIT_<NAME>_<FIELD> environment variables.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "quotas.yaml", "quota file path")
	rootCmd.PersistentFlags().IntVarP(&verbosity, "verbosity", "v", logging.DEFAULT, "log verbosity (higher is more verbose)")
}

// newLogger returns a stderr logger at the requested verbosity
func newLogger() logr.Logger {
	stdr.SetVerbosity(verbosity)
	return stdr.New(log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds))
}
