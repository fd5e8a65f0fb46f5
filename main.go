package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"garchive/config"
)

var version = "dev"

// cfg holds the defaults loaded before any subcommand runs.
var cfg config.Config

func main() {
	os.Exit(run())
}

func run() int {
	var (
		verbose     bool
		configPath  string
		showVersion bool
	)

	rootCmd := &cobra.Command{
		Use:           "garchive",
		Short:         "Read, write and verify gzip, xz and tar archives",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			setupLogging(verbose)
			var err error
			if configPath != "" {
				// An explicit path must exist and parse.
				if cfg, err = config.LoadFile(configPath); err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				return nil
			}
			if cfg, err = config.Load(); err != nil {
				slog.Warn("failed to load config", "error", err)
				cfg = config.Config{}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if showVersion {
				fmt.Fprintf(cmd.OutOrStdout(), "garchive %s\n", version)
				return nil
			}
			return cmd.Help()
		},
	}

	rootCmd.Flags().BoolVar(&showVersion, "version", false, "print version and exit")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().
		StringVar(&configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/garchive/config.toml)")

	rootCmd.AddCommand(gzCmd)
	rootCmd.AddCommand(xzCmd)
	rootCmd.AddCommand(tarCmd)
	rootCmd.AddCommand(testCmd)

	if err := rootCmd.Execute(); err != nil {
		if exitErr, ok := err.(*exitError); ok {
			return exitErr.code
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	return 0
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}

// exitError carries a process exit code without printing anything more.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}
