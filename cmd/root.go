// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/naka-gawa/github-devstats/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "github-devstats",
	Short: "A CLI tool to collect and summarize GitHub developers of a location.",
	Long: `github-devstats searches GitHub for developers in a location with more than
a minimum number of followers, fetches their repositories and writes
users.csv, repositories.csv and a text summary (totals, averages and
the most used languages).`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Add a persistent flag for verbose output, available to all commands.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("env-file", ".env", "Path to a .env file with GITHUB_TOKEN")
}

// newLogger discards everything unless --verbose is set, then logs to stderr.
func newLogger(cmd *cobra.Command) *zap.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	if !verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// loadConfig resolves the configuration for cmd and exits on invalid settings.
func loadConfig(cmd *cobra.Command) *config.Config {
	configFile, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg, err := config.Load(cmd.Flags(), configFile, envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
