package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/github-devstats/internal/gateway"
)

var rateLimitCmd = &cobra.Command{
	Use:   "ratelimit",
	Short: "Prints the remaining GitHub API budget of the configured token",
	Run: func(cmd *cobra.Command, args []string) {
		logger := newLogger(cmd)
		defer logger.Sync()

		cfg := loadConfig(cmd)
		if err := cfg.RequireToken(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v.\n", err)
			os.Exit(1)
		}
		githubGateway, err := gateway.NewGitHubGateway(cfg.Token, gateway.TransportOptions{
			MaxSecondaryWait: cfg.MaxSecondaryWait,
		}, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create GitHub gateway: %v\n", err)
			os.Exit(1)
		}
		status, err := githubGateway.FetchRateLimit(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to fetch rate limit: %v\n", err)
			os.Exit(1)
		}
		printJSON(status)
	},
}

func init() {
	rootCmd.AddCommand(rateLimitCmd)
}
