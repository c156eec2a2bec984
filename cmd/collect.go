package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/naka-gawa/github-devstats/internal/config"
	"github.com/naka-gawa/github-devstats/internal/domain"
	"github.com/naka-gawa/github-devstats/internal/export"
	"github.com/naka-gawa/github-devstats/internal/gateway"
	"github.com/naka-gawa/github-devstats/internal/usecase"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collects developers and their repositories and writes CSV files and a summary",
	Long: `Searches GitHub for users whose location matches --location and who have more
than --min-followers followers, fetches every user's profile and repositories while
respecting the API rate limits, and writes users.csv, repositories.csv and summary.txt
into --output-dir. Nothing is written if collection fails.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		logger := newLogger(cmd)
		defer logger.Sync()

		cfg := loadConfig(cmd)
		if err := cfg.RequireToken(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v.\n", err)
			os.Exit(1)
		}

		// Inject dependencies and run the main business logic.
		githubGateway, err := gateway.NewGitHubGateway(cfg.Token, gateway.TransportOptions{
			RequestsPerMinute: cfg.RequestsPerMinute,
			MaxSecondaryWait:  cfg.MaxSecondaryWait,
		}, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create GitHub gateway: %v\n", err)
			os.Exit(1)
		}
		collector := usecase.NewCollector(githubGateway, collectOptions(cfg), logger)

		developers, err := collector.Collect(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to collect developers: %v\n", err)
			os.Exit(1)
		}

		summary := usecase.NewAggregator(logger).Summarize(developers)
		if err := export.WriteDir(cfg.OutputDir, developers, summary, cfg.TopLanguages); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write results: %v\n", err)
			os.Exit(1)
		}
		logger.Info("results written", zap.String("dir", cfg.OutputDir))

		asJSON, _ := cmd.Flags().GetBool("json")
		printSummary(summary, cfg.TopLanguages, asJSON)
	},
}

func collectOptions(cfg *config.Config) usecase.CollectOptions {
	return usecase.CollectOptions{
		Location:              cfg.Location,
		MinFollowers:          cfg.MinFollowers,
		PerPage:               cfg.PerPage,
		MaxRepos:              cfg.MaxRepos,
		Workers:               cfg.Workers,
		RateLimitFallbackWait: cfg.RateLimitFallbackWait,
		MaxRateLimitRetries:   cfg.MaxRateLimitRetries,
	}
}

// printSummary writes the summary to standard output as text or pretty-printed JSON.
func printSummary(summary *domain.Summary, topLanguages int, asJSON bool) {
	if asJSON {
		printJSON(summary)
		return
	}
	if err := export.WriteSummary(os.Stdout, summary, topLanguages); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to print summary: %v\n", err)
		os.Exit(1)
	}
}

func printJSON(v any) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to marshal results to JSON: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(jsonData))
}

func init() {
	rootCmd.AddCommand(collectCmd)
	d := config.Default()
	collectCmd.Flags().StringP("location", "l", d.Location, "Location to search for")
	collectCmd.Flags().Int("min-followers", d.MinFollowers, "Only users with more followers than this")
	collectCmd.Flags().Int("per-page", d.PerPage, "Page size for API requests (max 100)")
	collectCmd.Flags().Int("max-repos", d.MaxRepos, "Repositories fetched per user (0 = all)")
	collectCmd.Flags().Int("workers", d.Workers, "Users fetched concurrently")
	collectCmd.Flags().Int("requests-per-minute", d.RequestsPerMinute, "Client-side request rate limit (0 = unlimited)")
	collectCmd.Flags().Duration("max-secondary-wait", d.MaxSecondaryWait, "Longest single sleep for a secondary rate limit")
	collectCmd.Flags().Duration("rate-limit-fallback-wait", d.RateLimitFallbackWait, "Wait used when a rate limit has no reset time")
	collectCmd.Flags().Int("max-rate-limit-retries", d.MaxRateLimitRetries, "Rate limit waits per request before giving up (0 = never give up)")
	collectCmd.Flags().StringP("output-dir", "o", d.OutputDir, "Directory for users.csv, repositories.csv and summary.txt")
	collectCmd.Flags().Int("top-languages", d.TopLanguages, "Languages shown in the summary")
	collectCmd.Flags().Bool("json", false, "Print the summary as JSON")
}
