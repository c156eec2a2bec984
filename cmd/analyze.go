package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/github-devstats/internal/config"
	"github.com/naka-gawa/github-devstats/internal/domain"
	"github.com/naka-gawa/github-devstats/internal/export"
	"github.com/naka-gawa/github-devstats/internal/usecase"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Summarizes previously collected CSV files",
	Long: `Reads users.csv and repositories.csv from --output-dir and prints the summary.
With --insights it also prints secondary findings such as the top developers by
followers, license and company rankings and follower correlations.`,
	Run: func(cmd *cobra.Command, args []string) {
		logger := newLogger(cmd)
		defer logger.Sync()

		cfg := loadConfig(cmd)
		developers, err := export.LoadDir(cfg.OutputDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load collected data: %v\n", err)
			os.Exit(1)
		}

		aggregator := usecase.NewAggregator(logger)
		summary := aggregator.Summarize(developers)
		asJSON, _ := cmd.Flags().GetBool("json")
		withInsights, _ := cmd.Flags().GetBool("insights")
		if !withInsights {
			printSummary(summary, cfg.TopLanguages, asJSON)
			return
		}

		insights := aggregator.Analyze(developers)
		if asJSON {
			printJSON(struct {
				Summary  *domain.Summary  `json:"summary"`
				Insights *domain.Insights `json:"insights"`
			}{summary, insights})
			return
		}
		printSummary(summary, cfg.TopLanguages, false)
		fmt.Println()
		if err := export.WriteInsights(os.Stdout, insights); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to print insights: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	d := config.Default()
	analyzeCmd.Flags().StringP("output-dir", "o", d.OutputDir, "Directory containing users.csv and repositories.csv")
	analyzeCmd.Flags().Int("top-languages", d.TopLanguages, "Languages shown in the summary")
	analyzeCmd.Flags().Bool("insights", false, "Also print secondary findings")
	analyzeCmd.Flags().Bool("json", false, "Print the result as JSON")
}
