package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/gh-contributions/internal/domain"
	"github.com/naka-gawa/gh-contributions/internal/usecase"
)

var contributionsCmd = &cobra.Command{
	Use:   "contributions",
	Short: "Aggregates a user's pull requests per repository and outputs as JSON",
	Long: `Searches the pull requests authored by a GitHub user, groups them per repository,
enriches the top repositories with their metadata and prints the ranked list in JSON format.
When --user is omitted the configured GITHUB_USERNAME is used.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, logger, err := bootstrap()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		user, _ := cmd.Flags().GetString("user")
		summary, _ := cmd.Flags().GetBool("summary")

		// Inject dependencies and run the main business logic.
		aggregator, err := newAggregator(cfg, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}

		report, err := aggregator.Aggregate(cmd.Context(), user)
		if err != nil {
			var searchErr *domain.SearchFailedError
			if errors.As(err, &searchErr) {
				fmt.Fprintf(os.Stderr, "GitHub search failed with status %d: %s\n", searchErr.Status, searchErr.Details)
			} else {
				fmt.Fprintf(os.Stderr, "Failed to aggregate contributions: %v\n", err)
			}
			os.Exit(1)
		}

		var results any = report.Contributions
		if summary {
			results = usecase.Summarize(report)
		}

		// Marshal the results into a pretty-printed JSON string.
		jsonData, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to marshal results to JSON: %v\n", err)
			os.Exit(1)
		}

		// Print the final JSON to standard output.
		fmt.Println(string(jsonData))
	},
}

func init() {
	rootCmd.AddCommand(contributionsCmd)
	contributionsCmd.Flags().StringP("user", "u", "", "Target GitHub user name (defaults to GITHUB_USERNAME)")
	contributionsCmd.Flags().Bool("summary", false, "Print summary statistics instead of the ranked list")
}
