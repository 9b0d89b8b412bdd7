// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/naka-gawa/gh-contributions/internal/config"
	"github.com/naka-gawa/gh-contributions/internal/gateway"
	"github.com/naka-gawa/gh-contributions/internal/logging"
	"github.com/naka-gawa/gh-contributions/internal/usecase"
)

var rootCmd = &cobra.Command{
	Use:   "gh-contributions",
	Short: "Summarizes the repositories a GitHub user contributed pull requests to.",
	Long: `gh-contributions searches the pull requests authored by a GitHub user,
groups them per repository, enriches the busiest repositories with their
metadata and ranks them by pull request count. It runs as an HTTP service for
the portfolio dashboard or as a one-shot command printing JSON.`,
	SilenceUsage: true,
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
	rootCmd.PersistentFlags().BoolP(config.KeyVerbose, "v", false, "Enable verbose/debug logging")
	cobra.OnInitialize(func() { config.Init(rootCmd) })
}

// bootstrap loads the configuration and builds the logger shared by every command.
func bootstrap() (config.Config, logr.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return config.Config{}, logr.Discard(), fmt.Errorf("failed to load config: %w", err)
	}
	logger := logging.New(logging.Options{Verbose: cfg.Verbose, Production: cfg.Production()})
	return cfg, logger, nil
}

// newAggregator injects the GitHub gateway into the contributions use case.
func newAggregator(cfg config.Config, logger logr.Logger) (*usecase.Aggregator, error) {
	githubGateway, err := gateway.NewGitHubGateway(gateway.Options{
		Token:      cfg.GitHubToken,
		BaseURL:    cfg.GitHubAPIURL,
		GraphQLURL: cfg.GitHubGraphQLURL,
		DetailAPI:  gateway.DetailAPI(cfg.DetailAPI),
		Timeout:    cfg.UpstreamTimeout,
	}, logger.WithName("gateway"))
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub gateway: %w", err)
	}
	return usecase.NewAggregator(githubGateway, usecase.Options{
		DefaultUsername: cfg.GitHubUsername,
		EnrichLimit:     cfg.EnrichLimit,
	}, logger.WithName("usecase")), nil
}
