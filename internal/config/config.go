// Package config loads process configuration from the environment, .env files
// and command line flags.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	DetailAPIREST    = "rest"
	DetailAPIGraphQL = "graphql"

	// DefaultGitHubUsername is searched when neither the request nor the environment names a user.
	DefaultGitHubUsername = "Riya922003"
)

// Config is the explicit configuration injected into the pipeline and server.
type Config struct {
	GitHubToken      string
	GitHubUsername   string
	GitHubAPIURL     string
	GitHubGraphQLURL string
	DetailAPI        string
	UpstreamTimeout  time.Duration
	EnrichLimit      int
	ContestAPIURL    string
	ServerPort       string
	Environment      string
	Verbose          bool
}

// TokenPresent reports whether a GitHub credential is configured.
func (c Config) TokenPresent() bool {
	return c.GitHubToken != ""
}

// Production reports whether the service runs in production mode.
func (c Config) Production() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Init wires viper to the environment, optional .env files and the root command flags.
func Init(root *cobra.Command) {
	viper.AutomaticEnv()
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")
	if root != nil {
		_ = viper.BindPFlags(root.PersistentFlags())
	}
	setDefaults()
}

func setDefaults() {
	viper.SetDefault(KeyGitHubUsername, DefaultGitHubUsername)
	viper.SetDefault(KeyGitHubAPIURL, "https://api.github.com/")
	viper.SetDefault(KeyGitHubGraphQLURL, "https://api.github.com/graphql")
	viper.SetDefault(KeyGitHubDetailAPI, DetailAPIREST)
	viper.SetDefault(KeyUpstreamTimeout, "8s")
	viper.SetDefault(KeyEnrichLimit, 20)
	viper.SetDefault(KeyContestAPIURL, "https://contest-api-silk.vercel.app/ratings")
	viper.SetDefault(KeyPort, "8080")
	viper.SetDefault(KeyAppEnv, "development")
}

// LoadConfig reads and validates the current configuration.
func LoadConfig() (Config, error) {
	cfg := Config{
		GitHubToken:      strings.TrimSpace(viper.GetString(KeyGitHubToken)),
		GitHubUsername:   strings.TrimSpace(viper.GetString(KeyGitHubUsername)),
		GitHubAPIURL:     viper.GetString(KeyGitHubAPIURL),
		GitHubGraphQLURL: viper.GetString(KeyGitHubGraphQLURL),
		DetailAPI:        strings.ToLower(strings.TrimSpace(viper.GetString(KeyGitHubDetailAPI))),
		EnrichLimit:      viper.GetInt(KeyEnrichLimit),
		ContestAPIURL:    viper.GetString(KeyContestAPIURL),
		ServerPort:       ":" + strings.TrimPrefix(viper.GetString(KeyPort), ":"),
		Environment:      viper.GetString(KeyAppEnv),
		Verbose:          viper.GetBool(KeyVerbose),
	}

	timeout, err := parseDuration(viper.GetString(KeyUpstreamTimeout), 8*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("invalid %s: %w", KeyUpstreamTimeout, err)
	}
	cfg.UpstreamTimeout = timeout

	if cfg.GitHubUsername == "" {
		cfg.GitHubUsername = DefaultGitHubUsername
	}

	switch cfg.DetailAPI {
	case "", DetailAPIREST:
		cfg.DetailAPI = DetailAPIREST
	case DetailAPIGraphQL:
		if !cfg.TokenPresent() {
			return Config{}, fmt.Errorf("%s=%s requires %s", KeyGitHubDetailAPI, DetailAPIGraphQL, KeyGitHubToken)
		}
	default:
		return Config{}, fmt.Errorf("invalid %s %q: want %s or %s", KeyGitHubDetailAPI, cfg.DetailAPI, DetailAPIREST, DetailAPIGraphQL)
	}

	if cfg.EnrichLimit <= 0 {
		return Config{}, fmt.Errorf("invalid %s %d: must be positive", KeyEnrichLimit, cfg.EnrichLimit)
	}

	return cfg, nil
}

func parseDuration(value string, fallback time.Duration) (time.Duration, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(trimmed)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration %s must be positive", d)
	}
	return d, nil
}
