package config

const (
	KeyGitHubToken      = "github_token"
	KeyGitHubUsername   = "github_username"
	KeyGitHubAPIURL     = "github_api_url"
	KeyGitHubGraphQLURL = "github_graphql_url"
	KeyGitHubDetailAPI  = "github_detail_api"
	KeyUpstreamTimeout  = "upstream_timeout"
	KeyEnrichLimit      = "enrich_limit"
	KeyContestAPIURL    = "contest_api_url"
	KeyPort             = "port"
	KeyAppEnv           = "app_env"
	KeyVerbose          = "verbose"
)
