// Package gateway provides a gateway to the GitHub API and the other upstream
// services, abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/naka-gawa/gh-contributions/internal/domain"
)

// DetailAPI selects which GitHub API serves repository metadata.
type DetailAPI string

const (
	DetailAPIREST    DetailAPI = "rest"
	DetailAPIGraphQL DetailAPI = "graphql"
)

// Searcher runs the upstream pull request search.
type Searcher interface {
	SearchPullRequests(ctx context.Context, query domain.SearchQuery) (*domain.SearchResult, error)
}

// RepositoryDetailer fetches metadata for a single repository.
type RepositoryDetailer interface {
	FetchRepository(ctx context.Context, owner, repo string) (*domain.RepositoryDetail, error)
}

// Fetcher defines the behavior of a gateway for fetching information from GitHub.
type Fetcher interface {
	Searcher
	RepositoryDetailer
}

// Options configures a GitHubGateway.
type Options struct {
	// Token is optional; requests are anonymous without it.
	Token      string
	BaseURL    string
	GraphQLURL string
	DetailAPI  DetailAPI
	// Timeout bounds every single upstream call.
	Timeout time.Duration
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	detailAPI     DetailAPI
	timeout       time.Duration
	logger        logr.Logger
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
func NewGitHubGateway(opts Options, logger logr.Logger) (*GitHubGateway, error) {
	// A zero sleep limit turns every secondary rate limit into a plain 403 for the
	// caller; the waiter only reports it.
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil,
		github_ratelimit.WithSingleSleepLimit(0, func(cbContext *github_ratelimit.CallbackContext) {
			logger.Info("secondary rate limit hit",
				"url", cbContext.Request.URL.Path,
				"retryAt", cbContext.SleepUntil,
			)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}

	var transport http.RoundTripper = rateLimitWaiter
	if opts.Token != "" {
		transport = &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}),
		}
	}
	httpClient := &http.Client{Transport: transport}

	restClient := github.NewClient(httpClient)
	if opts.BaseURL != "" {
		baseURL, err := url.Parse(strings.TrimSuffix(opts.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL %q: %w", opts.BaseURL, err)
		}
		restClient.BaseURL = baseURL
	}

	detailAPI := opts.DetailAPI
	if detailAPI == "" {
		detailAPI = DetailAPIREST
	}
	var graphqlClient *githubv4.Client
	if detailAPI == DetailAPIGraphQL {
		if opts.Token == "" {
			return nil, errors.New("the GraphQL detail API requires a GitHub token")
		}
		if opts.GraphQLURL != "" {
			graphqlClient = githubv4.NewEnterpriseClient(opts.GraphQLURL, httpClient)
		} else {
			graphqlClient = githubv4.NewClient(httpClient)
		}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}

	return &GitHubGateway{
		restClient:    restClient,
		graphqlClient: graphqlClient,
		detailAPI:     detailAPI,
		timeout:       timeout,
		logger:        logger,
	}, nil
}

// SearchPullRequests runs a single page of the issue search.
// A non-success status is reported as *domain.SearchFailedError and an expired
// deadline as domain.ErrUpstreamTimeout.
func (g *GitHubGateway) SearchPullRequests(ctx context.Context, query domain.SearchQuery) (*domain.SearchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	g.logger.V(1).Info("searching pull requests", "query", query.Text, "perPage", query.PerPage)
	opts := &github.SearchOptions{
		Sort:        "updated",
		Order:       "desc",
		ListOptions: github.ListOptions{PerPage: query.PerPage},
	}
	result, resp, err := g.restClient.Search.Issues(ctx, query.Text, opts)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: search pull requests: %w", domain.ErrUpstreamTimeout, err)
		}
		if resp != nil && resp.Response != nil && !isSuccess(resp.StatusCode) {
			return nil, &domain.SearchFailedError{
				Status:  resp.StatusCode,
				Details: diagnosticBody(readBody(resp.Response)),
			}
		}
		return nil, fmt.Errorf("failed to search pull requests: %w", err)
	}

	items := make([]domain.PullRequestRecord, 0, len(result.Issues))
	for _, issue := range result.Issues {
		items = append(items, domain.PullRequestRecord{
			HTMLURL: issue.GetHTMLURL(),
			Title:   issue.GetTitle(),
		})
	}

	status := http.StatusOK
	if resp != nil && resp.Response != nil {
		status = resp.StatusCode
	}
	g.logger.V(1).Info("search complete", "items", len(items), "total", result.GetTotal())
	return &domain.SearchResult{
		Items:  items,
		Total:  result.GetTotal(),
		Status: status,
	}, nil
}

// FetchRepository returns the metadata of owner/repo from the configured detail API.
func (g *GitHubGateway) FetchRepository(ctx context.Context, owner, repo string) (*domain.RepositoryDetail, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var (
		detail *domain.RepositoryDetail
		err    error
	)
	if g.detailAPI == DetailAPIGraphQL && g.graphqlClient != nil {
		detail, err = g.fetchRepositoryGraphQL(ctx, owner, repo)
	} else {
		detail, err = g.fetchRepositoryREST(ctx, owner, repo)
	}
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %w: %s/%s", domain.ErrEnrichmentFailed, domain.ErrUpstreamTimeout, owner, repo)
		}
		return nil, fmt.Errorf("%w: %s/%s: %w", domain.ErrEnrichmentFailed, owner, repo, err)
	}
	return detail, nil
}

func (g *GitHubGateway) fetchRepositoryREST(ctx context.Context, owner, repo string) (*domain.RepositoryDetail, error) {
	r, _, err := g.restClient.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return nil, err
	}
	return &domain.RepositoryDetail{
		Description: r.Description,
		HTMLURL:     r.GetHTMLURL(),
		StarCount:   r.GetStargazersCount(),
		Language:    r.Language,
	}, nil
}

// rawBody wraps an upstream body that is not valid JSON.
type rawBody struct {
	ParsingError bool   `json:"parsingError"`
	Raw          string `json:"raw"`
}

// diagnosticBody turns an upstream error body into JSON that can be embedded as-is.
func diagnosticBody(data []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return json.RawMessage(`{}`)
	}
	if gjson.ValidBytes(trimmed) {
		return json.RawMessage(trimmed)
	}
	wrapped, err := json.Marshal(rawBody{ParsingError: true, Raw: string(data)})
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return wrapped
}

// readBody reads what is left of resp.Body. go-github puts the error body back
// after decoding it, so it is still readable here.
func readBody(resp *http.Response) []byte {
	if resp.Body == nil {
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil
	}
	return data
}

func isSuccess(status int) bool {
	return status >= 200 && status <= 299
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
