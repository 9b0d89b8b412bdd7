// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"regexp"

	"github.com/go-logr/logr"

	"github.com/naka-gawa/gh-contributions/internal/domain"
	"github.com/naka-gawa/gh-contributions/internal/gateway"
)

// pullRequestURL matches "<scheme>://<host>/<owner>/<repo>/pull/<number>" on any host.
var pullRequestURL = regexp.MustCompile(`(?i)^(?:[a-z][a-z0-9+.-]*://)?[^/]+/([^/]+)/([^/]+)/pull/\d+`)

// ParsePullRequestURL extracts owner and repo from a pull request web URL.
func ParsePullRequestURL(htmlURL string) (owner, repo string, ok bool) {
	m := pullRequestURL.FindStringSubmatch(htmlURL)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// GroupByRepository counts pull requests per owner/repo.
// Records whose URL is not a pull request URL are skipped. The first record
// seen for a repository becomes its lastPR, since search results arrive most
// recently updated first. The result keeps first-seen order.
func GroupByRepository(records []domain.PullRequestRecord) []*domain.RepositoryContribution {
	byKey := make(map[string]*domain.RepositoryContribution)
	ordered := make([]*domain.RepositoryContribution, 0)

	for _, record := range records {
		owner, repo, ok := ParsePullRequestURL(record.HTMLURL)
		if !ok {
			continue
		}
		key := owner + "/" + repo
		entry, seen := byKey[key]
		if !seen {
			entry = &domain.RepositoryContribution{Owner: owner, Repo: repo}
			byKey[key] = entry
			ordered = append(ordered, entry)
		}
		entry.PRCount++
		if entry.LastPullRequest == nil {
			entry.LastPullRequest = &domain.PullRequestRef{Title: record.Title, URL: record.HTMLURL}
		}
	}
	return ordered
}

// Options configures an Aggregator.
type Options struct {
	// DefaultUsername is searched when the caller does not name a user.
	DefaultUsername string
	// EnrichLimit caps how many repositories get metadata calls per request.
	EnrichLimit int
}

// Aggregator is the use case for aggregating GitHub contributions.
// It orchestrates the search, grouping, enrichment and ranking steps.
type Aggregator struct {
	fetcher       gateway.Fetcher
	enricher      *Enricher
	defaultHandle string
	logger        logr.Logger
}

// NewAggregator creates a new Aggregator instance.
func NewAggregator(fetcher gateway.Fetcher, opts Options, logger logr.Logger) *Aggregator {
	return &Aggregator{
		fetcher:       fetcher,
		enricher:      NewEnricher(fetcher, opts.EnrichLimit, logger.WithName("enricher")),
		defaultHandle: opts.DefaultUsername,
		logger:        logger,
	}
}

// Aggregate performs the main business logic for one request.
// Search failures are returned as-is so the caller can tell
// *domain.SearchFailedError and domain.ErrUpstreamTimeout apart.
func (a *Aggregator) Aggregate(ctx context.Context, username string) (*domain.Report, error) {
	handle := ResolveUsername(username, a.defaultHandle)
	if handle == "" {
		return nil, domain.ErrMissingUsername
	}
	query := BuildQuery(handle, "")
	a.logger.V(1).Info("starting aggregation", "query", query.Text)

	result, err := a.fetcher.SearchPullRequests(ctx, query)
	if err != nil {
		return nil, err
	}

	grouped := GroupByRepository(result.Items)
	enriched := a.enricher.Enrich(ctx, grouped)
	Rank(enriched)

	a.logger.V(1).Info("aggregation complete", "items", len(result.Items), "repositories", len(enriched))
	return &domain.Report{
		Username:      handle,
		Contributions: enriched,
		SearchStatus:  result.Status,
		SearchTotal:   result.Total,
	}, nil
}
