package gateway

import (
	"context"
	"fmt"

	"github.com/shurcooL/githubv4"

	"github.com/naka-gawa/gh-contributions/internal/domain"
)

// repositoryDetailQuery fetches the enrichment fields of one repository.
type repositoryDetailQuery struct {
	Repository struct {
		Description     string
		URL             string `graphql:"url"`
		StargazerCount  int
		PrimaryLanguage struct {
			Name string
		}
	} `graphql:"repository(owner: $owner, name: $name)"`
}

// fetchRepositoryGraphQL reads repository metadata through the GraphQL API.
func (g *GitHubGateway) fetchRepositoryGraphQL(ctx context.Context, owner, repo string) (*domain.RepositoryDetail, error) {
	variables := map[string]interface{}{
		"owner": githubv4.String(owner),
		"name":  githubv4.String(repo),
	}
	var q repositoryDetailQuery
	if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
		return nil, fmt.Errorf("failed to execute GraphQL query for repository: %w", err)
	}

	r := q.Repository
	detail := &domain.RepositoryDetail{
		HTMLURL:   r.URL,
		StarCount: r.StargazerCount,
	}
	if r.Description != "" {
		description := r.Description
		detail.Description = &description
	}
	if r.PrimaryLanguage.Name != "" {
		language := r.PrimaryLanguage.Name
		detail.Language = &language
	}
	return detail, nil
}
