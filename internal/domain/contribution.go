// Package domain contains the core data structures and domain logic for the application.
package domain

// PullRequestRecord is a single pull request returned by the upstream search.
type PullRequestRecord struct {
	HTMLURL string
	Title   string
}

// PullRequestRef points at one pull request of a repository.
type PullRequestRef struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// RepositoryContribution holds the pull requests a user opened against a single repository.
// It is the core domain entity of this application.
type RepositoryContribution struct {
	Owner           string          `json:"owner"`
	Repo            string          `json:"repo"`
	PRCount         int             `json:"prCount"`
	LastPullRequest *PullRequestRef `json:"lastPR"`

	// Populated only when enrichment succeeded.
	Description     *string `json:"description,omitempty"`
	HTMLURL         string  `json:"html_url,omitempty"`
	StarCount       *int    `json:"stargazers_count,omitempty"`
	PrimaryLanguage *string `json:"language,omitempty"`
}

// Key returns the "owner/repo" grouping key.
func (c *RepositoryContribution) Key() string {
	return c.Owner + "/" + c.Repo
}

// Enriched reports whether repository metadata has been merged into c.
func (c *RepositoryContribution) Enriched() bool {
	return c.StarCount != nil
}

// WithDetail returns a copy of c carrying the repository metadata.
func (c *RepositoryContribution) WithDetail(d RepositoryDetail) *RepositoryContribution {
	out := *c
	stars := d.StarCount
	out.Description = d.Description
	out.HTMLURL = d.HTMLURL
	out.StarCount = &stars
	out.PrimaryLanguage = d.Language
	return &out
}

// RepositoryDetail is the repository metadata used for enrichment.
type RepositoryDetail struct {
	Description *string
	HTMLURL     string
	StarCount   int
	Language    *string
}

// SearchQuery is an upstream issue search for pull requests.
type SearchQuery struct {
	Text    string
	PerPage int
}

// SearchResult is a successful upstream search.
type SearchResult struct {
	Items  []PullRequestRecord
	Total  int
	Status int
}

// Report is the ranked outcome of one contributions request.
type Report struct {
	Username      string
	Contributions []*RepositoryContribution
	SearchStatus  int
	SearchTotal   int
}
