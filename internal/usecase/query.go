package usecase

import (
	"fmt"
	"strings"

	"github.com/naka-gawa/gh-contributions/internal/domain"
)

// SearchPageSize is the largest page the search API serves. A single page
// stands in for "all recent pull requests"; there is no pagination.
const SearchPageSize = 100

// BuildQuery returns the search for pull requests authored by handle, or by
// fallback when handle is blank.
func BuildQuery(handle, fallback string) domain.SearchQuery {
	return domain.SearchQuery{
		Text:    fmt.Sprintf("type:pr author:%s", ResolveUsername(handle, fallback)),
		PerPage: SearchPageSize,
	}
}

// ResolveUsername returns the trimmed handle, or the trimmed fallback when handle is blank.
func ResolveUsername(handle, fallback string) string {
	if user := strings.TrimSpace(handle); user != "" {
		return user
	}
	return strings.TrimSpace(fallback)
}
