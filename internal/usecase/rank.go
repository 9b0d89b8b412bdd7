package usecase

import (
	"sort"

	"github.com/naka-gawa/gh-contributions/internal/domain"
)

// Rank sorts entries in place by pull request count, highest first.
// Equal counts fall back to owner/repo so the output is deterministic.
func Rank(entries []*domain.RepositoryContribution) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].PRCount != entries[j].PRCount {
			return entries[i].PRCount > entries[j].PRCount
		}
		return entries[i].Key() < entries[j].Key()
	})
}
