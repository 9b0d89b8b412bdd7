package usecase

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"github.com/naka-gawa/gh-contributions/internal/domain"
	"github.com/naka-gawa/gh-contributions/internal/gateway"
)

// DefaultEnrichLimit bounds the detail calls issued for a single request.
const DefaultEnrichLimit = 20

// Enricher merges repository metadata into aggregated contributions.
type Enricher struct {
	detailer gateway.RepositoryDetailer
	limit    int
	logger   logr.Logger
}

// NewEnricher creates an Enricher. A non-positive limit selects DefaultEnrichLimit.
func NewEnricher(detailer gateway.RepositoryDetailer, limit int, logger logr.Logger) *Enricher {
	if limit <= 0 {
		limit = DefaultEnrichLimit
	}
	return &Enricher{
		detailer: detailer,
		limit:    limit,
		logger:   logger,
	}
}

// Enrich fetches metadata for the first e.limit entries concurrently and waits
// for every call to settle. Entries whose call fails or panics, and entries
// past the limit, come back unchanged. Order and length of entries are preserved and
// the input entries are never mutated.
func (e *Enricher) Enrich(ctx context.Context, entries []*domain.RepositoryContribution) []*domain.RepositoryContribution {
	out := make([]*domain.RepositoryContribution, len(entries))
	copy(out, entries)

	n := min(len(entries), e.limit)
	if n < len(entries) {
		e.logger.V(1).Info("enrichment capped", "repositories", len(entries), "limit", e.limit)
	}

	// Every task returns nil, so the group never cancels its siblings.
	var eg errgroup.Group
	for i, entry := range entries[:n] {
		eg.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					e.logger.Error(fmt.Errorf("panic: %v", r), "enrichment skipped after panic", "repo", entry.Key())
				}
			}()
			detail, err := e.detailer.FetchRepository(ctx, entry.Owner, entry.Repo)
			if err != nil {
				e.logger.V(1).Info("enrichment skipped", "repo", entry.Key(), "error", err.Error())
				return nil
			}
			out[i] = entry.WithDetail(*detail)
			return nil
		})
	}
	_ = eg.Wait()

	return out
}
