package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrUpstreamTimeout  = errors.New("upstream request timed out")
	ErrEnrichmentFailed = errors.New("repository enrichment failed")
	ErrMissingUsername  = errors.New("no GitHub username to search for")
)

// SearchFailedError is returned when the upstream search answers with a non-success status.
// Details holds the upstream body as JSON, wrapped when the body itself was not JSON.
type SearchFailedError struct {
	Status  int
	Details json.RawMessage
}

func (e *SearchFailedError) Error() string {
	return fmt.Sprintf("github search failed with status %d", e.Status)
}

// UpstreamStatusError is a non-success answer from a proxied upstream API.
type UpstreamStatusError struct {
	Status int
	Body   string
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("upstream responded with status %d", e.Status)
}
