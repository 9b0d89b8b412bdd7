package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/naka-gawa/gh-contributions/internal/domain"
	"github.com/naka-gawa/gh-contributions/internal/usecase"
)

const (
	errorSearchFailed  = "github_search_failed"
	errorSearchTimeout = "github_search_timeout"
)

// upstreamFailureResponse is served with status 200 so the widget can always decode the body.
type upstreamFailureResponse struct {
	Error   string          `json:"error"`
	Status  int             `json:"status"`
	Details json.RawMessage `json:"details"`
}

func (h *Handler) handleContributions(w http.ResponseWriter, r *http.Request) {
	report, ok := h.aggregate(w, r, []*domain.RepositoryContribution{})
	if !ok {
		return
	}
	contributions := report.Contributions
	if contributions == nil {
		contributions = []*domain.RepositoryContribution{}
	}
	h.respondJSON(w, r, http.StatusOK, contributions)
}

func (h *Handler) handleContributionsSummary(w http.ResponseWriter, r *http.Request) {
	report, ok := h.aggregate(w, r, usecase.Summary{Languages: map[string]int{}})
	if !ok {
		return
	}
	h.respondJSON(w, r, http.StatusOK, usecase.Summarize(report))
}

// aggregate runs the pipeline. On failure it writes the response itself and
// returns false; unexpected errors are answered with fallback.
func (h *Handler) aggregate(w http.ResponseWriter, r *http.Request, fallback any) (*domain.Report, bool) {
	w.Header().Set(HeaderTokenPresent, strconv.FormatBool(h.diagnostics.TokenPresent))

	report, err := h.contributions.Aggregate(r.Context(), r.URL.Query().Get("username"))
	if err == nil {
		w.Header().Set(HeaderSearchStatus, strconv.Itoa(report.SearchStatus))
		w.Header().Set(HeaderSearchTotal, strconv.Itoa(report.SearchTotal))
		return report, true
	}

	var searchErr *domain.SearchFailedError
	switch {
	case errors.As(err, &searchErr):
		h.logger.Error(err, "github search failed", "status", searchErr.Status)
		w.Header().Set(HeaderSearchStatus, strconv.Itoa(searchErr.Status))
		h.respondJSON(w, r, http.StatusOK, upstreamFailureResponse{
			Error:   errorSearchFailed,
			Status:  searchErr.Status,
			Details: searchErr.Details,
		})
	case errors.Is(err, domain.ErrUpstreamTimeout):
		h.logger.Error(err, "github search timed out")
		w.Header().Set(HeaderSearchStatus, strconv.Itoa(http.StatusGatewayTimeout))
		details, _ := json.Marshal(map[string]string{"message": err.Error()})
		h.respondJSON(w, r, http.StatusOK, upstreamFailureResponse{
			Error:   errorSearchTimeout,
			Status:  http.StatusGatewayTimeout,
			Details: details,
		})
	default:
		h.logger.Error(err, "failed to fetch contributions")
		h.respondJSON(w, r, http.StatusOK, fallback)
	}
	return nil, false
}
