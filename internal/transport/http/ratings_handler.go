package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/naka-gawa/gh-contributions/internal/domain"
)

func (h *Handler) handleContestRatings(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.URL.Query().Get("username"))
	if username == "" {
		h.respondJSON(w, r, http.StatusBadRequest, errorResponse{Error: "username required"})
		return
	}

	data, err := h.ratings.FetchRatings(r.Context(), username)
	if err != nil {
		var statusErr *domain.UpstreamStatusError
		switch {
		case errors.Is(err, domain.ErrUpstreamTimeout):
			h.respondJSON(w, r, http.StatusGatewayTimeout, errorResponse{Error: "Upstream request timed out"})
		case errors.As(err, &statusErr):
			h.respondJSON(w, r, statusErr.Status, errorResponse{Error: "Upstream API error", Details: statusErr.Body})
		default:
			h.logger.Error(err, "failed to fetch contest ratings", "username", username)
			h.respondJSON(w, r, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		}
		return
	}

	h.respondJSON(w, r, http.StatusOK, data)
}
