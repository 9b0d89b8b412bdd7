package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/naka-gawa/gh-contributions/internal/domain"
	"github.com/naka-gawa/gh-contributions/internal/usecase"
)

func (h *Handler) RegisterRoutes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewRequestLogger(h.logger))
	r.Use(middleware.Recoverer)

	r.With(h.recoverWith([]*domain.RepositoryContribution{})).Get("/contributions", h.handleContributions)
	r.With(h.recoverWith(usecase.Summary{Languages: map[string]int{}})).Get("/contributions/summary", h.handleContributionsSummary)
	r.Get("/contest-ratings", h.handleContestRatings)
	r.Get("/debug-env", h.handleDebugEnv)
	r.Get("/health", h.handleHealthCheck)

	return r
}

func (h *Handler) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

type debugEnvResponse struct {
	TokenPresent bool    `json:"tokenPresent"`
	Username     *string `json:"username"`
	Environment  *string `json:"nodeEnv"`
}

// handleDebugEnv reports whether a token is configured, never the token itself.
func (h *Handler) handleDebugEnv(w http.ResponseWriter, r *http.Request) {
	resp := debugEnvResponse{TokenPresent: h.diagnostics.TokenPresent}
	if h.diagnostics.Username != "" {
		username := h.diagnostics.Username
		resp.Username = &username
	}
	if h.diagnostics.Environment != "" {
		env := h.diagnostics.Environment
		resp.Environment = &env
	}
	h.respondJSON(w, r, http.StatusOK, resp)
}
