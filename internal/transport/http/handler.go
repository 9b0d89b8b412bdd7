// Package http exposes the contributions pipeline and the upstream proxies over HTTP.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-logr/logr"

	"github.com/naka-gawa/gh-contributions/internal/domain"
)

// Diagnostic headers attached to contributions responses.
const (
	HeaderTokenPresent = "x-github-token-present"
	HeaderSearchStatus = "x-github-search-status"
	HeaderSearchTotal  = "x-github-search-total"
)

// ContributionsService runs the contributions pipeline for one user.
type ContributionsService interface {
	Aggregate(ctx context.Context, username string) (*domain.Report, error)
}

// RatingsService fetches contest ratings for one user.
type RatingsService interface {
	FetchRatings(ctx context.Context, username string) (json.RawMessage, error)
}

// Diagnostics is the non-secret configuration exposed by /debug-env.
type Diagnostics struct {
	TokenPresent bool
	Username     string
	Environment  string
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type Handler struct {
	contributions ContributionsService
	ratings       RatingsService
	diagnostics   Diagnostics
	logger        logr.Logger
}

func NewHandler(contributions ContributionsService, ratings RatingsService, diagnostics Diagnostics, logger logr.Logger) *Handler {
	return &Handler{
		contributions: contributions,
		ratings:       ratings,
		diagnostics:   diagnostics,
		logger:        logger,
	}
}

func (h *Handler) respondJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error(err, "failed to write json response", "path", r.URL.Path)
	}
}

// recoverWith answers 200 with fallback when the wrapped handler panics, so
// a broken pipeline never surfaces as a server error to the page.
func (h *Handler) recoverWith(fallback any) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				h.logger.Error(fmt.Errorf("panic: %v", rec), "recovered from panic", "path", r.URL.Path)
				h.respondJSON(w, r, http.StatusOK, fallback)
			}()
			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}

// NewRequestLogger logs every served request.
func NewRequestLogger(logger logr.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			t1 := time.Now()

			next.ServeHTTP(ww, r)

			logger.Info("request served",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration_ms", time.Since(t1).Milliseconds(),
				"bytes_written", ww.BytesWritten(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}

		return http.HandlerFunc(fn)
	}
}
