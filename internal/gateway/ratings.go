package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-logr/logr"
	"github.com/tidwall/gjson"

	"github.com/naka-gawa/gh-contributions/internal/domain"
)

// RatingsClient proxies the contest rating service.
type RatingsClient struct {
	httpClient *http.Client
	endpoint   string
	timeout    time.Duration
	logger     logr.Logger
}

// NewRatingsClient creates a RatingsClient for the given endpoint.
// A nil httpClient uses http.DefaultClient.
func NewRatingsClient(httpClient *http.Client, endpoint string, timeout time.Duration, logger logr.Logger) *RatingsClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &RatingsClient{
		httpClient: httpClient,
		endpoint:   endpoint,
		timeout:    timeout,
		logger:     logger,
	}
}

// FetchRatings returns the upstream rating document for username unchanged.
// Errors are domain.ErrUpstreamTimeout, *domain.UpstreamStatusError, or a plain error.
func (c *RatingsClient) FetchRatings(ctx context.Context, username string) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid contest API URL: %w", err)
	}
	q := u.Query()
	q.Set("username", username)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build ratings request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: fetch ratings: %w", domain.ErrUpstreamTimeout, err)
		}
		return nil, fmt.Errorf("failed to fetch ratings: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: read ratings: %w", domain.ErrUpstreamTimeout, err)
		}
		return nil, fmt.Errorf("failed to read ratings response: %w", err)
	}

	if !isSuccess(resp.StatusCode) {
		c.logger.V(1).Info("ratings upstream error", "status", resp.StatusCode)
		return nil, &domain.UpstreamStatusError{Status: resp.StatusCode, Body: string(body)}
	}
	if !gjson.ValidBytes(body) {
		return nil, errors.New("ratings response is not valid JSON")
	}
	return json.RawMessage(body), nil
}
