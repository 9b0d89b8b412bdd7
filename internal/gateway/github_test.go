package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/naka-gawa/gh-contributions/internal/domain"
	"github.com/naka-gawa/gh-contributions/internal/logging"
)

// setupTestGateway creates a GitHubGateway that communicates with a mock HTTP server.
func setupTestGateway(t *testing.T, handler http.Handler, detailAPI DetailAPI, timeout time.Duration) *GitHubGateway {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	// Setup REST client to point to the mock server.
	restClient := github.NewClient(server.Client())
	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	restClient.BaseURL = baseURL

	// Use NewEnterpriseClient to point the GraphQL client to our mock server's URL.
	graphqlClient := githubv4.NewEnterpriseClient(server.URL, server.Client())

	return &GitHubGateway{
		restClient:    restClient,
		graphqlClient: graphqlClient,
		detailAPI:     detailAPI,
		timeout:       timeout,
		logger:        logr.Discard(),
	}
}

// waitForCancel blocks until the client gives up on the request.
func waitForCancel(w http.ResponseWriter, r *http.Request) {
	select {
	case <-r.Context().Done():
	case <-time.After(2 * time.Second):
	}
}

func TestGitHubGateway_SearchPullRequests(t *testing.T) {
	testCases := []struct {
		name            string
		status          int
		responseBody    string
		expectedResult  *domain.SearchResult
		expectedStatus  int
		expectedDetails string
		expectGeneric   bool
	}{
		{
			name:   "happy path - maps search items",
			status: http.StatusOK,
			responseBody: `{"total_count": 3, "incomplete_results": false, "items": [
				{"html_url": "https://github.com/acme/widgets/pull/1", "title": "Fix bug"},
				{"html_url": "https://github.com/acme/widgets/pull/2", "title": "Add feature"},
				{"html_url": "https://github.com/acme/gizmos/pull/9", "title": "Refactor"}]}`,
			expectedResult: &domain.SearchResult{
				Items: []domain.PullRequestRecord{
					{HTMLURL: "https://github.com/acme/widgets/pull/1", Title: "Fix bug"},
					{HTMLURL: "https://github.com/acme/widgets/pull/2", Title: "Add feature"},
					{HTMLURL: "https://github.com/acme/gizmos/pull/9", Title: "Refactor"},
				},
				Total:  3,
				Status: http.StatusOK,
			},
		},
		{
			name:           "empty result",
			status:         http.StatusOK,
			responseBody:   `{"total_count": 0, "items": []}`,
			expectedResult: &domain.SearchResult{Items: []domain.PullRequestRecord{}, Total: 0, Status: http.StatusOK},
		},
		{
			name:            "forbidden - JSON details are kept",
			status:          http.StatusForbidden,
			responseBody:    `{"message": "Resource not accessible by integration"}`,
			expectedStatus:  http.StatusForbidden,
			expectedDetails: `{"message": "Resource not accessible by integration"}`,
		},
		{
			name:            "server error - raw text is wrapped",
			status:          http.StatusBadGateway,
			responseBody:    `upstream exploded`,
			expectedStatus:  http.StatusBadGateway,
			expectedDetails: `{"parsingError": true, "raw": "upstream exploded"}`,
		},
		{
			name:            "validation error - empty body",
			status:          http.StatusUnprocessableEntity,
			responseBody:    ``,
			expectedStatus:  http.StatusUnprocessableEntity,
			expectedDetails: `{}`,
		},
		{
			name:          "success status with malformed payload",
			status:        http.StatusOK,
			responseBody:  `{"items": [`,
			expectGeneric: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/search/issues", r.URL.Path)
				assert.Equal(t, "type:pr author:octocat", r.URL.Query().Get("q"))
				assert.Equal(t, "100", r.URL.Query().Get("per_page"))
				assert.Equal(t, "updated", r.URL.Query().Get("sort"))
				assert.Equal(t, "desc", r.URL.Query().Get("order"))
				w.WriteHeader(tc.status)
				fmt.Fprint(w, tc.responseBody)
			}
			gateway := setupTestGateway(t, http.HandlerFunc(handler), DetailAPIREST, time.Second)

			result, err := gateway.SearchPullRequests(context.Background(), domain.SearchQuery{Text: "type:pr author:octocat", PerPage: 100})

			var searchErr *domain.SearchFailedError
			switch {
			case tc.expectGeneric:
				require.Error(t, err)
				assert.False(t, errors.As(err, &searchErr))
				assert.False(t, errors.Is(err, domain.ErrUpstreamTimeout))
				assert.Contains(t, err.Error(), "failed to search pull requests")
			case tc.expectedResult == nil:
				require.Error(t, err)
				require.True(t, errors.As(err, &searchErr))
				assert.Equal(t, tc.expectedStatus, searchErr.Status)
				assert.JSONEq(t, tc.expectedDetails, string(searchErr.Details))
				assert.Nil(t, result)
			default:
				require.NoError(t, err)
				assert.Equal(t, tc.expectedResult, result)
			}
		})
	}
}

func TestGitHubGateway_SearchPullRequests_Timeout(t *testing.T) {
	gateway := setupTestGateway(t, http.HandlerFunc(waitForCancel), DetailAPIREST, 50*time.Millisecond)

	_, err := gateway.SearchPullRequests(context.Background(), domain.SearchQuery{Text: "type:pr author:octocat", PerPage: 100})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUpstreamTimeout))
	var searchErr *domain.SearchFailedError
	assert.False(t, errors.As(err, &searchErr))
}

func TestGitHubGateway_SearchPullRequests_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	gateway, err := NewGitHubGateway(Options{BaseURL: server.URL, Timeout: time.Second}, logr.Discard())
	require.NoError(t, err)
	server.Close()

	_, err = gateway.SearchPullRequests(context.Background(), domain.SearchQuery{Text: "type:pr author:octocat", PerPage: 100})

	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrUpstreamTimeout))
	var searchErr *domain.SearchFailedError
	assert.False(t, errors.As(err, &searchErr))
}

func TestNewGitHubGateway_Credentials(t *testing.T) {
	testCases := []struct {
		name          string
		token         string
		expectedAuthz string
	}{
		{name: "token is sent as bearer credential", token: "test-token", expectedAuthz: "Bearer test-token"},
		{name: "anonymous without token", token: "", expectedAuthz: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tc.expectedAuthz, r.Header.Get("Authorization"))
				assert.Contains(t, r.Header.Get("Accept"), "application/vnd.github")
				w.WriteHeader(http.StatusOK)
				fmt.Fprint(w, `{"total_count": 0, "items": []}`)
			}))
			defer server.Close()

			gateway, err := NewGitHubGateway(Options{
				Token:   tc.token,
				BaseURL: server.URL,
				Timeout: time.Second,
			}, logr.Discard())
			require.NoError(t, err)

			result, err := gateway.SearchPullRequests(context.Background(), domain.SearchQuery{Text: "type:pr author:octocat", PerPage: 100})
			require.NoError(t, err)
			assert.Equal(t, 0, result.Total)
		})
	}
}

func TestGitHubGateway_SearchPullRequests_SecondaryRateLimitIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) > 1 {
			w.WriteHeader(http.StatusOK)
			fmt.Fprint(w, `{"total_count": 0, "items": []}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"message": "You have exceeded a secondary rate limit. Please wait a few minutes before you try again.", "documentation_url": "https://docs.github.com/rest/overview/rate-limits-for-the-rest-api#about-secondary-rate-limits"}`)
	}))
	defer server.Close()

	core, logs := observer.New(zapcore.InfoLevel)
	gateway, err := NewGitHubGateway(Options{BaseURL: server.URL, Timeout: 5 * time.Second}, logging.FromCore(core))
	require.NoError(t, err)

	result, err := gateway.SearchPullRequests(context.Background(), domain.SearchQuery{Text: "type:pr author:octocat", PerPage: 100})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, int32(1), hits.Load(), "the rate limited request must not be sent again")
	var searchErr *domain.SearchFailedError
	require.True(t, errors.As(err, &searchErr))
	assert.Equal(t, http.StatusForbidden, searchErr.Status)
	assert.Contains(t, string(searchErr.Details), "secondary rate limit")
	assert.Equal(t, 1, logs.FilterMessage("secondary rate limit hit").Len())
}

func TestNewGitHubGateway_GraphQLRequiresToken(t *testing.T) {
	_, err := NewGitHubGateway(Options{DetailAPI: DetailAPIGraphQL}, logr.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires a GitHub token")

	gateway, err := NewGitHubGateway(Options{DetailAPI: DetailAPIGraphQL, Token: "t"}, logr.Discard())
	require.NoError(t, err)
	assert.NotNil(t, gateway.graphqlClient)
}

func TestGitHubGateway_FetchRepository_REST(t *testing.T) {
	testCases := []struct {
		name           string
		handlerFunc    func(w http.ResponseWriter, r *http.Request)
		expectedDetail *domain.RepositoryDetail
		expectTimeout  bool
	}{
		{
			name: "happy path - maps repository metadata",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/repos/acme/widgets", r.URL.Path)
				w.WriteHeader(http.StatusOK)
				fmt.Fprint(w, `{"description": "Widgets for everyone", "html_url": "https://github.com/acme/widgets", "stargazers_count": 42, "language": "Go"}`)
			},
			expectedDetail: &domain.RepositoryDetail{
				Description: github.String("Widgets for everyone"),
				HTMLURL:     "https://github.com/acme/widgets",
				StarCount:   42,
				Language:    github.String("Go"),
			},
		},
		{
			name: "missing optional fields",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				fmt.Fprint(w, `{"description": null, "html_url": "https://github.com/acme/widgets", "stargazers_count": 0, "language": null}`)
			},
			expectedDetail: &domain.RepositoryDetail{HTMLURL: "https://github.com/acme/widgets"},
		},
		{
			name: "error case - repository not found",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				fmt.Fprint(w, `{"message": "Not Found"}`)
			},
		},
		{
			name:          "error case - call exceeds the deadline",
			handlerFunc:   waitForCancel,
			expectTimeout: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gateway := setupTestGateway(t, http.HandlerFunc(tc.handlerFunc), DetailAPIREST, 50*time.Millisecond)

			detail, err := gateway.FetchRepository(context.Background(), "acme", "widgets")

			if tc.expectedDetail != nil {
				require.NoError(t, err)
				assert.Equal(t, tc.expectedDetail, detail)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrEnrichmentFailed))
			assert.Equal(t, tc.expectTimeout, errors.Is(err, domain.ErrUpstreamTimeout))
			assert.Contains(t, err.Error(), "acme/widgets")
		})
	}
}

func TestDiagnosticBody(t *testing.T) {
	assert.JSONEq(t, `{}`, string(diagnosticBody(nil)))
	assert.JSONEq(t, `{}`, string(diagnosticBody([]byte("  \n"))))
	assert.JSONEq(t, `{"message":"Bad credentials"}`, string(diagnosticBody([]byte(`{"message":"Bad credentials"}`))))
	assert.JSONEq(t, `{"parsingError":true,"raw":"<html>oops</html>"}`, string(diagnosticBody([]byte(`<html>oops</html>`))))
}

func TestReadBody(t *testing.T) {
	resp := &http.Response{Body: io.NopCloser(strings.NewReader("payload"))}
	assert.Equal(t, []byte("payload"), readBody(resp))
	assert.Nil(t, readBody(&http.Response{}))
}
