package firecrawl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/visibility-cli/internal/resilience"
)

func fastPolicy() resilience.RetryPolicy {
	p := resilience.DefaultRetryPolicy()
	p.InitialDelay = time.Millisecond
	p.MaxDelay = time.Millisecond
	p.MaxRetries = 2
	return p
}

func newTestServer(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-api-key", WithBaseURL(srv.URL), WithRetryPolicy(fastPolicy()))
}

func TestScrape(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/scrape", r.URL.Path)
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req ScrapeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "https://kidsandus.es", req.URL)
		assert.Equal(t, []string{"markdown"}, req.Formats)
		assert.True(t, req.OnlyMainContent)

		_ = json.NewEncoder(w).Encode(ScrapeResponse{
			Success: true,
			Data: PageData{
				Markdown: "# Kids&Us",
				Metadata: Metadata{Title: "Kids&Us", SourceURL: "https://kidsandus.es", StatusCode: 200},
			},
		})
	})

	resp, err := c.Scrape(context.Background(), ScrapeRequest{URL: "https://kidsandus.es", Formats: []string{"markdown"}, OnlyMainContent: true})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "# Kids&Us", resp.Data.Markdown)
	assert.Equal(t, 200, resp.Data.Metadata.StatusCode)
}

func TestScrape_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantCalls  int32
	}{
		{name: "auth error", status: http.StatusUnauthorized, body: `{"error":"Unauthorized"}`, wantStatus: 401, wantCalls: 1},
		{name: "retried server error", status: http.StatusServiceUnavailable, body: `busy`, wantStatus: 503, wantCalls: 3},
		{name: "bad json", status: http.StatusOK, body: `{`, wantCalls: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			c := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.Scrape(context.Background(), ScrapeRequest{URL: "https://example.com"})
			require.Error(t, err)
			assert.Equal(t, tt.wantCalls, calls.Load())
			if tt.wantStatus != 0 {
				code, ok := resilience.StatusCode(err)
				require.True(t, ok)
				assert.Equal(t, tt.wantStatus, code)
			}
		})
	}
}

func TestScrape_RateLimitHonoursCancellation(t *testing.T) {
	c := NewClient("k", WithBaseURL("http://127.0.0.1:1"), WithRateLimit(0.001, 1), WithRetryPolicy(fastPolicy()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Scrape(ctx, ScrapeRequest{URL: "https://example.com"})
	require.Error(t, err)
}
