package scrape

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/visibility-cli/internal/resilience"
	"github.com/sells-group/visibility-cli/pkg/jina"
)

// JinaAdapter wraps a Jina Reader client as a Scraper behind a circuit
// breaker, so a failing reader is skipped until its cool-down ends.
type JinaAdapter struct {
	client  jina.Client
	breaker *resilience.Breaker
}

// NewJinaAdapter creates a JinaAdapter from a Jina client.
func NewJinaAdapter(client jina.Client, cfg resilience.CircuitConfig) *JinaAdapter {
	return &JinaAdapter{
		client:  client,
		breaker: resilience.NewBreaker("jina_reader", cfg),
	}
}

// Name implements Scraper.
func (j *JinaAdapter) Name() string { return "jina" }

// Supports returns false while the breaker is open.
func (j *JinaAdapter) Supports(_ string) bool {
	return j.breaker.State() != resilience.CircuitOpen
}

// Scrape fetches a URL via Jina Reader. Challenge pages and near-empty
// content count as failures.
func (j *JinaAdapter) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	return resilience.Execute(ctx, j.breaker, func(ctx context.Context) (*Result, error) {
		resp, err := j.client.Read(ctx, targetURL)
		if err != nil {
			return nil, err
		}
		if needsFallback(resp) {
			return nil, eris.New("jina: response needs fallback")
		}
		return &Result{
			Page: Page{
				URL:        resp.Data.URL,
				Title:      resp.Data.Title,
				Content:    resp.Data.Content,
				StatusCode: resp.Code,
			},
			Source: "jina",
			Tokens: resp.Data.Usage.Tokens,
		}, nil
	})
}

// minContent is the shortest content a reader result may carry.
const minContent = 100

// needsFallback reports whether a Jina response is unusable: a non-200
// code, near-empty content or a short bot-challenge page.
func needsFallback(resp *jina.ReadResponse) bool {
	if resp == nil {
		return true
	}
	if resp.Code != 0 && resp.Code != 200 {
		return true
	}
	content := strings.TrimSpace(resp.Data.Content)
	if len(content) < minContent {
		return true
	}
	return len(content) < 1000 && challengeText(content) != BlockNone
}
