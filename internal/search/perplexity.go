package search

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/visibility-cli/internal/model"
	"github.com/sells-group/visibility-cli/pkg/perplexity"
)

// PerplexitySearcher asks Perplexity's online models and keeps the pages
// they searched as sources.
type PerplexitySearcher struct {
	client  perplexity.Client
	model   string
	country string
	meter   *Meter
}

// NewPerplexity creates a searcher. country biases the search location.
func NewPerplexity(client perplexity.Client, model, country string, meter *Meter) *PerplexitySearcher {
	return &PerplexitySearcher{client: client, model: model, country: country, meter: meter}
}

// Provider implements Searcher.
func (p *PerplexitySearcher) Provider() model.Provider { return model.ProviderPerplexity }

// Search implements Searcher.
func (p *PerplexitySearcher) Search(ctx context.Context, query string) (*model.SearchResult, error) {
	req := perplexity.ChatCompletionRequest{
		Model:    p.model,
		Messages: []perplexity.Message{{Role: "user", Content: query}},
	}
	if p.country != "" {
		req.WebSearchOptions = &perplexity.WebSearchOptions{
			UserLocation: &perplexity.UserLocation{Country: strings.ToUpper(p.country)},
		}
	}

	resp, err := p.client.ChatCompletion(ctx, req)
	if err != nil {
		return nil, eris.Wrap(err, "search: perplexity")
	}
	if p.meter != nil && p.meter.Calc != nil {
		p.meter.add(p.Provider(), p.meter.Calc.Perplexity(resp.Usage.CompletionTokens))
	}

	return &model.SearchResult{
		Answer:  resp.Content(),
		Sources: perplexitySources(resp),
	}, nil
}

// perplexitySources lists the searched pages. Pages that also appear in the
// citation list are marked cited; when the response carries only citations,
// those become the sources.
func perplexitySources(resp *perplexity.ChatCompletionResponse) []model.Source {
	cited := make(map[string]bool, len(resp.Citations))
	for _, c := range resp.Citations {
		cited[c] = true
	}

	seen := make(map[string]bool)
	var out []model.Source
	add := func(title, u string, isCited *bool) {
		if u == "" || seen[u] {
			return
		}
		seen[u] = true
		out = append(out, model.Source{Title: title, URL: u, Domain: Host(u), Cited: isCited})
	}

	if len(resp.SearchResults) == 0 {
		for _, c := range resp.Citations {
			add("", c, nil)
		}
		return out
	}
	for _, r := range resp.SearchResults {
		var isCited *bool
		if len(cited) > 0 {
			v := cited[r.URL]
			isCited = &v
		}
		add(r.Title, r.URL, isCited)
	}
	for _, c := range resp.Citations {
		t := true
		add("", c, &t)
	}
	return out
}
