package search

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/visibility-cli/internal/model"
	"github.com/sells-group/visibility-cli/pkg/gemini"
)

// GeminiSearcher asks Gemini with Google Search grounding enabled.
type GeminiSearcher struct {
	client  gemini.Client
	model   string
	country string
	meter   *Meter
}

// NewGemini creates a searcher.
func NewGemini(client gemini.Client, model, country string, meter *Meter) *GeminiSearcher {
	return &GeminiSearcher{client: client, model: model, country: country, meter: meter}
}

// Provider implements Searcher.
func (g *GeminiSearcher) Provider() model.Provider { return model.ProviderGemini }

// Search implements Searcher.
func (g *GeminiSearcher) Search(ctx context.Context, query string) (*model.SearchResult, error) {
	resp, err := g.client.Generate(ctx, gemini.GenerateRequest{
		Model:    g.model,
		Prompt:   query,
		Grounded: true,
		Country:  g.country,
	})
	if err != nil {
		return nil, eris.Wrap(err, "search: gemini")
	}
	if g.meter != nil && g.meter.Calc != nil {
		g.meter.add(g.Provider(), g.meter.Calc.Gemini(resp.Model, true, resp.Usage.PromptTokens, resp.Usage.OutputTokens))
	}

	out := &model.SearchResult{Answer: resp.Text}
	for _, s := range resp.Sources {
		cited := true
		out.Sources = append(out.Sources, model.Source{
			Title:  s.Title,
			URL:    s.URI,
			Domain: groundingDomain(s),
			Cited:  &cited,
		})
	}
	return out, nil
}

// groundingDomain prefers the chunk title, which the API sets to the
// publisher's domain, because grounding URIs point at a redirect host.
func groundingDomain(s gemini.Source) string {
	title := strings.ToLower(strings.TrimSpace(s.Title))
	if title != "" && !strings.ContainsAny(title, " /") && strings.Contains(title, ".") {
		return strings.TrimPrefix(title, "www.")
	}
	return Host(s.URI)
}
