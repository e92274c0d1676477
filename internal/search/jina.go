package search

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/visibility-cli/internal/model"
	"github.com/sells-group/visibility-cli/pkg/jina"
)

// JinaSearcher runs a plain web search. The answer is the result snippets,
// which is what a user scanning the results page would read.
type JinaSearcher struct {
	client  jina.Client
	country string
	meter   *Meter
}

// NewJina creates a searcher. country sets the search locale.
func NewJina(client jina.Client, country string, meter *Meter) *JinaSearcher {
	return &JinaSearcher{client: client, country: country, meter: meter}
}

// Provider implements Searcher.
func (j *JinaSearcher) Provider() model.Provider { return model.ProviderJina }

// Search implements Searcher.
func (j *JinaSearcher) Search(ctx context.Context, query string) (*model.SearchResult, error) {
	var opts []jina.SearchOption
	if j.country != "" {
		opts = append(opts, jina.WithCountry(strings.ToLower(j.country)))
	}

	resp, err := j.client.Search(ctx, query, opts...)
	if err != nil {
		return nil, eris.Wrap(err, "search: jina")
	}

	var (
		b      strings.Builder
		out    model.SearchResult
		tokens int
	)
	for _, r := range resp.Data {
		tokens += r.Usage.Tokens
		snippet := strings.TrimSpace(r.Description)
		if snippet == "" && r.Title == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(strings.TrimSpace(r.Title))
		if snippet != "" {
			b.WriteString(": ")
			b.WriteString(snippet)
		}
		if r.URL != "" {
			out.Sources = append(out.Sources, model.Source{Title: r.Title, URL: r.URL, Domain: Host(r.URL)})
		}
	}
	out.Answer = b.String()

	if j.meter != nil && j.meter.Calc != nil {
		j.meter.add(j.Provider(), j.meter.Calc.Jina(tokens))
	}
	return &out, nil
}
