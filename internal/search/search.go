// Package search turns answer-engine and web-search providers into
// model.SearchResult values for the audit stage.
package search

import (
	"context"
	"net/url"
	"strings"

	"github.com/sells-group/visibility-cli/internal/cost"
	"github.com/sells-group/visibility-cli/internal/metrics"
	"github.com/sells-group/visibility-cli/internal/model"
	"github.com/sells-group/visibility-cli/internal/pool"
	"github.com/sells-group/visibility-cli/internal/resilience"
)

// Searcher answers one query.
type Searcher interface {
	Provider() model.Provider
	Search(ctx context.Context, query string) (*model.SearchResult, error)
}

// Meter attributes provider spend to a pipeline stage.
type Meter struct {
	Calc    *cost.Calculator
	Tracker *cost.Tracker
	Stage   string
}

func (m *Meter) add(provider model.Provider, usd float64) {
	if m == nil || m.Tracker == nil {
		return
	}
	m.Tracker.Add(m.Stage, string(provider), usd)
}

// Batch runs s over queries with at most workers calls in flight. The
// result has one entry per query; a query whose search failed gets the
// empty SearchResult. The only error returned is cancellation.
func Batch(ctx context.Context, s Searcher, queries []string, workers int) ([]model.SearchResult, error) {
	provider := string(s.Provider())

	fn := pool.Total("search:"+provider, func(ctx context.Context, q string) (model.SearchResult, error) {
		res, err := s.Search(ctx, q)
		if err != nil {
			return model.SearchResult{}, err
		}
		if res == nil || res.Empty() {
			metrics.SearchResults.WithLabelValues(provider, "empty").Inc()
			return model.SearchResult{}, nil
		}
		metrics.SearchResults.WithLabelValues(provider, "ok").Inc()
		return *res, nil
	}, func(string, error) model.SearchResult {
		metrics.SearchResults.WithLabelValues(provider, "error").Inc()
		return model.SearchResult{}
	})

	return pool.Map(ctx, queries, workers, fn)
}

// guarded short-circuits a searcher while its provider's breaker is open.
type guarded struct {
	Searcher
	breaker *resilience.Breaker
}

// Guard wraps s with a circuit breaker so a provider that is down fails
// fast instead of spending the retry budget on every remaining query.
func Guard(s Searcher, cfg resilience.CircuitConfig) Searcher {
	return &guarded{Searcher: s, breaker: resilience.NewBreaker(string(s.Provider()), cfg)}
}

func (g *guarded) Search(ctx context.Context, query string) (*model.SearchResult, error) {
	return resilience.Execute(ctx, g.breaker, func(ctx context.Context) (*model.SearchResult, error) {
		return g.Searcher.Search(ctx, query)
	})
}

// Host returns the lowercased host of raw without a leading "www.".
func Host(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
