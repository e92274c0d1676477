package main

import (
	"context"
	"slices"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/visibility-cli/internal/checkpoint"
	"github.com/sells-group/visibility-cli/internal/config"
	"github.com/sells-group/visibility-cli/internal/cost"
	"github.com/sells-group/visibility-cli/internal/llm"
	"github.com/sells-group/visibility-cli/internal/pipeline"
	"github.com/sells-group/visibility-cli/internal/resilience"
	"github.com/sells-group/visibility-cli/internal/scrape"
	"github.com/sells-group/visibility-cli/internal/search"
	anthropicpkg "github.com/sells-group/visibility-cli/pkg/anthropic"
	"github.com/sells-group/visibility-cli/pkg/firecrawl"
	"github.com/sells-group/visibility-cli/pkg/gemini"
	"github.com/sells-group/visibility-cli/pkg/jina"
	"github.com/sells-group/visibility-cli/pkg/perplexity"
)

// auditEnv holds the checkpoint store and the orchestrator the audit
// command runs.
type auditEnv struct {
	Store        checkpoint.Store
	Orchestrator *pipeline.Orchestrator
	Tracker      *cost.Tracker
	close        func() error
}

// Close releases the checkpoint store.
func (e *auditEnv) Close() {
	if e.close != nil {
		_ = e.close()
	}
}

// openStore opens the configured checkpoint backend.
func openStore(ctx context.Context, c *config.Config) (checkpoint.Store, func() error, error) {
	return checkpoint.Open(ctx, checkpoint.Options{
		Backend: c.Store.Backend,
		Path:    c.Store.Path,
		DSN:     c.Store.DatabaseURL,
		Key:     c.Store.RunKey,
	})
}

// initAudit validates the config, builds every provider client and wires
// the default stages into an orchestrator. Callers should defer env.Close().
func initAudit(ctx context.Context, c *config.Config) (*auditEnv, error) {
	if err := c.Validate(config.ModeAudit); err != nil {
		return nil, err
	}
	policy, err := c.Retry.Policy()
	if err != nil {
		return nil, err
	}
	retry := func(service, op string) resilience.RetryPolicy {
		p := policy
		p.RetryableStatusCodes = slices.Clone(policy.RetryableStatusCodes)
		p.OnRetry = resilience.RetryLogger(service, op)
		return p
	}

	tracker := cost.NewTracker()
	calc := cost.NewCalculator(c.Pricing)
	brand := c.Pipeline.Brand

	var geminiClient gemini.Client
	if c.Pipeline.LLM == llm.ProviderGemini || slices.Contains(c.Pipeline.Providers, "gemini") {
		gp := retry("gemini", "generate")
		geminiClient, err = gemini.NewClient(ctx, gemini.Config{
			APIKey:  c.Gemini.Key,
			Model:   c.Gemini.Model,
			BaseURL: c.Gemini.BaseURL,
			Policy:  &gp,
		})
		if err != nil {
			return nil, eris.Wrap(err, "init gemini")
		}
	}

	var completer llm.Completer
	switch c.Pipeline.LLM {
	case llm.ProviderGemini:
		completer = llm.NewGemini(geminiClient, c.Gemini.Model)
	default:
		ap := retry("anthropic", "create_message")
		ap.RetryableStatusCodes = append(ap.RetryableStatusCodes, anthropicpkg.DefaultRetryPolicy().RetryableStatusCodes...)
		opts := []anthropicpkg.Option{anthropicpkg.WithRetryPolicy(ap)}
		if c.Anthropic.BaseURL != "" {
			opts = append(opts, anthropicpkg.WithBaseURL(c.Anthropic.BaseURL))
		}
		completer = llm.NewAnthropic(anthropicpkg.NewClient(c.Anthropic.Key, opts...), c.Anthropic.Model)
	}

	jinaOpts := []jina.Option{
		jina.WithBaseURL(c.Jina.BaseURL),
		jina.WithRetryPolicy(retry("jina", "request")),
		jina.WithRateLimit(c.Jina.RateLimit, int(c.Jina.RateLimit)),
	}
	if c.Jina.SearchBaseURL != "" {
		jinaOpts = append(jinaOpts, jina.WithSearchBaseURL(c.Jina.SearchBaseURL))
	}
	jinaClient := jina.NewClient(c.Jina.Key, jinaOpts...)

	meter := &search.Meter{Calc: calc, Tracker: tracker, Stage: checkpoint.StageAudit}
	var searchers []search.Searcher
	for _, p := range c.Pipeline.Providers {
		var s search.Searcher
		switch p {
		case "perplexity":
			client := perplexity.NewClient(c.Perplexity.Key,
				perplexity.WithBaseURL(c.Perplexity.BaseURL),
				perplexity.WithModel(c.Perplexity.Model),
				perplexity.WithRetryPolicy(retry("perplexity", "chat_completion")),
				perplexity.WithRateLimit(c.Perplexity.RateLimit, int(c.Perplexity.RateLimit)),
			)
			s = search.NewPerplexity(client, c.Perplexity.Model, brand.Country, meter)
		case "gemini":
			s = search.NewGemini(geminiClient, c.Gemini.SearchModel, brand.Country, meter)
		case "jina":
			s = search.NewJina(jinaClient, brand.Country, meter)
		default:
			return nil, eris.Errorf("unknown audit provider %q", p)
		}
		searchers = append(searchers, search.Guard(s, c.Circuit.Breaker()))
	}

	st, closeStore, err := openStore(ctx, c)
	if err != nil {
		return nil, err
	}

	stages := pipeline.NewDefaultStages(pipeline.Deps{
		LLM:       completer,
		Reader:    homepageReader(c, jinaClient, retry),
		Searchers: searchers,
		Calc:      calc,
		Tracker:   tracker,
	}, brand, c.Pipeline.Stages, c.Pool)

	orch := pipeline.New(st, stages, pipeline.Options{
		WizardPath: c.Pipeline.WizardPath,
		SampleSize: c.Pipeline.SampleSize,
		SampleSeed: c.Pipeline.SampleSeed,
	}, tracker)

	zap.L().Info("audit environment ready",
		zap.String("llm", c.Pipeline.LLM),
		zap.Strings("providers", c.Pipeline.Providers),
		zap.String("store", c.Store.Backend),
	)

	return &auditEnv{Store: st, Orchestrator: orch, Tracker: tracker, close: closeStore}, nil
}

// homepageReader chains the free local fetch, Jina Reader and, when a key
// is configured, Firecrawl.
func homepageReader(c *config.Config, jc jina.Client, retry func(service, op string) resilience.RetryPolicy) *scrape.Chain {
	var fc scrape.Scraper
	if c.Firecrawl.Key != "" {
		opts := []firecrawl.Option{
			firecrawl.WithRetryPolicy(retry("firecrawl", "scrape")),
			firecrawl.WithRateLimit(c.Firecrawl.RateLimit, 1),
		}
		if c.Firecrawl.BaseURL != "" {
			opts = append(opts, firecrawl.WithBaseURL(c.Firecrawl.BaseURL))
		}
		fc = scrape.NewFirecrawlAdapter(firecrawl.NewClient(c.Firecrawl.Key, opts...))
	}
	return scrape.NewChain(
		scrape.NewLocalScraper(),
		scrape.NewJinaAdapter(jc, c.Circuit.Breaker()),
		fc,
	)
}
