package pipeline

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/visibility-cli/internal/config"
	"github.com/sells-group/visibility-cli/internal/cost"
	"github.com/sells-group/visibility-cli/internal/llm"
	"github.com/sells-group/visibility-cli/internal/scrape"
	"github.com/sells-group/visibility-cli/internal/search"
)

// PageReader fetches the readable content of a page.
type PageReader interface {
	Scrape(ctx context.Context, url string) (*scrape.Result, error)
}

// Deps are the external collaborators of the default stages.
type Deps struct {
	LLM llm.Completer
	// Reader fetches the brand homepage for the context stage. Optional.
	Reader PageReader
	// Searchers are the audited answer engines, in report order.
	Searchers []search.Searcher
	Calc      *cost.Calculator
	Tracker   *cost.Tracker
}

// DefaultStages implements Stages with LLM and search collaborators.
type DefaultStages struct {
	deps  Deps
	brand config.BrandConfig
	cfg   config.StageConfig
	pool  config.PoolConfig
}

// NewDefaultStages wires the default stage implementations.
func NewDefaultStages(deps Deps, brand config.BrandConfig, cfg config.StageConfig, pool config.PoolConfig) *DefaultStages {
	return &DefaultStages{deps: deps, brand: brand, cfg: cfg, pool: pool}
}

// complete runs a structured completion and books its cost against stage.
func complete[T any](ctx context.Context, s *DefaultStages, stage string, req llm.Request) llm.Result[T] {
	res := llm.CompleteJSON[T](ctx, s.deps.LLM, req, s.cfg.FixAttempts)
	s.spend(stage, res.Provider, res.Model, res.Usage)
	return res
}

func (s *DefaultStages) spend(stage, provider, model string, u llm.Usage) {
	if s.deps.Tracker == nil || s.deps.Calc == nil || provider == "" {
		return
	}
	var usd float64
	switch provider {
	case llm.ProviderAnthropic:
		usd = s.deps.Calc.Claude(model, u.InputTokens, u.OutputTokens, u.CacheWriteTokens, u.CacheReadTokens)
	case llm.ProviderGemini:
		usd = s.deps.Calc.Gemini(model, false, u.InputTokens, u.OutputTokens)
	}
	s.deps.Tracker.Add(stage, provider, usd)
}

// cancelled reports the context error when a failed item failed because the
// run was cancelled, so the pool aborts instead of recording a fallback.
func cancelled(ctx context.Context) error {
	if ctx.Err() != nil {
		return eris.Wrap(context.Cause(ctx), "pipeline: cancelled")
	}
	return nil
}

func warnItem(stage, item string, err error) {
	zap.L().Warn("pipeline: item failed, continuing without it",
		zap.String("stage", stage),
		zap.String("item", item),
		zap.Error(err),
	)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }

// market describes where the audit runs, for prompts.
func market(country string) string {
	if strings.TrimSpace(country) == "" {
		return "its home market"
	}
	return country
}
