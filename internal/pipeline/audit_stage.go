package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/visibility-cli/internal/model"
	"github.com/sells-group/visibility-cli/internal/search"
)

// Audit asks every provider every enriched prompt. Rows are grouped by
// provider in searcher order, then keyword order. A failed query keeps its
// row with an empty result.
func (s *DefaultStages) Audit(ctx context.Context, _ model.PipelineContext, kws []model.EnrichedKeyword) ([]model.AuditRow, error) {
	if len(s.deps.Searchers) == 0 {
		return nil, eris.New("pipeline: no audit providers configured")
	}

	var (
		queries []string
		sources []model.EnrichedKeyword
	)
	for _, kw := range kws {
		if kw.Prompt == "" {
			continue
		}
		queries = append(queries, kw.Prompt)
		sources = append(sources, kw)
	}
	if skipped := len(kws) - len(queries); skipped > 0 {
		zap.L().Warn("pipeline: skipping keywords without a prompt", zap.Int("skipped", skipped))
	}

	results := make([][]model.SearchResult, len(s.deps.Searchers))
	g, gctx := errgroup.WithContext(ctx)
	for i, searcher := range s.deps.Searchers {
		g.Go(func() error {
			res, err := search.Batch(gctx, searcher, queries, s.pool.SearchWorkers)
			if err != nil {
				return eris.Wrapf(err, "pipeline: audit %s", searcher.Provider())
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rows := make([]model.AuditRow, 0, len(queries)*len(s.deps.Searchers))
	for i, searcher := range s.deps.Searchers {
		empty := 0
		for j, kw := range sources {
			res := results[i][j]
			if res.Empty() {
				empty++
			}
			rows = append(rows, model.AuditRow{
				Keyword:  kw.Keyword,
				Prompt:   kw.Prompt,
				Persona:  kw.Persona,
				Funnel:   kw.FunnelStage,
				Provider: searcher.Provider(),
				Result:   res,
			})
		}
		zap.L().Info("pipeline: provider audited",
			zap.String("provider", string(searcher.Provider())),
			zap.Int("queries", len(queries)),
			zap.Int("empty", empty),
		)
	}
	return rows, nil
}
