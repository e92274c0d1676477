package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/sells-group/visibility-cli/internal/brand"
	"github.com/sells-group/visibility-cli/internal/checkpoint"
	"github.com/sells-group/visibility-cli/internal/llm"
	"github.com/sells-group/visibility-cli/internal/model"
	"github.com/sells-group/visibility-cli/internal/pool"
)

type entitiesReply struct {
	Items []model.Entity `json:"items"`
}

// EnrichAudit extracts named entities from each answer, ranks the brands
// mentioned, annotates sources and builds per-brand visibility. Entity
// extraction failures leave the row with no entities; brand matching still
// runs on the raw answer.
func (s *DefaultStages) EnrichAudit(ctx context.Context, pc model.PipelineContext, rows []model.AuditRow) ([]model.EnrichedAuditRow, error) {
	const stage = checkpoint.StageEnrichedAudit
	matcher := brand.NewMatcher(pc.Brands)

	return pool.Map(ctx, rows, s.pool.LLMWorkers, func(ctx context.Context, row model.AuditRow) (model.EnrichedAuditRow, error) {
		out := model.EnrichedAuditRow{AuditRow: row}

		if strings.TrimSpace(row.Result.Answer) != "" {
			res := complete[entitiesReply](ctx, s, stage, llm.Request{
				System: entitiesSystemPrompt,
				Prompt: fmt.Sprintf(entitiesPrompt, truncate(row.Result.Answer, 12000)),
				Schema: entitiesSchema,
			})
			switch {
			case res.Err != nil:
				if err := cancelled(ctx); err != nil {
					return out, err
				}
				warnItem(stage, row.Prompt, res.Err)
			default:
				out.Entities = res.Parsed.Items
			}
		}

		return annotate(matcher, out), nil
	})
}

// annotate fills mentions, enriched sources and visibility for a row whose
// entities are already set.
func annotate(m *brand.Matcher, row model.EnrichedAuditRow) model.EnrichedAuditRow {
	if row.Entities == nil {
		row.Entities = []model.Entity{}
	}
	row.Mentions = m.Rank(row.Result.Answer, row.Entities)
	if row.Mentions == nil {
		row.Mentions = []string{}
	}
	row.Sources = make([]model.EnrichedSource, 0, len(row.Result.Sources))
	for _, src := range row.Result.Sources {
		row.Sources = append(row.Sources, m.EnrichSource(src))
	}
	row.Visibility = m.Visibility(row.Mentions, row.Sources)
	return row
}
