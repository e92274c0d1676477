package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/sells-group/visibility-cli/internal/checkpoint"
	"github.com/sells-group/visibility-cli/internal/llm"
	"github.com/sells-group/visibility-cli/internal/model"
	"github.com/sells-group/visibility-cli/internal/pool"
)

type enrichReply struct {
	Intent string `json:"intent"`
	Topic  string `json:"topic,omitempty"`
	Prompt string `json:"prompt"`
}

// EnrichKeywords classifies each keyword and writes the question the audit
// asks. The output is positional; a keyword whose enrichment failed keeps
// an empty Prompt.
func (s *DefaultStages) EnrichKeywords(ctx context.Context, pc model.PipelineContext, kws []model.KeywordRecord) ([]model.EnrichedKeyword, error) {
	const stage = checkpoint.StageEnrichedKeywords
	info := pc.BrandInfo

	return pool.Map(ctx, kws, s.pool.LLMWorkers, func(ctx context.Context, kw model.KeywordRecord) (model.EnrichedKeyword, error) {
		out := model.EnrichedKeyword{KeywordRecord: kw}
		res := complete[enrichReply](ctx, s, stage, llm.Request{
			System: enrichSystemPrompt,
			Prompt: fmt.Sprintf(enrichPrompt,
				info.Sector, market(info.Country), info.Language,
				kw.Keyword, kw.Persona, kw.FunnelStage, info.Language),
			Schema: enrichSchema,
		})
		if res.Err != nil {
			if err := cancelled(ctx); err != nil {
				return out, err
			}
			warnItem(stage, kw.Keyword, res.Err)
			return out, nil
		}
		out.Intent = res.Parsed.Intent
		out.Topic = strings.TrimSpace(res.Parsed.Topic)
		out.Prompt = strings.TrimSpace(res.Parsed.Prompt)
		return out, nil
	})
}
