package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/visibility-cli/internal/checkpoint"
	"github.com/sells-group/visibility-cli/internal/llm"
	"github.com/sells-group/visibility-cli/internal/model"
	"github.com/sells-group/visibility-cli/internal/pool"
)

type keywordsReply struct {
	Keywords []string `json:"keywords"`
}

type combo struct {
	persona model.Persona
	stage   model.FunnelStage
}

// Keywords generates keyword ideas for every persona and funnel stage and
// merges them after the seed and custom keywords. Duplicates are dropped
// case-insensitively, keeping the first occurrence.
func (s *DefaultStages) Keywords(ctx context.Context, pc model.PipelineContext) ([]model.KeywordRecord, error) {
	const stage = checkpoint.StageKeywordRecords

	var combos []combo
	for _, p := range pc.Personas {
		for _, f := range pc.Funnel {
			combos = append(combos, combo{persona: p, stage: f})
		}
	}

	perStage := s.cfg.KeywordsPerStage
	if perStage <= 0 {
		perStage = 5
	}
	info := pc.BrandInfo

	generated, err := pool.Map(ctx, combos, s.pool.LLMWorkers, func(ctx context.Context, c combo) ([]model.KeywordRecord, error) {
		res := complete[keywordsReply](ctx, s, stage, llm.Request{
			System: keywordsSystemPrompt,
			Prompt: fmt.Sprintf(keywordsPrompt,
				info.Sector, market(info.Country), info.Language,
				c.persona.Name, c.persona.Description,
				c.stage.Name, c.stage.Description,
				perStage),
			Schema: keywordsSchema,
		})
		if res.Err != nil {
			if err := cancelled(ctx); err != nil {
				return nil, err
			}
			warnItem(stage, c.persona.Name+"/"+c.stage.Name, res.Err)
			return nil, nil
		}
		out := make([]model.KeywordRecord, 0, len(res.Parsed.Keywords))
		for _, kw := range res.Parsed.Keywords {
			out = append(out, model.KeywordRecord{
				Keyword:     kw,
				Origin:      model.KeywordOriginGenerated,
				Persona:     c.persona.Name,
				FunnelStage: c.stage.Name,
			})
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	var all []model.KeywordRecord
	for _, kw := range pc.SeedKeywords {
		all = append(all, model.KeywordRecord{Keyword: kw, Origin: model.KeywordOriginSeed})
	}
	for _, kw := range pc.CustomKeywords {
		all = append(all, model.KeywordRecord{Keyword: kw, Origin: model.KeywordOriginCustom})
	}
	for _, batch := range generated {
		all = append(all, batch...)
	}

	out := dedupeKeywords(all)
	if len(out) == 0 {
		return nil, eris.New("pipeline: no keywords produced")
	}
	return out, nil
}

func dedupeKeywords(in []model.KeywordRecord) []model.KeywordRecord {
	seen := make(map[string]bool, len(in))
	out := make([]model.KeywordRecord, 0, len(in))
	for _, r := range in {
		r.Keyword = strings.Join(strings.Fields(r.Keyword), " ")
		key := strings.ToLower(r.Keyword)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}
