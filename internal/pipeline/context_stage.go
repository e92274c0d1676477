package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/visibility-cli/internal/brand"
	"github.com/sells-group/visibility-cli/internal/checkpoint"
	"github.com/sells-group/visibility-cli/internal/llm"
	"github.com/sells-group/visibility-cli/internal/model"
	"github.com/sells-group/visibility-cli/internal/scrape"
	"github.com/sells-group/visibility-cli/internal/wizard"
)

type brandInfoReply struct {
	Name        string `json:"name" jsonschema:"full brand name"`
	ShortName   string `json:"short_name,omitempty" jsonschema:"name customers use day to day"`
	Sector      string `json:"sector"`
	Description string `json:"description,omitempty"`
}

type brandListReply struct {
	Items []struct {
		Name      string `json:"name"`
		ShortName string `json:"short_name,omitempty"`
		Domain    string `json:"domain" jsonschema:"registrable domain without scheme"`
	} `json:"items"`
}

type personaReply struct {
	Items []model.Persona `json:"items"`
}

func (p *personaReply) Validate() error {
	if len(p.Items) == 0 {
		return eris.New("items must list at least one persona")
	}
	return nil
}

type funnelReply struct {
	Items []model.FunnelStage `json:"items"`
}

func (f *funnelReply) Validate() error {
	if len(f.Items) == 0 {
		return eris.New("items must list at least one stage")
	}
	return nil
}

// Context builds the brand profile, its competitors, personas and funnel.
// Personas are required; competitors and the funnel fall back to none and
// the default funnel.
func (s *DefaultStages) Context(ctx context.Context) (model.PipelineContext, error) {
	const stage = checkpoint.StageContext

	info, err := s.brandInfo(ctx)
	if err != nil {
		return model.PipelineContext{}, err
	}

	var (
		competitors []model.Brand
		personas    []model.Persona
		funnel      []model.FunnelStage
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res := complete[brandListReply](gctx, s, stage, llm.Request{
			Prompt: fmt.Sprintf(competitorsPrompt, s.maxCompetitors(), info.Name, info.Domain, info.Sector, market(info.Country), info.Language),
			Schema: brandListSchema,
		})
		if res.Err != nil {
			if err := cancelled(gctx); err != nil {
				return err
			}
			warnItem(stage, "competitors", res.Err)
			return nil
		}
		for _, c := range res.Parsed.Items {
			competitors = append(competitors, model.Brand{
				Name:         strings.TrimSpace(c.Name),
				ShortName:    strings.TrimSpace(c.ShortName),
				Domain:       cleanDomain(c.Domain),
				IsCompetitor: true,
			})
		}
		return nil
	})
	g.Go(func() error {
		res := complete[personaReply](gctx, s, stage, llm.Request{
			Prompt: fmt.Sprintf(personasPrompt, s.maxPersonas(), info.Name, info.Sector, market(info.Country), info.Description, info.Language),
			Schema: personaListSchema,
		})
		if res.Err != nil {
			return eris.Wrap(res.Err, "pipeline: generate personas")
		}
		personas = res.Parsed.Items
		return nil
	})
	g.Go(func() error {
		res := complete[funnelReply](gctx, s, stage, llm.Request{
			Prompt: fmt.Sprintf(funnelPrompt, info.Sector, market(info.Country), info.Language),
			Schema: funnelSchema,
		})
		if res.Err != nil {
			if err := cancelled(gctx); err != nil {
				return err
			}
			warnItem(stage, "funnel", res.Err)
			funnel = wizard.DefaultFunnel()
			return nil
		}
		funnel = res.Parsed.Items
		return nil
	})
	if err := g.Wait(); err != nil {
		return model.PipelineContext{}, err
	}

	return model.PipelineContext{
		BrandInfo:      info,
		Brands:         mergeBrands(model.Brand{Name: info.Name, ShortName: info.ShortName, Domain: info.Domain}, competitors),
		Personas:       personas,
		Funnel:         funnel,
		CustomKeywords: nonEmpty(s.brand.CustomKeywords),
		SeedKeywords:   nonEmpty(s.brand.SeedKeywords),
	}, nil
}

// spendRead books the homepage read; the local reader is free.
func (s *DefaultStages) spendRead(res *scrape.Result) {
	if s.deps.Tracker == nil || s.deps.Calc == nil {
		return
	}
	switch res.Source {
	case "jina":
		s.deps.Tracker.Add(checkpoint.StageContext, res.Source, s.deps.Calc.Jina(res.Tokens))
	case "firecrawl":
		s.deps.Tracker.Add(checkpoint.StageContext, res.Source, s.deps.Calc.Firecrawl(1))
	}
}

// brandInfo starts from the configured brand and fills the gaps from the
// brand's homepage. A homepage that cannot be read or summarized is not
// fatal.
func (s *DefaultStages) brandInfo(ctx context.Context) (model.BrandInfo, error) {
	info := model.BrandInfo{
		Name:      strings.TrimSpace(s.brand.Name),
		ShortName: strings.TrimSpace(s.brand.ShortName),
		Domain:    cleanDomain(s.brand.Domain),
		Sector:    strings.TrimSpace(s.brand.Sector),
		Language:  strings.TrimSpace(s.brand.Language),
		Country:   strings.TrimSpace(s.brand.Country),
	}
	if info.Domain == "" || info.Language == "" {
		return model.BrandInfo{}, eris.New("pipeline: brand domain and language are required")
	}

	var homepage string
	if s.deps.Reader != nil {
		res, err := s.deps.Reader.Scrape(ctx, "https://"+info.Domain)
		switch {
		case err != nil:
			if cerr := cancelled(ctx); cerr != nil {
				return model.BrandInfo{}, cerr
			}
			warnItem(checkpoint.StageContext, "homepage", err)
		default:
			homepage = res.Page.Content
			s.spendRead(res)
		}
	}

	if homepage != "" {
		res := complete[brandInfoReply](ctx, s, checkpoint.StageContext, llm.Request{
			System: brandInfoSystemPrompt,
			Prompt: fmt.Sprintf(brandInfoPrompt, info.Domain, market(info.Country), info.Language, info.Sector, truncate(homepage, 6000)),
			Schema: brandInfoSchema,
		})
		switch {
		case res.Err != nil:
			if cerr := cancelled(ctx); cerr != nil {
				return model.BrandInfo{}, cerr
			}
			warnItem(checkpoint.StageContext, "brand info", res.Err)
		default:
			fill(&info.Name, res.Parsed.Name)
			fill(&info.ShortName, res.Parsed.ShortName)
			fill(&info.Sector, res.Parsed.Sector)
			fill(&info.Description, res.Parsed.Description)
		}
	}

	if info.Name == "" {
		label, _, _ := strings.Cut(info.Domain, ".")
		info.Name = label
	}
	if info.Sector == "" {
		return model.BrandInfo{}, eris.New("pipeline: brand sector is unknown; set it in the config")
	}
	zap.L().Info("pipeline: brand profile",
		zap.String("brand", info.Name),
		zap.String("domain", info.Domain),
		zap.String("sector", info.Sector),
	)
	return info, nil
}

func (s *DefaultStages) maxCompetitors() int {
	if s.cfg.MaxCompetitors > 0 {
		return s.cfg.MaxCompetitors
	}
	return 8
}

func (s *DefaultStages) maxPersonas() int {
	if s.cfg.MaxPersonas > 0 {
		return s.cfg.MaxPersonas
	}
	return 4
}

// mergeBrands puts the audited brand first and drops competitors that share
// a match key with a brand already listed.
func mergeBrands(own model.Brand, competitors []model.Brand) []model.Brand {
	out := []model.Brand{own}
	seen := map[string]bool{brand.MatchKey(own.Name): true}
	if own.ShortName != "" {
		seen[brand.MatchKey(own.ShortName)] = true
	}
	for _, c := range competitors {
		key := brand.MatchKey(c.Label())
		if c.Name == "" || key == "" || seen[key] || seen[brand.MatchKey(c.Name)] {
			continue
		}
		seen[key] = true
		seen[brand.MatchKey(c.Name)] = true
		out = append(out, c)
	}
	return out
}

// cleanDomain reduces a URL or host to a bare lowercase host.
func cleanDomain(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	d, _, _ = strings.Cut(d, "/")
	return strings.TrimPrefix(d, "www.")
}

func fill(dst *string, v string) {
	if *dst == "" {
		*dst = strings.TrimSpace(v)
	}
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
