package pipeline

import (
	"context"
	"strings"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/visibility-cli/internal/llm"
	"github.com/sells-group/visibility-cli/internal/model"
	"github.com/sells-group/visibility-cli/internal/scrape"
)

// --- Stages fake ---

// fakeStages returns canned stage outputs and counts calls per stage.
type fakeStages struct {
	mu    sync.Mutex
	calls map[string]int

	records  []model.KeywordRecord
	enriched []model.KeywordRecord // inputs seen by EnrichKeywords
	failAt   string
}

func newFakeStages() *fakeStages {
	return &fakeStages{
		calls: make(map[string]int),
		records: []model.KeywordRecord{
			{Keyword: "academia inglés niños", Origin: model.KeywordOriginSeed},
			{Keyword: "clases inglés bebés", Origin: model.KeywordOriginGenerated},
			{Keyword: "inglés extraescolar", Origin: model.KeywordOriginGenerated},
			{Keyword: "método inglés infantil", Origin: model.KeywordOriginGenerated},
			{Keyword: "campamento inglés", Origin: model.KeywordOriginCustom},
		},
	}
}

func (f *fakeStages) hit(stage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[stage]++
	if f.failAt == stage {
		return errStage
	}
	return nil
}

func (f *fakeStages) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeStages) count(stage string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[stage]
}

func (f *fakeStages) Context(context.Context) (model.PipelineContext, error) {
	if err := f.hit("context"); err != nil {
		return model.PipelineContext{}, err
	}
	return testContext(), nil
}

func (f *fakeStages) Keywords(context.Context, model.PipelineContext) ([]model.KeywordRecord, error) {
	if err := f.hit("keywordRecords"); err != nil {
		return nil, err
	}
	return f.records, nil
}

func (f *fakeStages) EnrichKeywords(_ context.Context, _ model.PipelineContext, kws []model.KeywordRecord) ([]model.EnrichedKeyword, error) {
	if err := f.hit("enrichedKeywords"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.enriched = kws
	f.mu.Unlock()
	out := make([]model.EnrichedKeyword, len(kws))
	for i, kw := range kws {
		out[i] = model.EnrichedKeyword{KeywordRecord: kw, Prompt: "¿" + kw.Keyword + "?"}
	}
	return out, nil
}

func (f *fakeStages) Audit(_ context.Context, _ model.PipelineContext, kws []model.EnrichedKeyword) ([]model.AuditRow, error) {
	if err := f.hit("audit"); err != nil {
		return nil, err
	}
	out := make([]model.AuditRow, len(kws))
	for i, kw := range kws {
		out[i] = model.AuditRow{
			Keyword:  kw.Keyword,
			Prompt:   kw.Prompt,
			Provider: model.ProviderPerplexity,
			Result:   model.SearchResult{Answer: "Kids&Us es una buena opción."},
		}
	}
	return out, nil
}

func (f *fakeStages) EnrichAudit(_ context.Context, _ model.PipelineContext, rows []model.AuditRow) ([]model.EnrichedAuditRow, error) {
	if err := f.hit("enrichedAudit"); err != nil {
		return nil, err
	}
	out := make([]model.EnrichedAuditRow, len(rows))
	for i, r := range rows {
		out[i] = model.EnrichedAuditRow{AuditRow: r, Mentions: []string{"Kids&Us"}}
	}
	return out, nil
}

// --- Completer fake ---

// scriptedCompleter answers with the first reply whose key is contained in
// the prompt. A reply of "ERR" fails the call.
type scriptedCompleter struct {
	mock.Mock
	replies []scripted
}

type scripted struct {
	contains string
	text     string
}

func (c *scriptedCompleter) on(contains, text string) *scriptedCompleter {
	c.replies = append(c.replies, scripted{contains: contains, text: text})
	return c
}

func (c *scriptedCompleter) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	c.Called(ctx, req.Prompt)
	for _, r := range c.replies {
		if strings.Contains(req.Prompt, r.contains) {
			if r.text == "ERR" {
				return nil, errStage
			}
			return &llm.Response{
				Provider: llm.ProviderAnthropic,
				Model:    "claude-haiku-4-5-20251001",
				Text:     r.text,
				Usage:    llm.Usage{InputTokens: 100, OutputTokens: 50},
			}, nil
		}
	}
	return &llm.Response{Provider: llm.ProviderAnthropic, Text: "no scripted reply"}, nil
}

func newScripted() *scriptedCompleter {
	c := &scriptedCompleter{}
	c.On("Complete", mock.Anything, mock.Anything)
	return c
}

// --- Page reader mock ---

type mockReader struct {
	mock.Mock
}

func (m *mockReader) Scrape(ctx context.Context, url string) (*scrape.Result, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scrape.Result), args.Error(1)
}

// --- Searcher fake ---

type fakeSearcher struct {
	provider model.Provider
	answer   func(q string) (*model.SearchResult, error)
}

func (f *fakeSearcher) Provider() model.Provider { return f.provider }

func (f *fakeSearcher) Search(_ context.Context, q string) (*model.SearchResult, error) {
	return f.answer(q)
}
