package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testRates() Rates {
	return Rates{
		Anthropic: map[string]ModelRate{
			"haiku":  {Input: 0.80, Output: 4.00, CacheWriteMul: 1.25, CacheReadMul: 0.1},
			"sonnet": {Input: 3.00, Output: 15.00, CacheWriteMul: 1.25, CacheReadMul: 0.1},
		},
		Gemini: map[string]ModelRate{
			"flash": {Input: 0.30, Output: 2.50, PerQuery: 0.035},
		},
		Jina:       JinaRate{PerMTok: 0.02},
		Perplexity: PerplexityRate{PerQuery: 0.005, PerMTok: 1.0},
	}
}

func TestClaude(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(testRates())

	tests := []struct {
		name       string
		model      string
		input      int
		output     int
		cacheWrite int
		cacheRead  int
		want       float64
	}{
		{
			name:  "haiku simple",
			model: "haiku", input: 1000000, output: 100000,
			want: 0.80 + 0.40,
		},
		{
			name:  "haiku with cache",
			model: "haiku", input: 500000, output: 50000,
			cacheWrite: 200000, cacheRead: 300000,
			// 0.40 in + 0.20 out + 0.20 write + 0.024 read
			want: 0.40 + 0.20 + 0.20 + 0.024,
		},
		{
			name:  "sonnet",
			model: "sonnet", input: 1000000, output: 1000000,
			want: 18.00,
		},
		{
			name:  "unknown model",
			model: "gpt", input: 1000000, output: 1000000,
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := calc.Claude(tt.model, tt.input, tt.output, tt.cacheWrite, tt.cacheRead)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestGemini(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(testRates())

	assert.InDelta(t, 0.30+0.25, calc.Gemini("flash", false, 1000000, 100000), 1e-9)
	assert.InDelta(t, 0.30+0.25+0.035, calc.Gemini("flash", true, 1000000, 100000), 1e-9)
	assert.Zero(t, calc.Gemini("pro", true, 1000000, 100000))
}

func TestJinaAndPerplexity(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(testRates())

	assert.InDelta(t, 0.02, calc.Jina(1000000), 1e-9)
	assert.InDelta(t, 0.0, calc.Jina(0), 1e-9)
	assert.InDelta(t, 0.005, calc.Perplexity(0), 1e-9)
	assert.InDelta(t, 0.005+0.5, calc.Perplexity(500000), 1e-9)
}

func TestFirecrawl(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(Rates{Firecrawl: FirecrawlRate{PerPage: 0.001}})

	assert.InDelta(t, 0.003, calc.Firecrawl(3), 1e-9)
	assert.Zero(t, calc.Firecrawl(0))
}

func TestDefaultRates(t *testing.T) {
	t.Parallel()
	rates := DefaultRates()

	assert.Contains(t, rates.Anthropic, "claude-haiku-4-5-20251001")
	assert.Contains(t, rates.Gemini, "gemini-2.5-flash")
	assert.Positive(t, rates.Jina.PerMTok)
	assert.Positive(t, rates.Perplexity.PerQuery)
}
