// Package llm adapts the Anthropic and Gemini clients to a single completion
// interface and layers self-correcting structured output on top.
package llm

import (
	"context"
)

// Provider names used in logs, metrics and cost attribution.
const (
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Request is one completion call.
type Request struct {
	Model  string
	System string
	Prompt string
	// Schema is the JSON Schema the response must satisfy. When set, the
	// completer asks for JSON and CompleteJSON validates the result.
	Schema    *Schema
	MaxTokens int
}

// Usage reports token consumption.
type Usage struct {
	InputTokens      int `json:"input_tokens"`
	OutputTokens     int `json:"output_tokens"`
	CacheWriteTokens int `json:"cache_write_tokens,omitempty"`
	CacheReadTokens  int `json:"cache_read_tokens,omitempty"`
}

// Add sums two usages.
func (u Usage) Add(o Usage) Usage {
	return Usage{
		InputTokens:      u.InputTokens + o.InputTokens,
		OutputTokens:     u.OutputTokens + o.OutputTokens,
		CacheWriteTokens: u.CacheWriteTokens + o.CacheWriteTokens,
		CacheReadTokens:  u.CacheReadTokens + o.CacheReadTokens,
	}
}

// Response is the raw text of a completion.
type Response struct {
	Provider string
	Model    string
	Text     string
	Usage    Usage
}

// Completer produces a text completion. Implementations retry transport
// failures themselves.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}
