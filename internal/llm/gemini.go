package llm

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/visibility-cli/pkg/gemini"
)

// GeminiCompleter completes prompts with Gemini.
type GeminiCompleter struct {
	client gemini.Client
	model  string
}

// NewGemini wraps client; model is used when a request names none.
func NewGemini(client gemini.Client, model string) *GeminiCompleter {
	return &GeminiCompleter{client: client, model: model}
}

// Complete implements Completer.
func (g *GeminiCompleter) Complete(ctx context.Context, req Request) (*Response, error) {
	model := req.Model
	if model == "" {
		model = g.model
	}

	gr := gemini.GenerateRequest{
		Model:  model,
		System: req.System,
		Prompt: req.Prompt,
	}
	if req.Schema != nil {
		gr.JSON = true
		gr.Schema = req.Schema.Doc()
	}

	resp, err := g.client.Generate(ctx, gr)
	if err != nil {
		return nil, eris.Wrap(err, "llm: gemini completion")
	}

	return &Response{
		Provider: ProviderGemini,
		Model:    resp.Model,
		Text:     resp.Text,
		Usage:    Usage{InputTokens: resp.Usage.PromptTokens, OutputTokens: resp.Usage.OutputTokens},
	}, nil
}
