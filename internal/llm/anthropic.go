package llm

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/visibility-cli/pkg/anthropic"
)

const defaultMaxTokens = 4096

// AnthropicCompleter completes prompts with Claude.
type AnthropicCompleter struct {
	client anthropic.Client
	model  string
}

// NewAnthropic wraps client; model is used when a request names none.
func NewAnthropic(client anthropic.Client, model string) *AnthropicCompleter {
	return &AnthropicCompleter{client: client, model: model}
}

// Complete implements Completer.
func (a *AnthropicCompleter) Complete(ctx context.Context, req Request) (*Response, error) {
	model := req.Model
	if model == "" {
		model = a.model
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	msg := anthropic.MessageRequest{
		Model:     model,
		MaxTokens: int64(maxTokens),
		Messages:  []anthropic.Message{{Role: "user", Content: withSchema(req.Prompt, req.Schema)}},
	}
	if req.System != "" {
		msg.System = anthropic.BuildCachedSystemBlocks(req.System)
	}

	resp, err := a.client.CreateMessage(ctx, msg)
	if err != nil {
		return nil, eris.Wrap(err, "llm: anthropic completion")
	}

	return &Response{
		Provider: ProviderAnthropic,
		Model:    model,
		Text:     resp.Text(),
		Usage: Usage{
			InputTokens:      int(resp.Usage.InputTokens),
			OutputTokens:     int(resp.Usage.OutputTokens),
			CacheWriteTokens: int(resp.Usage.CacheCreationInputTokens),
			CacheReadTokens:  int(resp.Usage.CacheReadInputTokens),
		},
	}, nil
}
