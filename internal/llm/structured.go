package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/visibility-cli/internal/metrics"
)

// DefaultFixAttempts is the number of corrective re-prompts CompleteJSON
// issues after a response fails validation.
const DefaultFixAttempts = 2

// Validator is implemented by result types with semantic checks beyond the
// schema.
type Validator interface {
	Validate() error
}

// Result is the outcome of a structured completion. Parsed is nil whenever
// Err is set.
type Result[T any] struct {
	Parsed  *T
	RawText string
	Err     error
	Usage   Usage
	// Provider and Model identify the completer that answered, for cost
	// attribution.
	Provider string
	Model    string
	// Fixes is the number of corrective re-prompts issued.
	Fixes int
}

// OK reports whether a parsed value is available.
func (r Result[T]) OK() bool { return r.Parsed != nil }

// CompleteJSON asks c for JSON matching req.Schema and decodes it into T.
// When the text does not decode or fails validation, the prompt is re-sent
// with the error appended, up to fixAttempts times. Failures never panic;
// they are reported in Result.Err so batch callers keep positional results.
func CompleteJSON[T any](ctx context.Context, c Completer, req Request, fixAttempts int) Result[T] {
	if fixAttempts < 0 {
		fixAttempts = 0
	}

	var res Result[T]
	prompt := req.Prompt
	for attempt := 0; attempt <= fixAttempts; attempt++ {
		call := req
		call.Prompt = prompt

		resp, err := c.Complete(ctx, call)
		if err != nil {
			res.Err = err
			res.Parsed = nil
			return res
		}
		res.RawText = resp.Text
		res.Usage = res.Usage.Add(resp.Usage)
		res.Provider = resp.Provider
		res.Model = resp.Model

		parsed, verr := decode[T](resp.Text, req.Schema)
		if verr == nil {
			res.Parsed = parsed
			res.Err = nil
			return res
		}
		res.Err = verr

		if attempt == fixAttempts {
			break
		}
		res.Fixes++
		metrics.CompletionFixes.WithLabelValues(resp.Model).Inc()
		zap.L().Debug("llm: structured completion failed validation, re-prompting",
			zap.String("model", resp.Model),
			zap.Int("attempt", attempt+1),
			zap.Error(verr),
		)
		prompt = fixPrompt(req.Prompt, resp.Text, verr)
	}

	res.Err = eris.Wrapf(res.Err, "llm: no valid response after %d attempts", fixAttempts+1)
	return res
}

func decode[T any](text string, schema *Schema) (*T, error) {
	raw := CleanJSON(text)
	if raw == "" {
		return nil, eris.New("response contained no JSON")
	}
	if schema != nil {
		var generic any
		if err := json.Unmarshal([]byte(raw), &generic); err != nil {
			return nil, eris.Wrap(err, "invalid JSON")
		}
		if err := schema.Validate(generic); err != nil {
			return nil, err
		}
	}

	var out T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, eris.Wrap(err, "invalid JSON")
	}
	if v, ok := any(&out).(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}
	return &out, nil
}

func fixPrompt(original, previous string, err error) string {
	var b strings.Builder
	b.WriteString(original)
	b.WriteString("\n\nYour previous response was:\n")
	b.WriteString(previous)
	b.WriteString("\n\nIt was rejected: ")
	b.WriteString(err.Error())
	b.WriteString("\nReply again with only corrected JSON.")
	return b.String()
}

// withSchema appends the JSON Schema instruction to prompt.
func withSchema(prompt string, schema *Schema) string {
	if schema == nil {
		return prompt
	}
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return prompt
	}
	return fmt.Sprintf("%s\n\nRespond with only a JSON value matching this JSON Schema:\n%s", prompt, data)
}

// CleanJSON extracts a JSON object or array from text that may contain
// markdown code fences or surrounding prose.
func CleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return ""
	}
	closer := "}"
	if text[start] == '[' {
		closer = "]"
	}
	end := strings.LastIndex(text, closer)
	if end <= start {
		return ""
	}
	return strings.TrimSpace(text[start : end+1])
}
