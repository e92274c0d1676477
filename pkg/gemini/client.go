// Package gemini wraps the Gemini API for plain, structured and
// search-grounded generation.
package gemini

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"
	"google.golang.org/genai"

	"github.com/sells-group/visibility-cli/internal/resilience"
)

const defaultModel = "gemini-2.5-flash"

// Client generates content with Gemini models.
type Client interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// GenerateRequest describes one generation call.
type GenerateRequest struct {
	Model  string
	System string
	Prompt string
	// JSON asks for an application/json response body.
	JSON bool
	// Schema, when JSON is set, constrains the response body. Any value
	// that marshals to a JSON Schema is accepted.
	Schema any
	// Grounded enables the Google Search tool and collects the sources the
	// answer was grounded on.
	Grounded bool
	// Country biases grounded search; empty means no bias.
	Country string
}

// GenerateResponse is the text of the first candidate plus grounding data.
type GenerateResponse struct {
	Model   string
	Text    string
	Sources []Source
	Queries []string
	Usage   Usage
}

// Source is a web page the answer was grounded on.
type Source struct {
	Title string
	URI   string
}

// Usage reports token consumption.
type Usage struct {
	PromptTokens int
	OutputTokens int
}

// Config configures the client.
type Config struct {
	APIKey string
	Model  string
	// BaseURL overrides the Gemini API base URL (proxies, tests).
	BaseURL string
	Policy  *resilience.RetryPolicy
}

type sdkClient struct {
	client *genai.Client
	model  string
	policy resilience.RetryPolicy
}

// NewClient creates a Gemini client for the Gemini API backend.
func NewClient(ctx context.Context, cfg Config) (Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, eris.New("gemini: api key is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		cc.HTTPOptions.BaseURL = strings.TrimSpace(cfg.BaseURL)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, eris.Wrap(err, "gemini: create client")
	}

	c := &sdkClient{client: client, model: cfg.Model}
	if c.model == "" {
		c.model = defaultModel
	}
	if cfg.Policy != nil {
		c.policy = *cfg.Policy
	} else {
		c.policy = resilience.DefaultRetryPolicy()
		c.policy.OnRetry = resilience.RetryLogger("gemini", "generate_content")
	}
	return c, nil
}

func (c *sdkClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	cfg := &genai.GenerateContentConfig{CandidateCount: 1}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Grounded {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	} else if req.JSON {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseJsonSchema = req.Schema
	}

	prompt := req.Prompt
	if req.Grounded && req.Country != "" {
		prompt += "\n\n(Search from the perspective of a user located in " + req.Country + ".)"
	}

	resp, err := resilience.Do(ctx, c.policy, func(ctx context.Context) (*genai.GenerateContentResponse, error) {
		resp, err := c.client.Models.GenerateContent(ctx, model, genai.Text(prompt), cfg)
		return resp, classifyErr(err)
	})
	if err != nil {
		return nil, eris.Wrap(err, "gemini: generate content")
	}

	out := &GenerateResponse{
		Model:   model,
		Text:    resp.Text(),
		Sources: extractSources(resp),
		Queries: extractWebSearchQueries(resp),
	}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = Usage{PromptTokens: int(u.PromptTokenCount), OutputTokens: int(u.CandidatesTokenCount)}
	}
	return out, nil
}

// classifyErr maps API errors onto StatusErrors and marks transient network
// failures so the retry loop can judge them.
func classifyErr(err error) error {
	if err == nil {
		return nil
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		body := apiErr.Message
		if body == "" {
			body = http.StatusText(apiErr.Code)
		}
		return &resilience.StatusError{Service: "gemini", StatusCode: apiErr.Code, Body: body}
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return resilience.NewTransientError(err, 0)
	}
	return err
}

func extractSources(resp *genai.GenerateContentResponse) []Source {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil
	}
	gm := resp.Candidates[0].GroundingMetadata
	if gm == nil {
		return nil
	}

	seen := make(map[string]struct{}, len(gm.GroundingChunks))
	var out []Source
	for _, chunk := range gm.GroundingChunks {
		if chunk == nil || chunk.Web == nil {
			continue
		}
		uri := strings.TrimSpace(chunk.Web.URI)
		if uri == "" {
			continue
		}
		if _, ok := seen[uri]; ok {
			continue
		}
		seen[uri] = struct{}{}
		out = append(out, Source{Title: strings.TrimSpace(chunk.Web.Title), URI: uri})
	}
	return out
}

func extractWebSearchQueries(resp *genai.GenerateContentResponse) []string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil
	}
	gm := resp.Candidates[0].GroundingMetadata
	if gm == nil {
		return nil
	}
	var out []string
	for _, q := range gm.WebSearchQueries {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	return out
}
