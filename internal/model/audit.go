package model

// Provider names an answer engine the audit queries.
type Provider string

const (
	ProviderPerplexity Provider = "perplexity"
	ProviderGemini     Provider = "gemini"
	ProviderJina       Provider = "jina"
)

// AuditRow is one prompt sent to one provider.
type AuditRow struct {
	Keyword  string       `json:"keyword"`
	Prompt   string       `json:"prompt"`
	Persona  string       `json:"persona,omitempty"`
	Funnel   string       `json:"funnel_stage,omitempty"`
	Provider Provider     `json:"provider"`
	Result   SearchResult `json:"result"`
}

// EnrichedAuditRow is an AuditRow annotated with brand mentions and
// per-brand visibility.
type EnrichedAuditRow struct {
	AuditRow
	Entities   []Entity                    `json:"entities"`
	Mentions   []string                    `json:"mentions"`
	Sources    []EnrichedSource            `json:"sources"`
	Visibility map[string]VisibilityRecord `json:"visibility"`
}
