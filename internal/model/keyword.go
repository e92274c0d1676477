package model

// KeywordOrigin records where a keyword came from.
type KeywordOrigin string

const (
	KeywordOriginSeed      KeywordOrigin = "seed"
	KeywordOriginCustom    KeywordOrigin = "custom"
	KeywordOriginGenerated KeywordOrigin = "generated"
)

// KeywordRecord is one keyword idea produced by the keyword stage.
type KeywordRecord struct {
	Keyword     string        `json:"keyword"`
	Origin      KeywordOrigin `json:"origin"`
	Persona     string        `json:"persona,omitempty"`
	FunnelStage string        `json:"funnel_stage,omitempty"`
}

// EnrichedKeyword is a KeywordRecord classified by the LLM and turned into a
// natural-language prompt. A keyword whose enrichment failed keeps an empty
// Prompt and is skipped by the audit stage.
type EnrichedKeyword struct {
	KeywordRecord
	Intent string `json:"intent,omitempty"`
	Topic  string `json:"topic,omitempty"`
	Prompt string `json:"prompt,omitempty"`
}
