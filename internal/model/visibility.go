package model

// VisibilityRecord describes how one brand shows up in one search result.
type VisibilityRecord struct {
	Name       string   `json:"name"`
	InContent  bool     `json:"in_content"`
	InSources  bool     `json:"in_sources"`
	Indices    []int    `json:"indices"`
	Citations  []string `json:"citations"`
	References []string `json:"references"`
}

// VisibilityStats accumulates VisibilityRecords for one brand across a batch.
type VisibilityStats struct {
	Name             string `json:"name"`
	IsCompetitor     bool   `json:"is_competitor"`
	Answer           int    `json:"answer"`
	Citations        int    `json:"citations"`
	UniqueCitations  int    `json:"unique_citations"`
	References       int    `json:"references"`
	UniqueReferences int    `json:"unique_references"`
}
