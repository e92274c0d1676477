package model

// Source is one source attached to a search answer.
type Source struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Domain string `json:"domain"`
	Cited  *bool  `json:"cited,omitempty"`
}

// EnrichedSource is a Source annotated with the brands it mentions or links to.
type EnrichedSource struct {
	Source
	MentionedBrands      []string `json:"mentioned_brands"`
	MentionedCompetitors []string `json:"mentioned_competitors"`
	LinkedBrand          string   `json:"linked_brand,omitempty"`
	LinkedCompetitor     string   `json:"linked_competitor,omitempty"`
}

// SearchResult is what a search or scrape provider returns for one query.
// The zero value is the "no data" sentinel used when a provider fails.
type SearchResult struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// Empty reports whether r carries neither an answer nor sources.
func (r SearchResult) Empty() bool {
	return r.Answer == "" && len(r.Sources) == 0
}
