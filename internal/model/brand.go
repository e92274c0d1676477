package model

// EntityTypeBrand marks an extracted entity as a brand-like mention.
const EntityTypeBrand = "brand"

// Brand is a brand tracked by an audit, either the audited brand itself or a
// competitor.
type Brand struct {
	Name         string `json:"name"`
	ShortName    string `json:"short_name"`
	Domain       string `json:"domain,omitempty"`
	IsCompetitor bool   `json:"is_competitor"`
}

// Label returns the display identifier used in rankings and visibility maps.
func (b Brand) Label() string {
	if b.ShortName != "" {
		return b.ShortName
	}
	return b.Name
}

// Entity is a named entity extracted from generated text.
type Entity struct {
	Name string `json:"name"`
	Type string `json:"type"`
}
