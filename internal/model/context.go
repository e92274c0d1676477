package model

// BrandInfo describes the audited brand and the market it is audited in.
type BrandInfo struct {
	Name        string `json:"name"`
	ShortName   string `json:"short_name"`
	Domain      string `json:"domain"`
	Sector      string `json:"sector"`
	Language    string `json:"language"`
	Country     string `json:"country,omitempty"`
	Description string `json:"description,omitempty"`
}

// Persona is a target customer profile.
type Persona struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// FunnelStage is one step of the marketing funnel.
type FunnelStage struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Examples    []string `json:"examples,omitempty"`
}

// PipelineContext is produced once per run and read by every later stage.
// It must not be mutated after the context stage returns it.
type PipelineContext struct {
	BrandInfo      BrandInfo     `json:"brand_info"`
	Brands         []Brand       `json:"brands"`
	Personas       []Persona     `json:"personas"`
	Funnel         []FunnelStage `json:"funnel"`
	CustomKeywords []string      `json:"custom_keywords,omitempty"`
	SeedKeywords   []string      `json:"seed_keywords,omitempty"`
}

// Brand returns the audited (non-competitor) brand, if any.
func (c *PipelineContext) Brand() (Brand, bool) {
	for _, b := range c.Brands {
		if !b.IsCompetitor {
			return b, true
		}
	}
	return Brand{}, false
}

// Competitors returns the competitor brands in context order.
func (c *PipelineContext) Competitors() []Brand {
	var out []Brand
	for _, b := range c.Brands {
		if b.IsCompetitor {
			out = append(out, b)
		}
	}
	return out
}
