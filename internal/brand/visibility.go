package brand

import (
	"slices"

	"github.com/sells-group/visibility-cli/internal/model"
)

// Visibility builds the per-brand record for one search result. mentions is
// the ranked output of Rank over the answer; sources are the result's
// enriched sources. Brands that appear neither in the answer nor in any
// source are omitted.
//
// A source cites a brand when it is hosted on the brand's domain and was not
// marked uncited by the provider. It references a brand when its title or URL
// mentions it.
func (m *Matcher) Visibility(mentions []string, sources []model.EnrichedSource) map[string]model.VisibilityRecord {
	out := make(map[string]model.VisibilityRecord)
	for _, cb := range m.brands {
		label := cb.brand.Label()
		rec := model.VisibilityRecord{
			Name:       label,
			InContent:  slices.Contains(mentions, label),
			Indices:    []int{},
			Citations:  []string{},
			References: []string{},
		}
		for i, src := range sources {
			linked := src.LinkedBrand == label || src.LinkedCompetitor == label
			mentioned := slices.Contains(src.MentionedBrands, label) ||
				slices.Contains(src.MentionedCompetitors, label)
			if !linked && !mentioned {
				continue
			}
			rec.Indices = append(rec.Indices, i)
			if linked && (src.Cited == nil || *src.Cited) {
				rec.Citations = append(rec.Citations, src.URL)
			}
			if mentioned {
				rec.References = append(rec.References, src.URL)
			}
		}
		rec.InSources = len(rec.Indices) > 0
		if rec.InContent || rec.InSources {
			out[label] = rec
		}
	}
	return out
}
