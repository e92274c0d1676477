// Package report summarizes enriched audit rows into per-brand visibility
// tables and writes them as an XLSX workbook.
package report

import (
	"github.com/sells-group/visibility-cli/internal/brand"
	"github.com/sells-group/visibility-cli/internal/model"
)

// AllProviders labels the summary across every provider.
const AllProviders = "all"

// Summary is the visibility of every tracked brand over one set of rows.
type Summary struct {
	Provider string                  `json:"provider"`
	Rows     int                     `json:"rows"`
	Answered int                     `json:"answered"`
	Stats    []model.VisibilityStats `json:"stats"`
}

// Build aggregates rows overall and per provider. The overall summary comes
// first; providers follow in the order they first appear in rows.
func Build(brands []model.Brand, rows []model.EnrichedAuditRow, stripQuery bool) []Summary {
	var (
		order   []model.Provider
		byProv  = make(map[model.Provider][]model.EnrichedAuditRow)
		overall = summarize(AllProviders, brands, rows, stripQuery)
		out     = []Summary{overall}
	)
	for _, r := range rows {
		if _, ok := byProv[r.Provider]; !ok {
			order = append(order, r.Provider)
		}
		byProv[r.Provider] = append(byProv[r.Provider], r)
	}
	for _, p := range order {
		out = append(out, summarize(string(p), brands, byProv[p], stripQuery))
	}
	return out
}

func summarize(provider string, brands []model.Brand, rows []model.EnrichedAuditRow, stripQuery bool) Summary {
	records := make([]map[string]model.VisibilityRecord, 0, len(rows))
	answered := 0
	for _, r := range rows {
		records = append(records, r.Visibility)
		if !r.Result.Empty() {
			answered++
		}
	}
	return Summary{
		Provider: provider,
		Rows:     len(rows),
		Answered: answered,
		Stats:    brand.Aggregate(brands, records, stripQuery),
	}
}

// Share is the fraction of answered rows that mention the brand in the
// answer text. Zero when nothing was answered.
func (s Summary) Share(st model.VisibilityStats) float64 {
	if s.Answered == 0 {
		return 0
	}
	return float64(st.Answer) / float64(s.Answered)
}
